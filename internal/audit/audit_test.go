package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_Log_WithoutDatabase(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	auditLogger := NewLogger(nil, zap.New(core))

	assert.False(t, auditLogger.Persistent())
	require.NoError(t, auditLogger.EnsureSchema(context.Background()))
	require.NoError(t, auditLogger.Ping(context.Background()))

	err := auditLogger.Log(context.Background(), Event{
		RequestID:  "req-1",
		Endpoint:   EndpointAnalyzeSymptoms,
		Code:       "INVALID_INPUT",
		HTTPStatus: 400,
		InputChars: 0,
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("Audit log entry").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "analyze-symptoms", fields["endpoint"])
	assert.Equal(t, "INVALID_INPUT", fields["code"])
	assert.NotEmpty(t, fields["audit_id"])

	events, err := auditLogger.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLogger_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers test in short mode")
	}
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("audit_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	auditLogger := NewLogger(pool, zap.NewNop())
	require.NoError(t, auditLogger.EnsureSchema(ctx))
	require.NoError(t, auditLogger.EnsureSchema(ctx), "schema creation must be idempotent")

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, auditLogger.Log(ctx, Event{
		Endpoint:   EndpointAnalyzeSymptoms,
		Code:       OutcomeSuccess,
		HTTPStatus: 200,
		Duration:   1500 * time.Millisecond,
		InputChars: 42,
		Timestamp:  base,
	}))
	require.NoError(t, auditLogger.Log(ctx, Event{
		Endpoint:   EndpointGenerateMedicalReport,
		Code:       "GEMINI_API_ERROR",
		HTTPStatus: 500,
		Timestamp:  base.Add(time.Second),
	}))

	events, err := auditLogger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EndpointGenerateMedicalReport, events[0].Endpoint)
	assert.Equal(t, "GEMINI_API_ERROR", events[0].Code)
	assert.Equal(t, EndpointAnalyzeSymptoms, events[1].Endpoint)
	assert.Equal(t, 1500*time.Millisecond, events[1].Duration)
	assert.Equal(t, 42, events[1].InputChars)
}

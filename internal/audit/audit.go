package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Endpoint names the pipeline an event belongs to
type Endpoint string

const (
	EndpointAnalyzeSymptoms       Endpoint = "analyze-symptoms"
	EndpointGenerateMedicalReport Endpoint = "generate-medical-report"
)

// OutcomeSuccess is recorded as the code of successful calls
const OutcomeSuccess = "OK"

// Event is one pipeline invocation. It never contains symptom text or
// profile data, only sizes and outcome.
type Event struct {
	ID         string
	RequestID  string
	Endpoint   Endpoint
	Code       string
	HTTPStatus int
	Duration   time.Duration
	InputChars int
	IPAddress  string
	UserAgent  string
	Timestamp  time.Time
}

// Logger writes audit events to the structured log and, when a database is
// configured, to the pipeline_audit_logs table
type Logger struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewLogger creates a new audit logger. db may be nil.
func NewLogger(db *pgxpool.Pool, logger *zap.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: logger,
	}
}

var schema = []string{`
CREATE TABLE IF NOT EXISTS pipeline_audit_logs (
	id UUID PRIMARY KEY,
	request_id TEXT NOT NULL DEFAULT '',
	endpoint TEXT NOT NULL,
	code TEXT NOT NULL,
	http_status INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	input_chars INTEGER NOT NULL,
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	timestamp TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_pipeline_audit_logs_timestamp ON pipeline_audit_logs (timestamp DESC)`,
}

// EnsureSchema creates the audit table when it does not exist yet
func (l *Logger) EnsureSchema(ctx context.Context) error {
	if l.db == nil {
		return nil
	}
	for _, statement := range schema {
		if _, err := l.db.Exec(ctx, statement); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	return nil
}

// Persistent reports whether events are stored in the database
func (l *Logger) Persistent() bool {
	return l.db != nil
}

// Ping checks the audit database connection
func (l *Logger) Ping(ctx context.Context) error {
	if l.db == nil {
		return nil
	}
	return l.db.Ping(ctx)
}

// Log records an audit event
func (l *Logger) Log(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.logger.Info("Audit log entry",
		zap.String("audit_id", event.ID),
		zap.String("request_id", event.RequestID),
		zap.String("endpoint", string(event.Endpoint)),
		zap.String("code", event.Code),
		zap.Int("http_status", event.HTTPStatus),
		zap.Duration("duration", event.Duration),
		zap.Int("input_chars", event.InputChars),
		zap.Time("timestamp", event.Timestamp),
		zap.String("ip_address", event.IPAddress),
	)

	if l.db == nil {
		return nil
	}

	query := `
		INSERT INTO pipeline_audit_logs (
			id, request_id, endpoint, code, http_status,
			duration_ms, input_chars, ip_address, user_agent, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := l.db.Exec(ctx, query,
		event.ID,
		event.RequestID,
		string(event.Endpoint),
		event.Code,
		event.HTTPStatus,
		event.Duration.Milliseconds(),
		event.InputChars,
		event.IPAddress,
		event.UserAgent,
		event.Timestamp,
	)
	if err != nil {
		l.logger.Error("Failed to write audit log to database",
			zap.Error(err),
			zap.String("audit_id", event.ID),
			zap.String("endpoint", string(event.Endpoint)),
		)
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// Recent returns the latest events, newest first
func (l *Logger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if l.db == nil {
		return nil, nil
	}

	query := `
		SELECT id::text, request_id, endpoint, code, http_status,
		       duration_ms, input_chars, ip_address, user_agent, timestamp
		FROM pipeline_audit_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := l.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event      Event
			endpoint   string
			durationMS int64
		)
		err := rows.Scan(
			&event.ID,
			&event.RequestID,
			&endpoint,
			&event.Code,
			&event.HTTPStatus,
			&durationMS,
			&event.InputChars,
			&event.IPAddress,
			&event.UserAgent,
			&event.Timestamp,
		)
		if err != nil {
			l.logger.Error("Failed to scan audit log", zap.Error(err))
			continue
		}
		event.Endpoint = Endpoint(endpoint)
		event.Duration = time.Duration(durationMS) * time.Millisecond
		events = append(events, event)
	}

	return events, rows.Err()
}

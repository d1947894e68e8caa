package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.uber.org/zap"
)

func newTestState() (*LocalState, *MemoryStore) {
	store := NewMemoryStore()
	state := NewLocalState(store, zap.NewNop())
	state.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	return state, store
}

func TestLocalState_Profile(t *testing.T) {
	ctx := context.Background()
	state, _ := newTestState()

	profile, err := state.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	saved := model.UserProfile{Name: "Alex", Age: "34", Conditions: []string{"Asthma"}}
	require.NoError(t, state.SaveProfile(ctx, saved))

	profile, err = state.Profile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, saved, *profile)

	require.NoError(t, state.ClearProfile(ctx))
	profile, err = state.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestLocalState_HealthLog(t *testing.T) {
	ctx := context.Background()
	state, _ := newTestState()

	entries, err := state.HealthLog(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	first, err := state.AppendEntry(ctx, model.HealthLogEntry{
		Type:     model.EntryTypeSymptomAnalysis,
		Symptoms: "headache",
		Analysis: &model.Analysis{Recommendations: []string{"Rest"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC), first.Date)

	second, err := state.AppendEntry(ctx, model.HealthLogEntry{
		ID:            "fixed-id",
		Type:          model.EntryTypeMedicalReport,
		Symptoms:      "headache",
		ReportContent: "Report body",
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", second.ID)

	entries, err = state.HealthLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID, "entries keep insertion order")

	found, err := state.FindEntry(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "headache", found.Symptoms)

	latest, err := state.LatestEntry(ctx, model.EntryTypeSymptomAnalysis)
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)

	_, err = state.FindEntry(ctx, "nope")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	require.NoError(t, state.DeleteEntry(ctx, first.ID))
	assert.ErrorIs(t, state.DeleteEntry(ctx, first.ID), ErrEntryNotFound)

	entries, err = state.HealthLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fixed-id", entries[0].ID)

	require.NoError(t, state.ClearLog(ctx))
	entries, err = state.HealthLog(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalState_ReadsLegacyEntries(t *testing.T) {
	ctx := context.Background()
	state, store := newTestState()

	// entries written by the browser UI carry no type
	require.NoError(t, store.Set(ctx, KeyHealthLog, []byte(`[{
		"id": "1717000000000",
		"date": "2024-05-29T16:26:40.000Z",
		"symptoms": "cough",
		"analysis": {"conditions": [], "recommendations": [], "warnings": []},
		"source": "gemini-2.5-flash-preview-05-20"
	}]`)))

	entries, err := state.HealthLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1717000000000", entries[0].ID)
	assert.Empty(t, entries[0].Type)
	assert.Equal(t, 2024, entries[0].Date.Year())
}

func TestLocalState_Settings(t *testing.T) {
	ctx := context.Background()
	state, store := newTestState()

	settings, err := state.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAppSettings(), settings)

	require.NoError(t, store.Set(ctx, KeyAppSettings, []byte(`{"darkMode": true}`)))
	settings, err = state.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.DarkMode)
	assert.True(t, settings.Notifications, "missing fields keep their defaults")
	assert.Equal(t, "en", settings.Language)

	settings.Language = "hu"
	require.NoError(t, state.SaveSettings(ctx, settings))
	settings, err = state.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hu", settings.Language)
}

func TestLocalState_ClearAll(t *testing.T) {
	ctx := context.Background()
	state, store := newTestState()

	require.NoError(t, state.SaveProfile(ctx, model.UserProfile{Name: "Alex"}))
	_, err := state.AppendEntry(ctx, model.HealthLogEntry{Symptoms: "fever"})
	require.NoError(t, err)
	require.NoError(t, state.SaveSettings(ctx, model.AppSettings{Language: "de"}))

	require.NoError(t, state.ClearAll(ctx))

	for _, key := range []string{KeyUserProfile, KeyHealthLog, KeyAppSettings} {
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}
}

func TestLocalState_CorruptValue(t *testing.T) {
	ctx := context.Background()
	state, store := newTestState()
	require.NoError(t, store.Set(ctx, KeyUserProfile, []byte("{")))

	_, err := state.Profile(ctx)
	assert.Error(t, err)
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.uber.org/zap"
)

// Keys of the client-owned state
const (
	KeyUserProfile = "userProfile"
	KeyHealthLog   = "healthLog"
	KeyAppSettings = "appSettings"
)

// ErrEntryNotFound is returned when a health log entry id is unknown
var ErrEntryNotFound = errors.New("health log entry not found")

// LocalState is the typed view over a KeyValueStore holding the user's
// profile, health log and settings
type LocalState struct {
	store  KeyValueStore
	logger *zap.Logger
	now    func() time.Time
}

// NewLocalState creates a new LocalState over store
func NewLocalState(store KeyValueStore, logger *zap.Logger) *LocalState {
	return &LocalState{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Profile returns the saved profile, or nil when none was saved
func (s *LocalState) Profile(ctx context.Context) (*model.UserProfile, error) {
	var profile model.UserProfile
	found, err := s.load(ctx, KeyUserProfile, &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

// SaveProfile replaces the saved profile
func (s *LocalState) SaveProfile(ctx context.Context, profile model.UserProfile) error {
	return s.save(ctx, KeyUserProfile, profile)
}

// ClearProfile removes the saved profile
func (s *LocalState) ClearProfile(ctx context.Context) error {
	return s.remove(ctx, KeyUserProfile)
}

// HealthLog returns every entry in insertion order
func (s *LocalState) HealthLog(ctx context.Context) ([]model.HealthLogEntry, error) {
	entries := []model.HealthLogEntry{}
	if _, err := s.load(ctx, KeyHealthLog, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendEntry assigns an id and date when missing and appends the entry
func (s *LocalState) AppendEntry(ctx context.Context, entry model.HealthLogEntry) (model.HealthLogEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Date.IsZero() {
		entry.Date = s.now().UTC()
	}

	entries, err := s.HealthLog(ctx)
	if err != nil {
		return model.HealthLogEntry{}, err
	}
	entries = append(entries, entry)
	if err := s.save(ctx, KeyHealthLog, entries); err != nil {
		return model.HealthLogEntry{}, err
	}

	s.logger.Debug("health log entry added",
		zap.String("entry_id", entry.ID),
		zap.String("type", string(entry.Type)),
		zap.Int("entries", len(entries)),
	)
	return entry, nil
}

// FindEntry returns the entry with the given id
func (s *LocalState) FindEntry(ctx context.Context, id string) (model.HealthLogEntry, error) {
	entries, err := s.HealthLog(ctx)
	if err != nil {
		return model.HealthLogEntry{}, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return model.HealthLogEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}

// LatestEntry returns the most recent entry of the given type
func (s *LocalState) LatestEntry(ctx context.Context, entryType model.HealthLogEntryType) (model.HealthLogEntry, error) {
	entries, err := s.HealthLog(ctx)
	if err != nil {
		return model.HealthLogEntry{}, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Type == entryType {
			return entries[i], nil
		}
	}
	return model.HealthLogEntry{}, ErrEntryNotFound
}

// DeleteEntry removes one entry
func (s *LocalState) DeleteEntry(ctx context.Context, id string) error {
	entries, err := s.HealthLog(ctx)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, entry := range entries {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(entries) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return s.save(ctx, KeyHealthLog, kept)
}

// ClearLog empties the health log
func (s *LocalState) ClearLog(ctx context.Context) error {
	return s.save(ctx, KeyHealthLog, []model.HealthLogEntry{})
}

// Settings returns the saved settings layered over the defaults
func (s *LocalState) Settings(ctx context.Context) (model.AppSettings, error) {
	settings := model.DefaultAppSettings()
	if _, err := s.load(ctx, KeyAppSettings, &settings); err != nil {
		return model.AppSettings{}, err
	}
	return settings, nil
}

// SaveSettings replaces the saved settings
func (s *LocalState) SaveSettings(ctx context.Context, settings model.AppSettings) error {
	return s.save(ctx, KeyAppSettings, settings)
}

// ClearAll removes the profile, the health log and the settings
func (s *LocalState) ClearAll(ctx context.Context) error {
	for _, key := range []string{KeyUserProfile, KeyHealthLog, KeyAppSettings} {
		if err := s.remove(ctx, key); err != nil {
			return err
		}
	}
	s.logger.Info("local state cleared")
	return nil
}

func (s *LocalState) load(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("stored %s is not valid: %w", key, err)
	}
	return true, nil
}

func (s *LocalState) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *LocalState) remove(ctx context.Context, key string) error {
	if err := s.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

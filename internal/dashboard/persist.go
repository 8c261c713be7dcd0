package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gridScope/internal/model"
)

// StateStore persists the last known display values between runs.
type StateStore interface {
	Load(ctx context.Context) (map[string]Field, bool, error)
	Save(ctx context.Context, fields map[string]Field) error
}

// Restore seeds state from store. Fields already present are kept.
func Restore(ctx context.Context, state *State, store StateStore) error {
	if store == nil {
		return nil
	}
	fields, ok, err := store.Load(ctx)
	if err != nil || !ok {
		return err
	}
	state.Merge(fields)
	return nil
}

// FileStateStore stores display values in a local JSON file.
// Saves are serialized and each writes its own temp file before renaming over Path.
type FileStateStore struct {
	Path string

	mu sync.Mutex
}

type stateRecord struct {
	Fields    map[string]Field `json:"fields"`
	UpdatedAt string           `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (map[string]Field, bool, error) {
	if s == nil || s.Path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state: %w", err)
	}

	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("parse state: %w", err)
	}
	return rec.Fields, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, fields map[string]Field) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	rec := stateRecord{
		Fields:    fields,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create state tmp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod state tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state tmp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// ReadingSource returns the most recent successful readings for a contract.
// postgres.Store satisfies it.
type ReadingSource interface {
	LatestReadings(ctx context.Context, contract string) ([]model.MetricReading, time.Time, error)
}

// DBStateStore restores display values from stored snapshots.
// Saving is a no-op since the snapshot sink already records every reading.
type DBStateStore struct {
	Source   ReadingSource
	Contract string
}

func (s *DBStateStore) Load(ctx context.Context) (map[string]Field, bool, error) {
	if s == nil || s.Source == nil {
		return nil, false, nil
	}
	readings, at, err := s.Source.LatestReadings(ctx, s.Contract)
	if err != nil {
		return nil, false, fmt.Errorf("load latest readings: %w", err)
	}
	if len(readings) == 0 {
		return nil, false, nil
	}
	fields := make(map[string]Field, len(readings))
	for _, r := range readings {
		fields[r.Field] = Field{Value: r.Display, Raw: r.Raw, UpdatedAt: at}
	}
	return fields, true, nil
}

func (s *DBStateStore) Save(context.Context, map[string]Field) error { return nil }

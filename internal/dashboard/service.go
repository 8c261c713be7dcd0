package dashboard

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gridScope/internal/model"
	"gridScope/internal/storage"
)

// Service ties a Reader to the display State and an optional snapshot sink.
type Service struct {
	reader *Reader
	state  *State
	sink   storage.Storage
	store  StateStore
	logger *zap.Logger
}

func NewService(reader *Reader, state *State, sink storage.Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if state == nil {
		state = NewState()
	}
	return &Service{reader: reader, state: state, sink: sink, logger: logger}
}

// WithStateStore persists the display values after every refresh.
func (s *Service) WithStateStore(store StateStore) *Service {
	s.store = store
	return s
}

func (s *Service) State() *State { return s.state }

// Refresh reads the metrics once and applies every successful reading to the state.
// The returned error is the read error; sink failures are only logged.
func (s *Service) Refresh(ctx context.Context) (model.Snapshot, error) {
	snap, err := s.reader.Fetch(ctx)
	updated := s.state.Apply(snap)

	if s.sink != nil {
		if sinkErr := s.sink.PutSnapshot(ctx, snap); sinkErr != nil {
			s.logger.Warn("store snapshot failed", zap.Error(sinkErr))
		}
	}

	if s.store != nil && updated > 0 {
		if saveErr := s.store.Save(ctx, s.state.Fields()); saveErr != nil {
			s.logger.Warn("save dashboard state failed", zap.Error(saveErr))
		}
	}

	fields := []zap.Field{
		zap.String("contract", snap.Contract),
		zap.String("mode", snap.Mode),
		zap.Int("updated", updated),
		zap.Duration("elapsed", snap.FinishedAt.Sub(snap.StartedAt)),
	}
	if err != nil {
		s.logger.Warn("dashboard refresh incomplete", append(fields, zap.Error(err))...)
		return snap, err
	}
	s.logger.Info("dashboard refreshed", fields...)
	return snap, nil
}

// Watch refreshes immediately and then on every tick until ctx is done.
// onRefresh, if set, runs after each refresh attempt.
func (s *Service) Watch(ctx context.Context, interval time.Duration, onRefresh func(model.Snapshot, error)) error {
	if interval <= 0 {
		return errors.New("watch interval must be positive")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := s.Refresh(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if onRefresh != nil {
			onRefresh(snap, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

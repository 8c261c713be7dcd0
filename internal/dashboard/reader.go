package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gridScope/internal/model"
)

// Mode selects how the nine metric reads are scheduled.
type Mode string

const (
	// ModeSequential reads one metric at a time and stops at the first failure.
	ModeSequential Mode = "sequential"
	// ModeIndependent reads concurrently; each failure only affects its own field.
	ModeIndependent Mode = "independent"
)

const defaultConcurrency = 4

// ParseMode validates a read mode name.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeSequential:
		return ModeSequential, nil
	case ModeIndependent:
		return ModeIndependent, nil
	default:
		return "", fmt.Errorf("unknown read mode %q (want %s or %s)", value, ModeSequential, ModeIndependent)
	}
}

// MetricSource reads a raw getter value. contract.Client satisfies it.
type MetricSource interface {
	ReadMetric(ctx context.Context, name string) (*big.Int, error)
}

// ReaderConfig controls read scheduling.
type ReaderConfig struct {
	Contract    string
	Mode        Mode
	Concurrency int
}

// Reader fetches dashboard metrics. It has no display side effects.
type Reader struct {
	cfg     ReaderConfig
	source  MetricSource
	metrics []Metric
	logger  *zap.Logger
	now     func() time.Time
}

func NewReader(cfg ReaderConfig, source MetricSource, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSequential
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Reader{
		cfg:     cfg,
		source:  source,
		metrics: Metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch reads all metrics and returns the snapshot together with the read error, if any.
// The snapshot always lists every metric; unread ones are marked skipped.
func (r *Reader) Fetch(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{
		Contract:  r.cfg.Contract,
		Mode:      string(r.cfg.Mode),
		StartedAt: r.now().UTC(),
		Readings:  make([]model.MetricReading, len(r.metrics)),
	}
	for i, m := range r.metrics {
		snap.Readings[i] = model.MetricReading{Field: m.Field, Method: m.Method, Status: model.ReadingSkipped}
	}

	var err error
	switch r.cfg.Mode {
	case ModeIndependent:
		err = r.fetchIndependent(ctx, snap.Readings)
	default:
		err = r.fetchSequential(ctx, snap.Readings)
	}

	snap.FinishedAt = r.now().UTC()
	if err != nil {
		snap.Error = err.Error()
	}
	return snap, err
}

func (r *Reader) fetchSequential(ctx context.Context, readings []model.MetricReading) error {
	for i, m := range r.metrics {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.readOne(ctx, m, &readings[i]); err != nil {
			r.logger.Warn("dashboard read aborted",
				zap.String("field", m.Field),
				zap.Int("skipped", len(r.metrics)-i-1),
				zap.Error(err),
			)
			return fmt.Errorf("read %s: %w", m.Field, err)
		}
	}
	return nil
}

func (r *Reader) fetchIndependent(ctx context.Context, readings []model.MetricReading) error {
	errs := make([]error, len(r.metrics))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, m := range r.metrics {
		i, m := i, m
		g.Go(func() error {
			if err := r.readOne(ctx, m, &readings[i]); err != nil {
				r.logger.Warn("dashboard read failed", zap.String("field", m.Field), zap.Error(err))
				errs[i] = fmt.Errorf("read %s: %w", m.Field, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (r *Reader) readOne(ctx context.Context, m Metric, reading *model.MetricReading) error {
	value, err := r.source.ReadMetric(ctx, m.Method)
	if err != nil {
		reading.Status = model.ReadingFailed
		reading.Error = err.Error()
		return err
	}
	reading.Raw = value.String()
	reading.Display = m.Format(value)
	reading.Status = model.ReadingOK
	return nil
}

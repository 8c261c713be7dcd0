package storage

import (
	"context"
	"errors"

	"gridScope/internal/model"
)

// Storage is a sink for dashboard snapshots and submitted transactions.
type Storage interface {
	PutSnapshot(ctx context.Context, snap model.Snapshot) error
	PutTxRecord(ctx context.Context, rec model.TxRecord) error
}

// Multi fans writes out to several sinks. Every sink is attempted.
type Multi []Storage

func (m Multi) PutSnapshot(ctx context.Context, snap model.Snapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.PutSnapshot(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PutTxRecord(ctx context.Context, rec model.TxRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.PutTxRecord(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gridScope/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS dashboard_snapshots (
	id BIGSERIAL PRIMARY KEY,
	contract_address TEXT NOT NULL,
	read_mode TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS metric_readings (
	snapshot_id BIGINT NOT NULL REFERENCES dashboard_snapshots(id) ON DELETE CASCADE,
	contract_address TEXT NOT NULL,
	field TEXT NOT NULL,
	method TEXT NOT NULL,
	raw_value NUMERIC(78, 0),
	display_value TEXT,
	status TEXT NOT NULL,
	error TEXT,
	read_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (snapshot_id, field)
);

CREATE INDEX IF NOT EXISTS metric_readings_latest_idx
	ON metric_readings (contract_address, field, read_at DESC) WHERE status = 'ok';

CREATE TABLE IF NOT EXISTS contract_transactions (
	id BIGSERIAL PRIMARY KEY,
	contract_address TEXT NOT NULL,
	method TEXT NOT NULL,
	from_address TEXT,
	tx_hash TEXT,
	block_number BIGINT,
	gas_used BIGINT,
	status TEXT NOT NULL,
	error TEXT,
	submitted_at TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for snapshots and transactions.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutSnapshot stores a snapshot header and its readings in one transaction.
func (s *Store) PutSnapshot(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var snapshotID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO dashboard_snapshots (contract_address, read_mode, started_at, finished_at, error)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, snap.Contract, snap.Mode, snap.StartedAt, snap.FinishedAt, nullable(snap.Error)).Scan(&snapshotID)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if len(snap.Readings) > 0 {
		batch := &pgx.Batch{}
		for _, r := range snap.Readings {
			batch.Queue(`
				INSERT INTO metric_readings (
					snapshot_id, contract_address, field, method, raw_value, display_value, status, error, read_at
				) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
			`,
				snapshotID,
				snap.Contract,
				r.Field,
				r.Method,
				nullable(r.Raw),
				nullable(r.Display),
				string(r.Status),
				nullable(r.Error),
				snap.FinishedAt,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range snap.Readings {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert reading: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// PutTxRecord stores a submitted transaction outcome.
func (s *Store) PutTxRecord(ctx context.Context, rec model.TxRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contract_transactions (
			contract_address, method, from_address, tx_hash, block_number, gas_used, status, error, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rec.Contract,
		rec.Method,
		nullable(rec.From),
		nullable(rec.TxHash),
		int64(rec.BlockNumber),
		int64(rec.GasUsed),
		rec.Status,
		nullable(rec.Error),
		rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tx record: %w", err)
	}
	return nil
}

// LatestReadings returns the most recent successful reading per field and the time of the newest one.
func (s *Store) LatestReadings(ctx context.Context, contract string) ([]model.MetricReading, time.Time, error) {
	if contract == "" {
		return nil, time.Time{}, fmt.Errorf("contract address required")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (field) field, method, COALESCE(raw_value::text, ''), COALESCE(display_value, ''), read_at
		FROM metric_readings
		WHERE contract_address = $1 AND status = 'ok'
		ORDER BY field, read_at DESC
	`, contract)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var (
		readings []model.MetricReading
		latest   time.Time
	)
	for rows.Next() {
		var (
			r      model.MetricReading
			readAt time.Time
		)
		if err := rows.Scan(&r.Field, &r.Method, &r.Raw, &r.Display, &readAt); err != nil {
			return nil, time.Time{}, err
		}
		r.Status = model.ReadingOK
		readings = append(readings, r)
		if readAt.After(latest) {
			latest = readAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	return readings, latest, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

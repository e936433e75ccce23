package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartstore/internal/port"
)

const (
	getSnapshotSQL = `SELECT value FROM cart_snapshots WHERE key = $1`

	setSnapshotSQL = `
INSERT INTO cart_snapshots (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	q querier
}

func NewPostgres(pool *pgxpool.Pool) port.SnapshotRepository {
	return &postgresRepository{q: pool}
}

// NewPostgresWithTx writes through the caller's transaction.
func NewPostgresWithTx(tx pgx.Tx) port.SnapshotRepository {
	return &postgresRepository{q: tx}
}

func (r *postgresRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	var value string
	err := r.q.QueryRow(ctx, getSnapshotSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("q.QueryRow: %w", err)
	}

	return value, true, nil
}

func (r *postgresRepository) Set(ctx context.Context, key string, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if _, err := r.q.Exec(ctx, setSnapshotSQL, key, value); err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}

	return nil
}

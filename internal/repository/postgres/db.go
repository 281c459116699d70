package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgx used by the repositories, satisfied by both the
// pool and a transaction handle.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store aggregates the postgres repositories over one connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// RunTx runs fn inside a serializable read-write transaction. The inventory
// decrement and the allowlist claim both rely on this isolation level.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx DB) error) error {
	return s.RunTxOpts(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}, fn)
}

// RunTxOpts runs fn inside a transaction with explicit options, rolling
// back on error and committing otherwise.
func (s *Store) RunTxOpts(
	ctx context.Context,
	opts pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Events() *EventRepo     { return &EventRepo{pool: s.pool} }
func (s *Store) Tickets() *TicketRepo   { return &TicketRepo{pool: s.pool} }
func (s *Store) Profiles() *ProfileRepo { return &ProfileRepo{pool: s.pool} }
func (s *Store) CrewUsernames() *CrewUsernameRepo {
	return &CrewUsernameRepo{pool: s.pool}
}

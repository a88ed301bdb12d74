// Package postgres implements the rule, booking, resource, product and
// calendar-connection stores on top of pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"availability-engine/internal/app"
	"availability-engine/internal/engine"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	const op = "storage.postgres.New"

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("storage.postgres.Migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// notFound maps missing rows, and ids that are not even valid uuids, to
// app.ErrNotFound.
func notFound(err error) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == "22P02") {
		return app.ErrNotFound
	}
	return err
}

// GetScheduleConfig returns the stored policy of a resource.
func (s *Store) GetScheduleConfig(ctx context.Context, resourceID string) (engine.ScheduleConfig, error) {
	const op = "storage.postgres.GetScheduleConfig"

	var cfg engine.ScheduleConfig
	err := s.pool.QueryRow(ctx, `
		SELECT timezone, slot_duration_minutes, buffer_minutes, lookahead_days
		FROM resources WHERE id = $1
	`, resourceID).Scan(&cfg.Timezone, &cfg.SlotDurationMinutes, &cfg.BufferMinutes, &cfg.LookaheadDays)
	if err != nil {
		return engine.ScheduleConfig{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return cfg, nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*engine.Product, error) {
	const op = "storage.postgres.GetProduct"

	var (
		p        engine.Product
		duration *int32
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, resource_id, name, duration_minutes, is_active
		FROM products WHERE id = $1
	`, productID).Scan(&p.ID, &p.ResourceID, &p.Name, &duration, &p.IsActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	if duration != nil {
		p.DurationMinutes = int(*duration)
	}
	return &p, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"availability-engine/internal/engine"
)

const ruleColumns = `id::text, resource_id, kind, day_of_week, to_char(rule_date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), is_active, created_at, updated_at`

func scanRule(row pgx.Row) (engine.AvailabilityRule, error) {
	var (
		r    engine.AvailabilityRule
		kind string
		dow  *int16
		date *string
	)
	if err := row.Scan(&r.ID, &r.ResourceID, &kind, &dow, &date,
		&r.StartTime, &r.EndTime, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return engine.AvailabilityRule{}, err
	}
	r.Kind = engine.RuleKind(kind)
	if dow != nil {
		d := int(*dow)
		r.DayOfWeek = &d
	}
	if date != nil {
		d, err := engine.ParseDate(*date)
		if err != nil {
			return engine.AvailabilityRule{}, err
		}
		r.Date = &d
	}
	return r, nil
}

func (s *Store) queryRules(ctx context.Context, q string, args ...any) ([]engine.AvailabilityRule, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.AvailabilityRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListRules(ctx context.Context, resourceID string) ([]engine.AvailabilityRule, error) {
	const op = "storage.postgres.ListRules"

	rules, err := s.queryRules(ctx, `SELECT `+ruleColumns+`
		FROM availability_rules WHERE resource_id = $1
		ORDER BY created_at, id`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rules, nil
}

func (s *Store) ListActiveRules(ctx context.Context, resourceID string) ([]engine.AvailabilityRule, error) {
	const op = "storage.postgres.ListActiveRules"

	rules, err := s.queryRules(ctx, `SELECT `+ruleColumns+`
		FROM availability_rules WHERE resource_id = $1 AND is_active
		ORDER BY created_at, id`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rules, nil
}

type ruleParams struct {
	dow  *int16
	date *string
}

func paramsOf(r *engine.AvailabilityRule) ruleParams {
	var p ruleParams
	if r.DayOfWeek != nil {
		d := int16(*r.DayOfWeek)
		p.dow = &d
	}
	if r.Date != nil {
		d := r.Date.String()
		p.date = &d
	}
	return p
}

func (s *Store) CreateRule(ctx context.Context, r *engine.AvailabilityRule) error {
	const op = "storage.postgres.CreateRule"

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	p := paramsOf(r)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO availability_rules
			(id, resource_id, kind, day_of_week, rule_date, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, r.ID, r.ResourceID, string(r.Kind), p.dow, p.date, r.StartTime, r.EndTime, r.IsActive).
		Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%s: %w: %v", op, engine.ErrInvalidInput, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) UpdateRule(ctx context.Context, r *engine.AvailabilityRule) error {
	const op = "storage.postgres.UpdateRule"

	p := paramsOf(r)
	err := s.pool.QueryRow(ctx, `
		UPDATE availability_rules
		SET kind = $3, day_of_week = $4, rule_date = $5, start_time = $6, end_time = $7,
			is_active = $8, updated_at = now()
		WHERE id = $1 AND resource_id = $2
		RETURNING created_at, updated_at
	`, r.ID, r.ResourceID, string(r.Kind), p.dow, p.date, r.StartTime, r.EndTime, r.IsActive).
		Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%s: %w: %v", op, engine.ErrInvalidInput, err)
		}
		return fmt.Errorf("%s: %w", op, notFound(err))
	}
	return nil
}

// DeactivateRule soft-deletes a rule; it is kept for history.
func (s *Store) DeactivateRule(ctx context.Context, resourceID, ruleID string) error {
	const op = "storage.postgres.DeactivateRule"

	tag, err := s.pool.Exec(ctx, `
		UPDATE availability_rules SET is_active = false, updated_at = now()
		WHERE id = $1 AND resource_id = $2 AND is_active
	`, ruleID, resourceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, notFound(pgx.ErrNoRows))
	}
	return nil
}

// SeedDefaultRules inserts rules only when the resource has no active rule.
// Concurrent seeders are serialised by a transaction-scoped advisory lock.
func (s *Store) SeedDefaultRules(ctx context.Context, resourceID string, rules []engine.AvailabilityRule) (bool, error) {
	const op = "storage.postgres.SeedDefaultRules"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "rules:"+resourceID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var active int
	if err := tx.QueryRow(ctx, `
		SELECT count(*) FROM availability_rules WHERE resource_id = $1 AND is_active
	`, resourceID).Scan(&active); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if active > 0 {
		return false, nil
	}

	batch := &pgx.Batch{}
	for i := range rules {
		r := &rules[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		p := paramsOf(r)
		batch.Queue(`
			INSERT INTO availability_rules
				(id, resource_id, kind, day_of_week, rule_date, start_time, end_time, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, r.ID, resourceID, string(r.Kind), p.dow, p.date, r.StartTime, r.EndTime, r.IsActive)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	now := time.Now().UTC()
	for i := range rules {
		rules[i].CreatedAt, rules[i].UpdatedAt = now, now
	}
	return true, nil
}

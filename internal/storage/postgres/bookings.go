package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"availability-engine/internal/app"
	"availability-engine/internal/engine"
)

const bookingColumns = `id::text, resource_id, product_id, customer_email, start_at, end_at,
	status, source, title, description, created_at`

func scanBooking(row pgx.Row) (app.Booking, error) {
	var (
		b      app.Booking
		status string
	)
	err := row.Scan(&b.ID, &b.ResourceID, &b.ProductID, &b.CustomerEmail, &b.StartAt, &b.EndAt,
		&status, &b.Source, &b.Title, &b.Description, &b.CreatedAt)
	b.Status = app.BookingStatus(status)
	return b, err
}

// ListBusyIntervals returns confirmed bookings of resourceID intersecting [from, to).
func (s *Store) ListBusyIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]engine.BusyInterval, error) {
	const op = "storage.postgres.ListBusyIntervals"

	rows, err := s.pool.Query(ctx, `
		SELECT id::text, start_at, end_at
		FROM bookings
		WHERE resource_id = $1
			AND status = 'confirmed'
			AND start_at < $3
			AND end_at > $2
		ORDER BY start_at
	`, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []engine.BusyInterval
	for rows.Next() {
		var (
			id string
			b  engine.BusyInterval
		)
		if err := rows.Scan(&id, &b.Start, &b.End); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		b.SourceID = app.BookingSourceID(id)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// CreateBooking inserts a confirmed booking. The exclusion constraint on
// bookings is the last line of defence against double booking and surfaces as
// engine.ErrSlotTaken.
func (s *Store) CreateBooking(ctx context.Context, b *app.Booking) error {
	const op = "storage.postgres.CreateBooking"

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = app.BookingConfirmed
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO bookings
			(id, resource_id, product_id, customer_email, start_at, end_at, status, source, title, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, b.ID, b.ResourceID, b.ProductID, b.CustomerEmail, b.StartAt.UTC(), b.EndAt.UTC(),
		string(b.Status), b.Source, b.Title, b.Description).Scan(&b.CreatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return fmt.Errorf("%s: %w", op, engine.ErrSlotTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (app.Booking, error) {
	const op = "storage.postgres.GetBooking"

	b, err := scanBooking(s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		return app.Booking{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return b, nil
}

// ListBookings lists a resource's bookings, optionally limited to those
// intersecting [from, to). A nil bound is open.
func (s *Store) ListBookings(ctx context.Context, resourceID string, from, to *time.Time) ([]app.Booking, error) {
	const op = "storage.postgres.ListBookings"

	rows, err := s.pool.Query(ctx, `SELECT `+bookingColumns+`
		FROM bookings
		WHERE resource_id = $1
			AND ($2::timestamptz IS NULL OR end_at > $2)
			AND ($3::timestamptz IS NULL OR start_at < $3)
		ORDER BY start_at`, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []app.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Store) RescheduleBooking(ctx context.Context, id string, start, end time.Time) (app.Booking, error) {
	const op = "storage.postgres.RescheduleBooking"

	b, err := scanBooking(s.pool.QueryRow(ctx, `
		UPDATE bookings SET start_at = $2, end_at = $3
		WHERE id = $1 AND status = 'confirmed'
		RETURNING `+bookingColumns, id, start.UTC(), end.UTC()))
	if err != nil {
		if isExclusionViolation(err) {
			return app.Booking{}, fmt.Errorf("%s: %w", op, engine.ErrSlotTaken)
		}
		return app.Booking{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return b, nil
}

// CancelBooking marks a confirmed booking cancelled. Cancelling twice reports
// app.ErrNotFound.
func (s *Store) CancelBooking(ctx context.Context, id string) error {
	const op = "storage.postgres.CancelBooking"

	tag, err := s.pool.Exec(ctx, `
		UPDATE bookings SET status = 'cancelled' WHERE id = $1 AND status = 'confirmed'
	`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, app.ErrNotFound)
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"availability-engine/internal/engine"
	"availability-engine/internal/lock"
)

// gate re-evaluates a proposed interval against fresh rules and busy data.
// excludeSourceID lets a booking being moved ignore its own interval.
func (a *App) gate(ctx context.Context, resourceID string, start, end time.Time, excludeSourceID string) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start must be before end", engine.ErrInvalidInput)
	}
	cfg, loc, err := a.scheduleConfig(ctx, resourceID, "")
	if err != nil {
		return err
	}
	if err := a.checkLookahead(cfg, loc, engine.DateOf(start, loc)); err != nil {
		return err
	}

	rules, err := a.Rules.ListActiveRules(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	buffer := cfg.Buffer()
	busy, _, err := a.busyIntervals(ctx, resourceID, start.Add(-buffer), end.Add(buffer))
	if err != nil {
		return fmt.Errorf("bookings: %w", err)
	}

	return engine.CheckBookable(engine.BookingCheck{
		ResourceID:      resourceID,
		Start:           start,
		End:             end,
		Rules:           rules,
		Busy:            engine.PadBusy(busy, buffer),
		ExcludeSourceID: excludeSourceID,
		Now:             a.now(),
		Location:        loc,
	})
}

// CheckBooking is a dry run of the commit gate, without taking the lock.
// excludeBookingID may name a booking that is being moved.
func (a *App) CheckBooking(ctx context.Context, resourceID string, start, end time.Time, excludeBookingID string) error {
	const op = "app.CheckBooking"

	exclude := ""
	if excludeBookingID != "" {
		exclude = BookingSourceID(excludeBookingID)
	}
	if err := a.gate(ctx, resourceID, start, end, exclude); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (a *App) withResourceLock(ctx context.Context, resourceID string, fn func() error) error {
	release, err := lock.Acquire(ctx, a.Locker, lock.ResourceKey(resourceID), a.lockTTL(), a.lockWait())
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// CreateBooking commits a booking. The gate runs again while the resource lock
// is held, so a slot taken since it was listed yields engine.ErrSlotTaken.
func (a *App) CreateBooking(ctx context.Context, req BookingRequest) (Booking, error) {
	const op = "app.CreateBooking"

	if req.ResourceID == "" {
		return Booking{}, fmt.Errorf("%s: %w: resource id is required", op, engine.ErrInvalidInput)
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return Booking{}, fmt.Errorf("%s: %w: customer email is required", op, engine.ErrInvalidInput)
	}

	b := Booking{
		ResourceID:    req.ResourceID,
		ProductID:     req.ProductID,
		CustomerEmail: req.CustomerEmail,
		StartAt:       req.Start.UTC(),
		EndAt:         req.End.UTC(),
		Status:        BookingConfirmed,
		Source:        req.Source,
		Title:         req.Title,
		Description:   req.Description,
	}
	err := a.withResourceLock(ctx, req.ResourceID, func() error {
		if err := a.gate(ctx, req.ResourceID, req.Start, req.End, ""); err != nil {
			return err
		}
		return a.Bookings.CreateBooking(ctx, &b)
	})
	if err != nil {
		if errors.Is(err, engine.ErrSlotTaken) {
			a.log().Info("booking rejected, slot taken", "resource_id", req.ResourceID,
				"start", req.Start, "end", req.End)
		}
		return Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	a.log().Info("booking created", "booking_id", b.ID, "resource_id", b.ResourceID,
		"start", b.StartAt, "end", b.EndAt)
	return b, nil
}

// RescheduleBooking moves a confirmed booking, ignoring its own current interval.
func (a *App) RescheduleBooking(ctx context.Context, bookingID string, start, end time.Time) (Booking, error) {
	const op = "app.RescheduleBooking"

	existing, err := a.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, fmt.Errorf("%s: %w", op, err)
	}
	if existing.Status != BookingConfirmed {
		return Booking{}, fmt.Errorf("%s: booking %s is %s: %w", op, bookingID, existing.Status, ErrNotFound)
	}

	var moved Booking
	err = a.withResourceLock(ctx, existing.ResourceID, func() error {
		if err := a.gate(ctx, existing.ResourceID, start, end, existing.SourceID()); err != nil {
			return err
		}
		var err error
		moved, err = a.Bookings.RescheduleBooking(ctx, bookingID, start.UTC(), end.UTC())
		return err
	})
	if err != nil {
		return Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	a.log().Info("booking rescheduled", "booking_id", bookingID, "resource_id", existing.ResourceID,
		"start", moved.StartAt, "end", moved.EndAt)
	return moved, nil
}

func (a *App) CancelBooking(ctx context.Context, bookingID string) error {
	if err := a.Bookings.CancelBooking(ctx, bookingID); err != nil {
		return fmt.Errorf("app.CancelBooking: %w", err)
	}
	a.log().Info("booking cancelled", "booking_id", bookingID)
	return nil
}

func (a *App) ListBookings(ctx context.Context, resourceID string, from, to *time.Time) ([]Booking, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return nil, fmt.Errorf("app.ListBookings: %w: from must be before to", engine.ErrInvalidInput)
	}
	bookings, err := a.Bookings.ListBookings(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("app.ListBookings: %w", err)
	}
	return bookings, nil
}

package app

import (
	"context"
	"time"

	"availability-engine/internal/engine"
)

// RuleStore persists availability rules.
type RuleStore interface {
	ListRules(ctx context.Context, resourceID string) ([]engine.AvailabilityRule, error)
	ListActiveRules(ctx context.Context, resourceID string) ([]engine.AvailabilityRule, error)
	CreateRule(ctx context.Context, r *engine.AvailabilityRule) error
	UpdateRule(ctx context.Context, r *engine.AvailabilityRule) error
	DeactivateRule(ctx context.Context, resourceID, ruleID string) error
	// SeedDefaultRules stores rules only if the resource has no active rule
	// and reports whether it did.
	SeedDefaultRules(ctx context.Context, resourceID string, rules []engine.AvailabilityRule) (bool, error)
}

// BookingStore persists internal commitments.
type BookingStore interface {
	ListBusyIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]engine.BusyInterval, error)
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, resourceID string, from, to *time.Time) ([]Booking, error)
	RescheduleBooking(ctx context.Context, id string, start, end time.Time) (Booking, error)
	CancelBooking(ctx context.Context, id string) error
}

type ResourceStore interface {
	GetScheduleConfig(ctx context.Context, resourceID string) (engine.ScheduleConfig, error)
}

type ProductStore interface {
	GetProduct(ctx context.Context, productID string) (*engine.Product, error)
}

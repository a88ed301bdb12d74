package engine

import (
	"fmt"
	"time"
)

const DefaultSlotDurationMinutes = 60

// ScheduleConfig is a resource's scheduling policy. BufferMinutes and
// LookaheadDays are enforced by callers, not by GenerateSlots.
type ScheduleConfig struct {
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	BufferMinutes       int    `json:"buffer_minutes"`
	LookaheadDays       int    `json:"lookahead_days"`
	Timezone            string `json:"timezone"`
}

func (c ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, fmt.Errorf("%w: timezone is required", ErrInvalidInput)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidInput, c.Timezone, err)
	}
	return loc, nil
}

func (c ScheduleConfig) Buffer() time.Duration {
	if c.BufferMinutes <= 0 {
		return 0
	}
	return time.Duration(c.BufferMinutes) * time.Minute
}

// Product is a bookable offering that may carry its own duration.
type Product struct {
	ID              string `json:"id"`
	ResourceID      string `json:"resource_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	IsActive        bool   `json:"is_active"`
}

// EffectiveConfig returns base with the product's duration applied when the
// product is active and declares one. base itself is not modified.
func EffectiveConfig(base ScheduleConfig, product *Product) ScheduleConfig {
	eff := base
	if eff.SlotDurationMinutes <= 0 {
		eff.SlotDurationMinutes = DefaultSlotDurationMinutes
	}
	if product != nil && product.IsActive && product.DurationMinutes > 0 {
		eff.SlotDurationMinutes = product.DurationMinutes
	}
	return eff
}

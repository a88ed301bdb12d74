package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"availability-engine/internal/engine"
	"availability-engine/internal/external"
	"availability-engine/internal/logger"
)

// scheduleConfig resolves the effective policy of a resource for one request:
// stored config (or defaults), then the product duration override.
func (a *App) scheduleConfig(ctx context.Context, resourceID, productID string) (engine.ScheduleConfig, *time.Location, error) {
	base, err := a.Resources.GetScheduleConfig(ctx, resourceID)
	if errors.Is(err, ErrNotFound) {
		base = engine.ScheduleConfig{SlotDurationMinutes: engine.DefaultSlotDurationMinutes}
	} else if err != nil {
		return engine.ScheduleConfig{}, nil, err
	}
	if base.Timezone == "" {
		base.Timezone = a.defaultTimezone()
	}

	var product *engine.Product
	if productID != "" && a.Products != nil {
		p, err := a.Products.GetProduct(ctx, productID)
		switch {
		case errors.Is(err, ErrNotFound):
			a.log().Debug("product not found, using resource duration", "product_id", productID)
		case err != nil:
			return engine.ScheduleConfig{}, nil, err
		case p.ResourceID != "" && p.ResourceID != resourceID:
			a.log().Warn("product belongs to another resource", "product_id", productID, "resource_id", resourceID)
		default:
			product = p
		}
	}

	eff := engine.EffectiveConfig(base, product)
	loc, err := eff.Location()
	if err != nil {
		return engine.ScheduleConfig{}, nil, err
	}
	return eff, loc, nil
}

func (a *App) checkLookahead(cfg engine.ScheduleConfig, loc *time.Location, d engine.Date) error {
	if cfg.LookaheadDays <= 0 {
		return nil
	}
	last := engine.DateOf(a.now(), loc).AddDays(cfg.LookaheadDays)
	if last.Before(d) {
		return fmt.Errorf("%w: %s is after %s", ErrBeyondLookahead, d, last)
	}
	return nil
}

// externalBusy collects busy time from every connected calendar. It never
// fails: problems come back as a degraded result and are logged here.
func (a *App) externalBusy(ctx context.Context, resourceID string, from, to time.Time) external.Result {
	if a.Calendars == nil {
		return external.Result{}
	}
	if a.Options.ExternalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Options.ExternalTimeout)
		defer cancel()
	}

	var res external.Result
	sources, err := a.Calendars.Sources(ctx, resourceID)
	if err != nil {
		res = external.Degraded("calendar-connections", err)
	} else {
		res = external.Collect(ctx, sources, from, to)
	}

	for _, f := range res.Failures {
		a.log().Warn("external calendar unavailable, continuing without it",
			"resource_id", resourceID, "provider", f.Provider, logger.Err(f.Err))
	}
	if res.Dropped > 0 {
		a.log().Debug("dropped incomplete external events", "resource_id", resourceID, "count", res.Dropped)
	}
	return res
}

// busyIntervals merges internal bookings with external calendar events for
// [from, to). A failing booking store fails the whole call; a failing external
// calendar only degrades the result.
func (a *App) busyIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]engine.BusyInterval, external.Result, error) {
	internal, err := a.Bookings.ListBusyIntervals(ctx, resourceID, from, to)
	if err != nil {
		return nil, external.Result{}, err
	}
	ext := a.externalBusy(ctx, resourceID, from, to)
	busy := make([]engine.BusyInterval, 0, len(internal)+len(ext.Intervals))
	busy = append(busy, internal...)
	busy = append(busy, ext.Intervals...)
	return busy, ext, nil
}

// AvailableSlots lists every candidate slot of resourceID on date, each
// flagged available or not. productID may be empty.
func (a *App) AvailableSlots(ctx context.Context, resourceID string, date engine.Date, productID string) (SlotsResult, error) {
	const op = "app.AvailableSlots"

	if resourceID == "" {
		return SlotsResult{}, fmt.Errorf("%s: %w: resource id is required", op, engine.ErrInvalidInput)
	}
	if date.IsZero() {
		return SlotsResult{}, fmt.Errorf("%s: %w: date is required", op, engine.ErrInvalidInput)
	}

	cfg, loc, err := a.scheduleConfig(ctx, resourceID, productID)
	if err != nil {
		return SlotsResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := a.checkLookahead(cfg, loc, date); err != nil {
		return SlotsResult{}, fmt.Errorf("%s: %w", op, err)
	}

	rules, err := a.Rules.ListActiveRules(ctx, resourceID)
	if err != nil {
		return SlotsResult{}, fmt.Errorf("%s: rules: %w", op, err)
	}

	busy, ext, err := a.busyIntervals(ctx, resourceID, date.Start(loc), date.AddDays(1).Start(loc))
	if err != nil {
		return SlotsResult{}, fmt.Errorf("%s: bookings: %w", op, err)
	}

	slots, err := engine.GenerateSlots(engine.SlotRequest{
		Date:            date,
		ResourceID:      resourceID,
		DurationMinutes: cfg.SlotDurationMinutes,
		Rules:           rules,
		Busy:            engine.PadBusy(busy, cfg.Buffer()),
		Now:             a.now(),
		Location:        loc,
	})
	if err != nil {
		return SlotsResult{}, fmt.Errorf("%s: %w", op, err)
	}
	engine.SortSlots(slots)
	if a.Options.DedupSlots {
		slots = engine.DedupSlots(slots)
	}
	if slots == nil {
		slots = []engine.Slot{}
	}

	return SlotsResult{
		ResourceID: resourceID,
		Date:       date,
		Config:     cfg,
		Slots:      slots,
		Degraded:   ext.Status() == external.StatusDegraded,
		Warnings:   ext.Warnings(),
	}, nil
}

// ExternalBusy reports the busy time external calendars contribute on date.
func (a *App) ExternalBusy(ctx context.Context, resourceID string, date engine.Date) (external.Result, error) {
	_, loc, err := a.scheduleConfig(ctx, resourceID, "")
	if err != nil {
		return external.Result{}, fmt.Errorf("app.ExternalBusy: %w", err)
	}
	return a.externalBusy(ctx, resourceID, date.Start(loc), date.AddDays(1).Start(loc)), nil
}

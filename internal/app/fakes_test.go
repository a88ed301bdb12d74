package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"availability-engine/internal/engine"
	"availability-engine/internal/external"
	"availability-engine/internal/lock"
	"availability-engine/internal/logger"
)

const resourceID = "res-1"

var (
	// Sunday noon; monday is the next day.
	testNow = time.Date(2026, time.January, 25, 12, 0, 0, 0, time.UTC)
	monday  = engine.Date{Year: 2026, Month: time.January, Day: 26}
)

func at(d engine.Date, hour, min int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, 0, 0, time.UTC)
}

type fakeRules struct {
	mu    sync.Mutex
	rules []engine.AvailabilityRule
	seq   int
}

func (f *fakeRules) ListRules(_ context.Context, resourceID string) ([]engine.AvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []engine.AvailabilityRule
	for _, r := range f.rules {
		if r.ResourceID == resourceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRules) ListActiveRules(ctx context.Context, resourceID string) ([]engine.AvailabilityRule, error) {
	all, _ := f.ListRules(ctx, resourceID)
	var out []engine.AvailabilityRule
	for _, r := range all {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRules) CreateRule(_ context.Context, r *engine.AvailabilityRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	r.ID = fmt.Sprintf("rule-%d", f.seq)
	f.rules = append(f.rules, *r)
	return nil
}

func (f *fakeRules) UpdateRule(_ context.Context, r *engine.AvailabilityRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rules {
		if f.rules[i].ID == r.ID && f.rules[i].ResourceID == r.ResourceID {
			f.rules[i] = *r
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeRules) DeactivateRule(_ context.Context, resourceID, ruleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rules {
		if f.rules[i].ID == ruleID && f.rules[i].ResourceID == resourceID && f.rules[i].IsActive {
			f.rules[i].IsActive = false
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeRules) SeedDefaultRules(ctx context.Context, resourceID string, rules []engine.AvailabilityRule) (bool, error) {
	active, _ := f.ListActiveRules(ctx, resourceID)
	if len(active) > 0 {
		return false, nil
	}
	for i := range rules {
		_ = f.CreateRule(ctx, &rules[i])
	}
	return true, nil
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings []Booking
	seq      int
	err      error
}

func (f *fakeBookings) ListBusyIntervals(_ context.Context, resourceID string, from, to time.Time) ([]engine.BusyInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []engine.BusyInterval
	for _, b := range f.bookings {
		if b.ResourceID == resourceID && b.Status == BookingConfirmed && engine.Overlaps(b.StartAt, b.EndAt, from, to) {
			out = append(out, b.Busy())
		}
	}
	return out, nil
}

func (f *fakeBookings) CreateBooking(_ context.Context, b *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.seq++
	b.ID = fmt.Sprintf("bk-%d", f.seq)
	b.CreatedAt = testNow
	f.bookings = append(f.bookings, *b)
	return nil
}

func (f *fakeBookings) GetBooking(_ context.Context, id string) (Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return Booking{}, ErrNotFound
}

func (f *fakeBookings) ListBookings(_ context.Context, resourceID string, from, to *time.Time) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if b.ResourceID != resourceID {
			continue
		}
		if from != nil && !b.EndAt.After(*from) {
			continue
		}
		if to != nil && !b.StartAt.Before(*to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookings) RescheduleBooking(_ context.Context, id string, start, end time.Time) (Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == id && f.bookings[i].Status == BookingConfirmed {
			f.bookings[i].StartAt, f.bookings[i].EndAt = start, end
			return f.bookings[i], nil
		}
	}
	return Booking{}, ErrNotFound
}

func (f *fakeBookings) CancelBooking(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bookings {
		if f.bookings[i].ID == id && f.bookings[i].Status == BookingConfirmed {
			f.bookings[i].Status = BookingCancelled
			return nil
		}
	}
	return ErrNotFound
}

type fakeResources map[string]engine.ScheduleConfig

func (f fakeResources) GetScheduleConfig(_ context.Context, resourceID string) (engine.ScheduleConfig, error) {
	cfg, ok := f[resourceID]
	if !ok {
		return engine.ScheduleConfig{}, ErrNotFound
	}
	return cfg, nil
}

type fakeProducts map[string]engine.Product

func (f fakeProducts) GetProduct(_ context.Context, productID string) (*engine.Product, error) {
	p, ok := f[productID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

type stubSource struct {
	provider string
	events   []external.RawEvent
	err      error
}

func (s stubSource) Provider() string { return s.provider }

func (s stubSource) ListBusy(_ context.Context, _, _ time.Time) ([]external.RawEvent, error) {
	return s.events, s.err
}

type fakeCalendars struct {
	sources []external.Source
	err     error
}

func (f fakeCalendars) Sources(_ context.Context, _ string) ([]external.Source, error) {
	return f.sources, f.err
}

var errStoreDown = errors.New("connection refused")

type testEnv struct {
	app      *App
	rules    *fakeRules
	bookings *fakeBookings
}

// newTestEnv returns an App over empty fakes with a UTC resource that has
// the default weekday schedule.
func newTestEnv() *testEnv {
	rules := &fakeRules{}
	for _, r := range engine.DefaultWeeklyRules(resourceID) {
		_ = rules.CreateRule(context.Background(), &r)
	}
	bookings := &fakeBookings{}
	return &testEnv{
		rules:    rules,
		bookings: bookings,
		app: &App{
			Rules:     rules,
			Bookings:  bookings,
			Resources: fakeResources{resourceID: {SlotDurationMinutes: 60, Timezone: "UTC"}},
			Products:  fakeProducts{},
			Locker:    lock.NewLocal(),
			Log:       logger.Discard(),
			Now:       func() time.Time { return testNow },
		},
	}
}

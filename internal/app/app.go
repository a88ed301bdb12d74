package app

import (
	"log/slog"
	"time"

	"availability-engine/internal/external"
	"availability-engine/internal/lock"
	"availability-engine/internal/logger"
)

// App wires the scheduling engine to its collaborators. Rules, Bookings,
// Resources and Locker are required; Products and Calendars are optional.
type App struct {
	Rules     RuleStore
	Bookings  BookingStore
	Resources ResourceStore
	Products  ProductStore
	Calendars external.SourceProvider
	Locker    lock.Locker
	Log       *slog.Logger
	Now       func() time.Time
	Options   Options
}

type Options struct {
	DefaultTimezone string
	DedupSlots      bool
	LockTTL         time.Duration
	LockWait        time.Duration
	ExternalTimeout time.Duration
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) log() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return logger.Discard()
}

func (a *App) lockTTL() time.Duration {
	if a.Options.LockTTL > 0 {
		return a.Options.LockTTL
	}
	return 10 * time.Second
}

func (a *App) lockWait() time.Duration {
	if a.Options.LockWait > 0 {
		return a.Options.LockWait
	}
	return 2 * time.Second
}

func (a *App) defaultTimezone() string {
	if a.Options.DefaultTimezone != "" {
		return a.Options.DefaultTimezone
	}
	return "UTC"
}

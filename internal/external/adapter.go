// Package external turns busy time from third-party calendars into
// engine.BusyInterval values. Fetch failures never abort a query: they are
// reported back as a degraded Result.
package external

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"availability-engine/internal/engine"
)

// RawEvent is a provider event reduced to what overlap testing needs. A zero
// Start or End means the provider did not supply it.
type RawEvent struct {
	ID          string
	Start       time.Time
	End         time.Time
	Transparent bool
}

// Source lists busy events of one external calendar.
type Source interface {
	Provider() string
	ListBusy(ctx context.Context, from, to time.Time) ([]RawEvent, error)
}

// SourceProvider returns the external calendars connected to a resource.
type SourceProvider interface {
	Sources(ctx context.Context, resourceID string) ([]Source, error)
}

// SourceID namespaces an event id by provider, e.g. "google:abc123".
func SourceID(provider, id string) string {
	return provider + ":" + id
}

// Adapt converts events to busy intervals. Events missing a start or end,
// inverted events and transparent (free) events are dropped and counted.
func Adapt(provider string, events []RawEvent) ([]engine.BusyInterval, int) {
	out := make([]engine.BusyInterval, 0, len(events))
	dropped := 0
	for _, ev := range events {
		if ev.Start.IsZero() || ev.End.IsZero() || !ev.Start.Before(ev.End) || ev.Transparent {
			dropped++
			continue
		}
		out = append(out, engine.BusyInterval{
			Start:    ev.Start,
			End:      ev.End,
			SourceID: SourceID(provider, ev.ID),
		})
	}
	return out, dropped
}

type Status int

const (
	StatusOK Status = iota
	StatusDegraded
)

func (s Status) String() string {
	if s == StatusDegraded {
		return "degraded"
	}
	return "ok"
}

// Failure records one source that could not be read.
type Failure struct {
	Provider string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Provider, f.Err)
}

// Result is the merged busy set of every source. When Failures is non-empty
// Intervals only covers the sources that answered.
type Result struct {
	Intervals []engine.BusyInterval
	Dropped   int
	Failures  []Failure
}

func (r Result) Status() Status {
	if len(r.Failures) > 0 {
		return StatusDegraded
	}
	return StatusOK
}

// Warnings renders failures for callers to surface.
func (r Result) Warnings() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, "external calendar unavailable: "+f.Error())
	}
	return out
}

// Degraded wraps a lookup failure that prevented listing any source.
func Degraded(provider string, err error) Result {
	return Result{Failures: []Failure{{Provider: provider, Err: err}}}
}

const maxConcurrentFetches = 4

// Collect fetches all sources concurrently and merges their busy intervals.
// It never returns an error; per-source failures are recorded in the Result.
func Collect(ctx context.Context, sources []Source, from, to time.Time) Result {
	var (
		mu  sync.Mutex
		res Result
	)

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentFetches)
	for _, src := range sources {
		g.Go(func() error {
			events, err := src.ListBusy(ctx, from, to)
			if err == nil {
				err = ctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures = append(res.Failures, Failure{Provider: src.Provider(), Err: err})
				return nil
			}
			intervals, dropped := Adapt(src.Provider(), events)
			res.Intervals = append(res.Intervals, intervals...)
			res.Dropped += dropped
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(res.Intervals, func(i, j int) bool {
		return res.Intervals[i].Start.Before(res.Intervals[j].Start)
	})
	sort.Slice(res.Failures, func(i, j int) bool {
		return res.Failures[i].Provider < res.Failures[j].Provider
	})
	return res
}

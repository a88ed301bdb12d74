package engine

import (
	"fmt"
	"time"
)

func overlapsAny(start, end time.Time, busy []BusyInterval, excludeSourceID string) bool {
	for _, b := range busy {
		if excludeSourceID != "" && b.SourceID == excludeSourceID {
			continue
		}
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// HasSchedulingConflict reports whether [start, end) overlaps any busy
// interval other than the one whose SourceID equals excludeSourceID. busy must
// already be scoped to a single resource.
func HasSchedulingConflict(busy []BusyInterval, start, end time.Time, excludeSourceID string) bool {
	return overlapsAny(start, end, busy, excludeSourceID)
}

// BookingCheck is a proposed commitment together with the data needed to
// validate it.
type BookingCheck struct {
	ResourceID      string
	Start           time.Time
	End             time.Time
	Rules           []AvailabilityRule
	Busy            []BusyInterval
	ExcludeSourceID string
	Now             time.Time
	Location        *time.Location
}

// CheckBookable is the commit-time gate. It returns nil when the proposed
// interval lies fully inside an active rule window for its local date, ends
// after Now, and overlaps no busy interval. Otherwise it returns an error
// wrapping ErrInvalidInput, ErrOutsideAvailability, ErrInPast or ErrSlotTaken.
//
// The check is deterministic and has no side effects, so callers must run it
// again under their commit lock rather than trusting an earlier slot listing.
func CheckBookable(c BookingCheck) error {
	if c.Location == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if !c.Start.Before(c.End) {
		return fmt.Errorf("%w: start must be before end", ErrInvalidInput)
	}

	proposed := Interval{Start: c.Start, End: c.End}
	day := DateOf(c.Start, c.Location)
	covered := false
	for _, rule := range ApplicableRules(c.Rules, c.ResourceID, day) {
		window, err := rule.Window(day, c.Location)
		if err != nil {
			return err
		}
		if window.Contains(proposed) {
			covered = true
			break
		}
	}
	if !covered {
		return fmt.Errorf("%w: no active rule on %s covers %s-%s", ErrOutsideAvailability,
			day, c.Start.In(c.Location).Format("15:04"), c.End.In(c.Location).Format("15:04"))
	}

	if !c.End.After(c.Now) {
		return ErrInPast
	}

	if HasSchedulingConflict(c.Busy, c.Start, c.End, c.ExcludeSourceID) {
		return ErrSlotTaken
	}
	return nil
}

// IsBookable is the boolean form of CheckBookable.
func IsBookable(c BookingCheck) bool {
	return CheckBookable(c) == nil
}

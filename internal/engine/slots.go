package engine

import (
	"fmt"
	"slices"
	"time"
)

type Slot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Available       bool      `json:"available"`
}

// SlotRequest carries everything GenerateSlots needs. Location is the
// resource's business time zone; Now is supplied by the caller.
type SlotRequest struct {
	Date            Date
	ResourceID      string
	DurationMinutes int
	Rules           []AvailabilityRule
	Busy            []BusyInterval
	Now             time.Time
	Location        *time.Location
}

func (r SlotRequest) validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if r.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidInput, r.DurationMinutes)
	}
	if r.Location == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	return nil
}

// GenerateSlots walks every rule window that applies on req.Date and cuts it
// into back-to-back slots of the requested duration. A trailing remainder
// shorter than the duration is dropped. Slots that overlap a busy interval or
// have already ended are kept with Available=false.
//
// Output follows rule order; overlapping rules yield overlapping or duplicate
// slots. See SortSlots and DedupSlots.
func GenerateSlots(req SlotRequest) ([]Slot, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute

	var slots []Slot
	for _, rule := range ApplicableRules(req.Rules, req.ResourceID, req.Date) {
		window, err := rule.Window(req.Date, req.Location)
		if err != nil {
			return nil, err
		}
		for cursor := window.Start; !cursor.Add(duration).After(window.End); cursor = cursor.Add(duration) {
			end := cursor.Add(duration)
			conflict := overlapsAny(cursor, end, req.Busy, "")
			past := !end.After(req.Now)
			slots = append(slots, Slot{
				Start:           cursor,
				End:             end,
				DurationMinutes: req.DurationMinutes,
				Available:       !conflict && !past,
			})
		}
	}
	return slots, nil
}

// SortSlots orders slots by start, then end. Equal slots keep their relative order.
func SortSlots(slots []Slot) {
	slices.SortStableFunc(slots, func(a, b Slot) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})
}

// DedupSlots drops slots whose [start, end) already appeared earlier in the
// list. When duplicates disagree, the slot is available only if every copy is.
func DedupSlots(slots []Slot) []Slot {
	type key struct{ start, end int64 }
	seen := make(map[key]int, len(slots))
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		k := key{s.Start.UnixNano(), s.End.UnixNano()}
		if i, ok := seen[k]; ok {
			out[i].Available = out[i].Available && s.Available
			continue
		}
		seen[k] = len(out)
		out = append(out, s)
	}
	return out
}

// AvailableOnly filters to bookable slots.
func AvailableOnly(slots []Slot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

package engine

import (
	"fmt"
	"time"
)

type RuleKind string

const (
	RuleRecurring RuleKind = "recurring"
	RuleOneTime   RuleKind = "one_time"
)

// AvailabilityRule is a window of bookable time for a resource. Recurring rules
// repeat weekly on DayOfWeek (0 = Sunday); one-time rules apply to Date only.
type AvailabilityRule struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Kind       RuleKind  `json:"kind"`
	DayOfWeek  *int      `json:"day_of_week,omitempty"`
	Date       *Date     `json:"date,omitempty"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

func (r AvailabilityRule) Validate() error {
	switch r.Kind {
	case RuleRecurring:
		if r.DayOfWeek == nil || *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return fmt.Errorf("%w: recurring rule needs day_of_week 0-6", ErrInvalidInput)
		}
		if r.Date != nil {
			return fmt.Errorf("%w: recurring rule must not carry a date", ErrInvalidInput)
		}
	case RuleOneTime:
		if r.Date == nil || r.Date.IsZero() {
			return fmt.Errorf("%w: one_time rule needs a date", ErrInvalidInput)
		}
		if r.DayOfWeek != nil {
			return fmt.Errorf("%w: one_time rule must not carry day_of_week", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown rule kind %q", ErrInvalidInput, r.Kind)
	}
	_, _, err := r.bounds()
	return err
}

func (r AvailabilityRule) bounds() (TimeOfDay, TimeOfDay, error) {
	start, err := ParseTimeOfDay(r.StartTime)
	if err != nil {
		return TimeOfDay{}, TimeOfDay{}, err
	}
	end, err := ParseTimeOfDay(r.EndTime)
	if err != nil {
		return TimeOfDay{}, TimeOfDay{}, err
	}
	if !start.Before(end) {
		return TimeOfDay{}, TimeOfDay{}, fmt.Errorf("%w: rule %s: start_time must be before end_time", ErrInvalidInput, r.ID)
	}
	return start, end, nil
}

// AppliesOn reports whether the rule contributes a window on d. Inactive rules
// never apply.
func (r AvailabilityRule) AppliesOn(d Date) bool {
	if !r.IsActive {
		return false
	}
	switch r.Kind {
	case RuleRecurring:
		return r.DayOfWeek != nil && *r.DayOfWeek == int(d.Weekday())
	case RuleOneTime:
		return r.Date != nil && *r.Date == d
	}
	return false
}

// Window returns the rule's bounds on d as absolute instants in loc.
func (r AvailabilityRule) Window(d Date, loc *time.Location) (Interval, error) {
	start, end, err := r.bounds()
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: d.At(start, loc), End: d.At(end, loc)}, nil
}

// ApplicableRules selects the active rules of resourceID that apply on d, in
// input order. Recurring and one-time rules are both kept; neither takes
// precedence.
func ApplicableRules(rules []AvailabilityRule, resourceID string, d Date) []AvailabilityRule {
	var out []AvailabilityRule
	for _, r := range rules {
		if resourceID != "" && r.ResourceID != resourceID {
			continue
		}
		if r.AppliesOn(d) {
			out = append(out, r)
		}
	}
	return out
}

// Recurring builds an active weekly rule.
func Recurring(resourceID string, day time.Weekday, start, end string) AvailabilityRule {
	dow := int(day)
	return AvailabilityRule{
		ResourceID: resourceID,
		Kind:       RuleRecurring,
		DayOfWeek:  &dow,
		StartTime:  start,
		EndTime:    end,
		IsActive:   true,
	}
}

// OneTime builds an active single-date rule.
func OneTime(resourceID string, d Date, start, end string) AvailabilityRule {
	return AvailabilityRule{
		ResourceID: resourceID,
		Kind:       RuleOneTime,
		Date:       &d,
		StartTime:  start,
		EndTime:    end,
		IsActive:   true,
	}
}

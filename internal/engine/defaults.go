package engine

import "time"

const (
	DefaultDayStart = "09:00"
	DefaultDayEnd   = "17:00"
)

// DefaultWeeklyRules is the baseline schedule seeded for a resource with no
// active rules: Monday to Friday, 09:00-17:00.
func DefaultWeeklyRules(resourceID string) []AvailabilityRule {
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	rules := make([]AvailabilityRule, 0, len(days))
	for _, d := range days {
		rules = append(rules, Recurring(resourceID, d, DefaultDayStart, DefaultDayEnd))
	}
	return rules
}

// HasActiveRule reports whether any rule in rules is active.
func HasActiveRule(rules []AvailabilityRule) bool {
	for _, r := range rules {
		if r.IsActive {
			return true
		}
	}
	return false
}

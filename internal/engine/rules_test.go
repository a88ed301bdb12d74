package engine

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: TimeOfDay{9, 0}},
		{in: "17:30:00", want: TimeOfDay{17, 30}},
		{in: "23:59", want: TimeOfDay{23, 59}},
		{in: "24:00", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("ParseTimeOfDay(%q): expected ErrInvalidInput, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-26")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2026-01-26" {
		t.Fatalf("unexpected date %s", d)
	}
	if d.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %s", d.Weekday())
	}
	if d.AddDays(7).String() != "2026-02-02" {
		t.Fatalf("unexpected AddDays result %s", d.AddDays(7))
	}
	if _, err := ParseDate("26/01/2026"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*3600)
	instant := time.Date(2026, 1, 26, 20, 0, 0, 0, time.UTC)
	if got := DateOf(instant, tokyo).String(); got != "2026-01-27" {
		t.Fatalf("expected 2026-01-27 in UTC+9, got %s", got)
	}
	if got := DateOf(instant, time.UTC).String(); got != "2026-01-26" {
		t.Fatalf("expected 2026-01-26 in UTC, got %s", got)
	}
}

func TestRuleValidate(t *testing.T) {
	monday := Recurring("r1", time.Monday, "09:00", "17:00")
	if err := monday.Validate(); err != nil {
		t.Fatalf("valid recurring rule rejected: %v", err)
	}
	date, _ := ParseDate("2026-01-27")
	if err := OneTime("r1", date, "09:00", "12:00").Validate(); err != nil {
		t.Fatalf("valid one-time rule rejected: %v", err)
	}

	bad := []AvailabilityRule{
		Recurring("r1", time.Monday, "17:00", "09:00"),
		Recurring("r1", time.Monday, "09:00", "09:00"),
		{Kind: RuleRecurring, StartTime: "09:00", EndTime: "10:00"},
		{Kind: RuleOneTime, StartTime: "09:00", EndTime: "10:00"},
		{Kind: "weekly", StartTime: "09:00", EndTime: "10:00"},
	}
	seven := 7
	bad = append(bad, AvailabilityRule{Kind: RuleRecurring, DayOfWeek: &seven, StartTime: "09:00", EndTime: "10:00"})
	for i, r := range bad {
		if err := r.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestApplicableRules(t *testing.T) {
	tuesday, _ := ParseDate("2026-01-27")
	other, _ := ParseDate("2026-01-28")

	inactive := Recurring("r1", time.Tuesday, "13:00", "14:00")
	inactive.IsActive = false

	rules := []AvailabilityRule{
		Recurring("r1", time.Tuesday, "09:00", "12:00"),
		Recurring("r1", time.Wednesday, "09:00", "12:00"),
		OneTime("r1", tuesday, "14:00", "16:00"),
		OneTime("r1", other, "14:00", "16:00"),
		Recurring("r2", time.Tuesday, "09:00", "12:00"),
		inactive,
	}

	got := ApplicableRules(rules, "r1", tuesday)
	if len(got) != 2 {
		t.Fatalf("expected 2 applicable rules, got %d", len(got))
	}
	if got[0].Kind != RuleRecurring || got[1].Kind != RuleOneTime {
		t.Fatalf("expected recurring then one_time, got %s then %s", got[0].Kind, got[1].Kind)
	}
}

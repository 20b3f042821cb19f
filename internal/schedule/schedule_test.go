package schedule

import (
	"testing"
	"time"
)

var sundayService = Schedule{{
	Day:         "sunday",
	StartTime:   "09:00",
	EndTime:     "11:00",
	Title:       "Sunday Morning Worship",
	Description: "Join us live",
}}

// at builds a UTC instant on 2024-01-14 (a Sunday) plus day offsets.
func at(dayOffset, hour, min int) time.Time {
	return time.Date(2024, 1, 14+dayOffset, hour, min, 0, 0, time.UTC)
}

func TestIsActiveWindow(t *testing.T) {
	e := NewEvaluator("UTC")
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before window", at(0, 8, 59), false},
		{"start boundary inclusive", at(0, 9, 0), true},
		{"inside", at(0, 10, 30), true},
		{"end boundary inclusive", at(0, 11, 0), true},
		{"one minute past end", at(0, 11, 1), false},
		{"right day wrong time", at(0, 20, 0), false},
		{"wrong day right time", at(1, 10, 0), false},
	}
	for _, tc := range cases {
		if got := e.IsActive(sundayService, tc.now); got != tc.want {
			t.Errorf("%s: IsActive = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsActiveDayNameCaseInsensitive(t *testing.T) {
	e := NewEvaluator("UTC")
	sched := Schedule{{Day: "Sunday", StartTime: "09:00", EndTime: "11:00"}}
	if !e.IsActive(sched, at(0, 10, 0)) {
		t.Error("capitalized day name should match")
	}
}

func TestIsActiveUsesEvaluatorTimezone(t *testing.T) {
	// 15:30 UTC is 09:30 in Chicago (CST, UTC-6 in January)
	e := NewEvaluator("America/Chicago")
	if !e.IsActive(sundayService, at(0, 15, 30)) {
		t.Error("09:30 Chicago wall clock should be inside the window")
	}
	if e.IsActive(sundayService, at(0, 9, 30)) {
		t.Error("09:30 UTC is 03:30 Chicago, outside the window")
	}
}

func TestIsActiveSkipsMalformedTimes(t *testing.T) {
	e := NewEvaluator("UTC")
	sched := Schedule{
		{Day: "sunday", StartTime: "late", EndTime: "11:00"},
		{Day: "sunday", StartTime: "10:00", EndTime: "25:00"},
	}
	if e.IsActive(sched, at(0, 10, 30)) {
		t.Error("malformed slots must never match")
	}
}

func TestActiveSlotPrefersExactWindow(t *testing.T) {
	e := NewEvaluator("UTC")
	sched := Schedule{
		{Day: "sunday", StartTime: "06:00", EndTime: "07:00", Title: "Early"},
		{Day: "sunday", StartTime: "09:00", EndTime: "11:00", Title: "Main"},
	}
	slot := e.ActiveSlot(sched, at(0, 10, 0))
	if slot == nil || slot.Title != "Main" {
		t.Fatalf("slot = %+v, want Main", slot)
	}
}

func TestActiveSlotFallsBackToDayMatch(t *testing.T) {
	e := NewEvaluator("UTC")
	slot := e.ActiveSlot(sundayService, at(0, 20, 0))
	if slot == nil || slot.Title != "Sunday Morning Worship" {
		t.Fatalf("slot = %+v, want day-only fallback", slot)
	}
	if got := e.ActiveSlot(sundayService, at(1, 10, 0)); got != nil {
		t.Errorf("slot on Monday = %+v, want nil", got)
	}
}

func TestOverlappingSlotsFirstMatchWins(t *testing.T) {
	e := NewEvaluator("UTC")
	sched := Schedule{
		{Day: "sunday", StartTime: "09:00", EndTime: "12:00", Title: "First"},
		{Day: "sunday", StartTime: "10:00", EndTime: "11:00", Title: "Second"},
	}
	slot := e.ActiveSlot(sched, at(0, 10, 30))
	if slot == nil || slot.Title != "First" {
		t.Fatalf("slot = %+v, want First", slot)
	}
}

func TestNewEvaluatorUnknownTimezoneFallsBackToUTC(t *testing.T) {
	e := NewEvaluator("Not/AZone")
	if !e.IsActive(sundayService, at(0, 10, 0)) {
		t.Error("fallback evaluator should compare in UTC")
	}
}

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:05", 545, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"09:60", 0, false},
		{"9", 0, false},
		{"", 0, false},
		{":30", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseMinutes(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseMinutes(%q) = %d,%v want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

// Package schedule decides whether a broadcast window is active.
package schedule

import (
	"strconv"
	"strings"
	"time"
)

// Slot is one recurring weekly service window. Times are "HH:MM" wall
// clock. Timezone on the slot is informational; the evaluator compares
// wall-clock minutes in its own reference location; see Evaluator.
type Slot struct {
	Day         string `json:"day" mapstructure:"day"` // "sunday" ... "saturday"
	StartTime   string `json:"startTime" mapstructure:"startTime"`
	EndTime     string `json:"endTime" mapstructure:"endTime"`
	Timezone    string `json:"timezone" mapstructure:"timezone"`
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
}

// Schedule is an ordered list of slots. Order matters: when windows
// overlap, the first matching slot wins.
type Schedule []Slot

// Evaluator answers "is a service live right now" against one reference
// timezone. The instant is converted into that location once and all
// slots are compared by day name and minutes-of-day. Per-slot timezones
// are not applied; applying them would shift the published windows.
type Evaluator struct {
	loc *time.Location
}

// NewEvaluator builds an evaluator for the named timezone. An empty or
// unknown name falls back to UTC.
func NewEvaluator(timezone string) *Evaluator {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	return &Evaluator{loc: loc}
}

// IsActive reports whether now falls inside any slot's window. Both window
// ends are inclusive: the boundary minute still belongs to the broadcast.
func (e *Evaluator) IsActive(sched Schedule, now time.Time) bool {
	local := now.In(e.loc)
	day := dayName(local.Weekday())
	cur := local.Hour()*60 + local.Minute()

	for _, slot := range sched {
		if !strings.EqualFold(slot.Day, day) {
			continue
		}
		start, okS := parseMinutes(slot.StartTime)
		end, okE := parseMinutes(slot.EndTime)
		if !okS || !okE {
			continue
		}
		if cur >= start && cur <= end {
			return true
		}
	}
	return false
}

// ActiveSlot returns the slot whose metadata should caption a live entry.
// It prefers an exact window match, then falls back to the first slot on
// the current day: when IsActive said "live", a slot on today is close
// enough to label the broadcast even if the clock drifted past the window
// between the two calls. Returns nil when nothing matches.
func (e *Evaluator) ActiveSlot(sched Schedule, now time.Time) *Slot {
	local := now.In(e.loc)
	day := dayName(local.Weekday())
	cur := local.Hour()*60 + local.Minute()

	var dayMatch *Slot
	for i := range sched {
		slot := &sched[i]
		if !strings.EqualFold(slot.Day, day) {
			continue
		}
		if dayMatch == nil {
			dayMatch = slot
		}
		start, okS := parseMinutes(slot.StartTime)
		end, okE := parseMinutes(slot.EndTime)
		if okS && okE && cur >= start && cur <= end {
			return slot
		}
	}
	return dayMatch
}

func dayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// parseMinutes turns "HH:MM" into minutes since midnight.
func parseMinutes(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return 0, false
	}
	h, errH := strconv.Atoi(s[:i])
	m, errM := strconv.Atoi(s[i+1:])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// Day is a weekday within one scheduling week. Days are ordered Monday first.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Week lists every day in chronological order
var Week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Day) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// IsValid returns true for Monday..Sunday
func (d Day) IsValid() bool {
	return d >= Monday && d <= Sunday
}

// Next returns the following day and false when d is the last day of the week
func (d Day) Next() (Day, bool) {
	if d >= Sunday {
		return d, false
	}
	return d + 1, true
}

// IsWeekend returns true for Saturday and Sunday
func (d Day) IsWeekend() bool {
	return d == Saturday || d == Sunday
}

// ParseDay accepts full or three-letter English day names, case-insensitively
func ParseDay(s string) (Day, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, full := range dayNames {
		lower := strings.ToLower(full)
		if name == lower || name == lower[:3] {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// DayOf maps a calendar date to its weekday
func DayOf(t time.Time) Day {
	// time.Weekday starts on Sunday
	return Day((int(t.Weekday()) + 6) % 7)
}

// WeekStart returns midnight UTC on the Monday on or before t
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(DayOf(day)))
}

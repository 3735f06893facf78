package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day in minutes since midnight. 24:00 is
// valid and denotes the end of the day.
type ClockTime int

const halfHour ClockTime = 30

// ParseClockTime parses "HH:MM" (or "H:MM").
func ParseClockTime(s string) (ClockTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock time %q: missing ':'", s)
	}
	hour, errH := strconv.Atoi(h)
	mins, errM := strconv.Atoi(m)
	if errH != nil || errM != nil || hour < 0 || hour > 24 || mins < 0 || mins > 59 || (hour == 24 && mins != 0) {
		return 0, fmt.Errorf("clock time %q: out of range", s)
	}
	return ClockTime(hour*60 + mins), nil
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ClockRange is a half-open [Start, End) range of the day.
type ClockRange struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Contains reports whether t falls in [Start, End).
func (r ClockRange) Contains(t ClockTime) bool {
	return r.Start <= t && t < r.End
}

// Duration returns the length of the range.
func (r ClockRange) Duration() time.Duration {
	return time.Duration(r.End-r.Start) * time.Minute
}

// String renders "HH:MM-HH:MM".
func (r ClockRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// FormatDuration renders a duration as "N год M хв", dropping zero parts.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	hours, mins := total/60, total%60
	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%d год %d хв", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%d год", hours)
	default:
		return fmt.Sprintf("%d хв", mins)
	}
}

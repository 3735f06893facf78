package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

const hoursPerDay = 24

// OutageSlot is one flagged hour of the schedule.
type OutageSlot struct {
	Hour   int        `json:"hour"`
	Status StatusCode `json:"status"`
	// HourRange is the legend's full-hour range for Hour.
	HourRange ClockRange `json:"hour_range"`
	// Range is the part of the hour without power.
	Range ClockRange `json:"range"`
	Label string     `json:"label"`
}

// OutagePeriod is a run of hour-adjacent slots. Slots are ordered by hour.
type OutagePeriod struct {
	StartHour int          `json:"start_hour"`
	EndHour   int          `json:"end_hour"`
	Slots     []OutageSlot `json:"slots"`
}

// Range returns the displayed clock bounds. A leading "second" slot starts 30
// minutes into its hour and a trailing "first" slot ends 30 minutes early.
func (p OutagePeriod) Range() ClockRange {
	if len(p.Slots) == 0 {
		return ClockRange{}
	}
	first, last := p.Slots[0], p.Slots[len(p.Slots)-1]
	r := ClockRange{Start: first.HourRange.Start, End: last.HourRange.End}
	if first.Status == StatusSecond {
		r.Start += halfHour
	}
	if last.Status == StatusFirst {
		r.End -= halfHour
	}
	return r
}

// Label returns the description of the period's first slot.
func (p OutagePeriod) Label() string {
	if len(p.Slots) == 0 {
		return ""
	}
	return p.Slots[0].Label
}

// Status returns the status of the period's first slot.
func (p OutagePeriod) Status() StatusCode {
	if len(p.Slots) == 0 {
		return ""
	}
	return p.Slots[0].Status
}

// MergePolicy decides whether a slot may extend the period before it.
type MergePolicy int

const (
	// MergeBoundary treats half-hour slots as period bounds: a period never
	// extends past a "first" or "second" slot and a "second" slot always opens
	// a new period.
	MergeBoundary MergePolicy = iota
	// MergeContinuous lets a "second" slot open a period that absorbs the
	// following full hours. "first" still closes its period and "second" still
	// never joins a preceding one.
	MergeContinuous
)

// ParseMergePolicy maps a configuration value to a MergePolicy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "boundary":
		return MergeBoundary, nil
	case "continuous":
		return MergeContinuous, nil
	default:
		return 0, fmt.Errorf("unknown merge policy %q", s)
	}
}

func (p MergePolicy) String() string {
	if p == MergeContinuous {
		return "continuous"
	}
	return "boundary"
}

func (p MergePolicy) canExtend(last, next OutageSlot) bool {
	if next.Hour != last.Hour+1 {
		return false
	}
	if next.Status == StatusSecond || last.Status == StatusFirst {
		return false
	}
	if p == MergeBoundary && last.Status == StatusSecond {
		return false
	}
	return true
}

// ResolveDaySchedule finds the hourly schedule of group for the calendar day of
// now in loc, falling back to the document's reference day. The returned key is
// the day timestamp that matched.
func ResolveDaySchedule(doc *RawDocument, group string, now time.Time, loc *time.Location) (HourSchedule, int64, bool) {
	if !doc.HasSchedule() || group == "" {
		return nil, 0, false
	}
	today := DayStart(now, loc).Unix()
	if hours, ok := doc.Fact.QueueSchedules[dayKey(today)][group]; ok && hours != nil {
		return hours, today, true
	}
	ref := doc.Fact.ReferenceDayTimestamp
	if ref == 0 {
		return nil, 0, false
	}
	if hours, ok := doc.Fact.QueueSchedules[dayKey(ref)][group]; ok && hours != nil {
		return hours, ref, true
	}
	return nil, 0, false
}

// DayStart returns midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DecodeSlots emits one slot per flagged hour, in hour order.
func DecodeSlots(hours HourSchedule, legend map[string]LegendEntry, descriptions map[string]string) []OutageSlot {
	var slots []OutageSlot
	for hour := 1; hour <= hoursPerDay; hour++ {
		status := hours[strconv.Itoa(hour)]
		if !status.IsOutage() {
			continue
		}
		hourRange := legendRange(hour, legend)
		slots = append(slots, OutageSlot{
			Hour:      hour,
			Status:    status,
			HourRange: hourRange,
			Range:     slotRange(status, hourRange),
			Label:     describeStatus(status, descriptions),
		})
	}
	return slots
}

func legendRange(hour int, legend map[string]LegendEntry) ClockRange {
	fallback := ClockRange{Start: ClockTime((hour - 1) * 60), End: ClockTime(hour * 60)}
	entry, ok := legend[strconv.Itoa(hour)]
	if !ok {
		return fallback
	}
	start, errS := ParseClockTime(entry.ClockStart)
	end, errE := ParseClockTime(entry.ClockEnd)
	if errS != nil || errE != nil || end <= start {
		return fallback
	}
	return ClockRange{Start: start, End: end}
}

func slotRange(status StatusCode, hour ClockRange) ClockRange {
	switch status {
	case StatusFirst:
		return ClockRange{Start: hour.Start, End: hour.Start + halfHour}
	case StatusSecond:
		return ClockRange{Start: hour.Start + halfHour, End: hour.End}
	default:
		return hour
	}
}

func describeStatus(status StatusCode, descriptions map[string]string) string {
	if d := strings.TrimSpace(descriptions[string(status)]); d != "" {
		return d
	}
	return string(status)
}

// MergeSlots folds hour-ordered slots into periods under policy.
func MergeSlots(slots []OutageSlot, policy MergePolicy) []OutagePeriod {
	ordered := slices.Clone(slots)
	slices.SortStableFunc(ordered, func(a, b OutageSlot) int { return a.Hour - b.Hour })

	return fold(ordered, []OutagePeriod(nil), func(periods []OutagePeriod, s OutageSlot) []OutagePeriod {
		if n := len(periods); n > 0 {
			cur := periods[n-1]
			if policy.canExtend(cur.Slots[len(cur.Slots)-1], s) {
				periods[n-1] = OutagePeriod{
					StartHour: cur.StartHour,
					EndHour:   s.Hour,
					Slots:     append(slices.Clip(cur.Slots), s),
				}
				return periods
			}
		}
		return append(periods, OutagePeriod{StartHour: s.Hour, EndHour: s.Hour, Slots: []OutageSlot{s}})
	})
}

// DescribePeriods renders "HH:MM-HH:MM, HH:MM-HH:MM" in period order.
func DescribePeriods(periods []OutagePeriod) string {
	parts := make([]string, 0, len(periods))
	for _, p := range periods {
		parts = append(parts, p.Range().String())
	}
	return strings.Join(parts, ", ")
}

func fold[T, A any](xs []T, acc A, f func(A, T) A) A {
	for _, x := range xs {
		acc = f(acc, x)
	}
	return acc
}

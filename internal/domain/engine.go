package domain

import (
	"time"
)

// DaySchedule is the decoded schedule of one queue group for one day.
type DaySchedule struct {
	QueueGroup  string         `json:"queue_group"`
	Day         int64          `json:"day"`
	Slots       []OutageSlot   `json:"slots"`
	Periods     []OutagePeriod `json:"periods"`
	Description string         `json:"description"`
}

// Inspection is everything the engine derived from one document.
type Inspection struct {
	Result       OutageResult `json:"result"`
	Schedule     *DaySchedule `json:"schedule,omitempty"`
	AddressFound bool         `json:"address_found"`
}

// Engine turns raw documents into notification decisions for one address.
type Engine struct {
	addressKey string
	loc        *time.Location
	policy     EmergencyPolicy
	merge      MergePolicy
	tracker    *Tracker
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLocation sets the monitored timezone.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithEmergencyPolicy overrides FieldsPolicy.
func WithEmergencyPolicy(p EmergencyPolicy) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithMergePolicy overrides MergeBoundary.
func WithMergePolicy(p MergePolicy) EngineOption {
	return func(e *Engine) {
		e.merge = p
	}
}

// WithTrackerOptions configures the engine's tracker. The tracker always uses
// the engine's location for day boundaries.
func WithTrackerOptions(opts ...TrackerOption) EngineOption {
	return func(e *Engine) {
		e.tracker = NewTracker(opts...)
	}
}

// NewEngine builds an engine for the address stored under addressKey.
func NewEngine(addressKey string, opts ...EngineOption) *Engine {
	e := &Engine{
		addressKey: addressKey,
		loc:        time.UTC,
		policy:     FieldsPolicy{},
		merge:      MergeBoundary,
		tracker:    NewTracker(),
	}
	for _, opt := range opts {
		opt(e)
	}
	WithDayLocation(e.loc)(e.tracker)
	return e
}

// Location returns the monitored timezone.
func (e *Engine) Location() *time.Location { return e.loc }

// AddressKey returns the monitored address key.
func (e *Engine) AddressKey() string { return e.addressKey }

// Inspect derives the emergency and scheduled signals at now.
func (e *Engine) Inspect(doc *RawDocument, now time.Time) (Inspection, error) {
	if doc == nil || doc.Addresses == nil {
		return Inspection{}, &MissingDataError{Section: "data"}
	}
	status, found := doc.Address(e.addressKey)
	insp := Inspection{
		AddressFound: found,
		Result: OutageResult{
			UpdateTimestamp: doc.UpdateTimestamp,
			AddressMissing:  !found,
			ScheduleMissing: true,
		},
	}
	if !found {
		return insp, nil
	}

	insp.Result.Emergency = Classify(status, e.policy)
	insp.Schedule = e.decode(doc, status.QueueGroup(), now)
	if insp.Schedule != nil {
		insp.Result.ScheduleMissing = false
		insp.Result.Scheduled = SelectWindow(insp.Schedule.QueueGroup, insp.Schedule.Periods, ClockOf(now.In(e.loc)))
	}
	return insp, nil
}

func (e *Engine) decode(doc *RawDocument, group string, now time.Time) *DaySchedule {
	hours, day, ok := ResolveDaySchedule(doc, group, now, e.loc)
	if !ok {
		return nil
	}
	slots := DecodeSlots(hours, doc.Preset.ScheduleLegend, doc.Preset.StatusDescriptions)
	periods := MergeSlots(slots, e.merge)
	return &DaySchedule{
		QueueGroup:  group,
		Day:         day,
		Slots:       slots,
		Periods:     periods,
		Description: DescribePeriods(periods),
	}
}

// Evaluate runs one decision cycle against the stored state prev.
func (e *Engine) Evaluate(doc *RawDocument, now time.Time, prev *NotificationState) (Decision, error) {
	insp, err := e.Inspect(doc, now)
	if err != nil {
		return Decision{}, err
	}
	return e.tracker.Decide(insp.Result, prev, now), nil
}

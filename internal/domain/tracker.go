package domain

import (
	"time"
)

// DefaultResendWindow is how long an unchanged notification is suppressed.
const DefaultResendWindow = 10 * time.Minute

// NotificationKind records what the last decision cycle did.
type NotificationKind string

const (
	KindUpdate NotificationKind = "update"
	KindEnded  NotificationKind = "ended"
	KindNone   NotificationKind = "none"
)

// NotificationState is the persisted record carried between cycles.
type NotificationState struct {
	Fingerprint string           `json:"fingerprint"`
	SentAt      time.Time        `json:"sent_at"`
	Kind        NotificationKind `json:"kind"`
	Snapshot    *OutageResult    `json:"last_outage_snapshot,omitempty"`
	// MessageRef identifies the day's last delivered message so the delivery
	// channel can edit it in place.
	MessageRef string    `json:"message_ref,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ActionKind is the kind of outbound notification.
type ActionKind string

const (
	ActionEmergencyUpdate ActionKind = "emergency-update"
	ActionScheduledUpdate ActionKind = "scheduled-update"
	ActionCombinedUpdate  ActionKind = "combined-update"
	ActionOutageEnded     ActionKind = "outage-ended"
	ActionNone            ActionKind = "none"
)

// Sends reports whether the action requires a delivery.
func (k ActionKind) Sends() bool {
	return k != "" && k != ActionNone
}

// Reasons attached to ActionNone.
const (
	ReasonDuplicate = "duplicate"
	ReasonNoSignal  = "no-signal"
	// ReasonNoData means the document lacked the address or its schedule; the
	// stored state is kept until a complete document arrives.
	ReasonNoData = "no-data"
)

// Action is the structured notification request handed to delivery.
type Action struct {
	Kind        ActionKind   `json:"kind"`
	Fingerprint string       `json:"fingerprint"`
	Result      OutageResult `json:"result"`
	// EndedWindow is the scheduled outage that just finished.
	EndedWindow *OutageWindow `json:"ended_window,omitempty"`
	// EndedEmergency is the emergency that just disappeared.
	EndedEmergency *EmergencyOutage `json:"ended_emergency,omitempty"`
	// ReplaceRef names a previously delivered message to edit instead of
	// posting a new one. Empty means post.
	ReplaceRef string    `json:"replace_ref,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// Decision is the outcome of one cycle.
type Decision struct {
	Action Action            `json:"action"`
	State  NotificationState `json:"state"`
	// Persist is true when State differs from the stored record. For sending
	// actions it must only be written after a successful delivery.
	Persist bool `json:"persist"`
	// Reset is true when the stored record predated today and was discarded.
	Reset bool `json:"reset"`
}

// DeliveredState returns the state to persist after a delivery that produced
// ref. An empty ref keeps the previous reference.
func (d Decision) DeliveredState(ref string) NotificationState {
	s := d.State
	if ref != "" {
		s.MessageRef = ref
	}
	return s
}

// Tracker decides whether a cycle result warrants a notification.
type Tracker struct {
	resendWindow   time.Duration
	loc            *time.Location
	emergencyEnded bool
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithResendWindow overrides DefaultResendWindow.
func WithResendWindow(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.resendWindow = d
		}
	}
}

// WithDayLocation sets the timezone used for the stale-day reset.
func WithDayLocation(loc *time.Location) TrackerOption {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithEmergencyEndedNotices makes a disappearing emergency produce an
// outage-ended action.
func WithEmergencyEndedNotices(enabled bool) TrackerOption {
	return func(t *Tracker) {
		t.emergencyEnded = enabled
	}
}

// NewTracker builds a Tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{resendWindow: DefaultResendWindow, loc: time.UTC}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Decide compares result with the stored state prev (nil on cold start). It is
// a pure function of its inputs.
func (t *Tracker) Decide(result OutageResult, prev *NotificationState, now time.Time) Decision {
	reset := false
	if prev != nil && !prev.SentAt.IsZero() && prev.SentAt.Before(DayStart(now, t.loc)) {
		prev, reset = nil, true
	}
	var stored NotificationState
	if prev != nil {
		stored = *prev
	}

	fp := Fingerprint(result)
	snapshot := result
	action := Action{Fingerprint: fp, Result: result, DecidedAt: now}
	next := NotificationState{
		Fingerprint: fp,
		SentAt:      stored.SentAt,
		Snapshot:    &snapshot,
		MessageRef:  stored.MessageRef,
		UpdatedAt:   now,
	}

	if endedWindow, endedEmergency, ok := t.ended(stored, result, fp); ok {
		action.Kind = ActionOutageEnded
		action.EndedWindow = endedWindow
		action.EndedEmergency = endedEmergency
		next.Kind = KindEnded
		next.SentAt = now
		return Decision{Action: action, State: next, Persist: true, Reset: reset}
	}

	if result.Active() {
		if fp == stored.Fingerprint && !stored.SentAt.IsZero() && now.Sub(stored.SentAt) < t.resendWindow {
			action.Kind = ActionNone
			action.Reason = ReasonDuplicate
			next.Kind = stored.Kind
			return Decision{Action: action, State: next, Persist: true, Reset: reset}
		}
		action.Kind = updateKind(result)
		action.ReplaceRef = stored.MessageRef
		next.Kind = KindUpdate
		next.SentAt = now
		return Decision{Action: action, State: next, Persist: true, Reset: reset}
	}

	action.Kind = ActionNone
	next.Kind = KindNone
	if result.ScheduleMissing {
		action.Reason = ReasonNoData
		return Decision{Action: action, State: next, Persist: reset, Reset: reset}
	}
	action.Reason = ReasonNoSignal
	return Decision{Action: action, State: next, Persist: reset || fp != stored.Fingerprint, Reset: reset}
}

// ended detects the transition out of an outage since the stored snapshot.
func (t *Tracker) ended(stored NotificationState, result OutageResult, fp string) (*OutageWindow, *EmergencyOutage, bool) {
	prev := stored.Snapshot
	if prev == nil {
		return nil, nil, false
	}
	if stored.Kind == KindEnded && stored.Fingerprint == fp {
		return nil, nil, false
	}

	var window *OutageWindow
	if cur := prev.Current(); cur != nil && result.Current() == nil && !result.ScheduleMissing &&
		(result.Scheduled == nil || result.QueueGroup() == prev.QueueGroup()) {
		window = cur
	}
	var emergency *EmergencyOutage
	if t.emergencyEnded && prev.Emergency != nil && result.Emergency == nil && !result.AddressMissing {
		emergency = prev.Emergency
	}
	return window, emergency, window != nil || emergency != nil
}

func updateKind(r OutageResult) ActionKind {
	switch {
	case r.Emergency != nil && r.Scheduled.Active():
		return ActionCombinedUpdate
	case r.Emergency != nil:
		return ActionEmergencyUpdate
	default:
		return ActionScheduledUpdate
	}
}

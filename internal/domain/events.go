package domain

import "time"

// DecisionEvent is the published record of one decision cycle.
type DecisionEvent struct {
	ID          string       `json:"id"`
	CycleID     string       `json:"cycle_id"`
	AddressKey  string       `json:"address_key"`
	Action      ActionKind   `json:"action"`
	Reason      string       `json:"reason,omitempty"`
	Fingerprint string       `json:"fingerprint"`
	Result      OutageResult `json:"result"`
	// Delivered is true when a sending action reached at least one channel.
	Delivered  bool      `json:"delivered"`
	MessageRef string    `json:"message_ref,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// NewDecisionEvent describes d for addressKey.
func NewDecisionEvent(id, cycleID, addressKey string, d Decision, delivered bool, ref string) DecisionEvent {
	return DecisionEvent{
		ID:          id,
		CycleID:     cycleID,
		AddressKey:  addressKey,
		Action:      d.Action.Kind,
		Reason:      d.Action.Reason,
		Fingerprint: d.Action.Fingerprint,
		Result:      d.Action.Result,
		Delivered:   delivered,
		MessageRef:  ref,
		DecidedAt:   d.Action.DecidedAt,
	}
}

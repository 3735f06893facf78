package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, time.November, 9, 12, 10, 0, 0, time.UTC)
	event := domain.DecisionEvent{
		ID:          "evt-1",
		AddressKey:  "12",
		Action:      domain.ActionScheduledUpdate,
		Fingerprint: "Q:GPV3.1|C:11:00-14:00",
		Result: domain.OutageResult{
			Scheduled: &domain.ScheduledWindow{QueueGroup: "GPV3.1"},
		},
		Delivered: true,
		DecidedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("12"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "event_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("evt-1"), msg.Headers[0].Value)
	assert.Equal(t, "action", msg.Headers[1].Key)
	assert.Equal(t, []byte("scheduled-update"), msg.Headers[1].Value)
	assert.Equal(t, "decided_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var decoded domain.DecisionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "GPV3.1", decoded.Result.QueueGroup())
	assert.True(t, decoded.Delivered)
	assert.Contains(t, string(msg.Value), `"action":"scheduled-update"`)
}

func TestNewDecisionEvent(t *testing.T) {
	now := time.Date(2025, time.November, 9, 12, 10, 0, 0, time.UTC)
	d := domain.Decision{Action: domain.Action{
		Kind:        domain.ActionNone,
		Reason:      domain.ReasonDuplicate,
		Fingerprint: "fp",
		DecidedAt:   now,
	}}
	ev := domain.NewDecisionEvent("id", "cycle", "12", d, false, "")
	assert.Equal(t, domain.ActionNone, ev.Action)
	assert.Equal(t, domain.ReasonDuplicate, ev.Reason)
	assert.Equal(t, "cycle", ev.CycleID)
	assert.False(t, ev.Delivered)
	assert.True(t, now.Equal(ev.DecidedAt))
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_FieldsPolicy(t *testing.T) {
	tests := []struct {
		name   string
		status AddressStatus
		want   bool
	}{
		{name: "all empty", status: AddressStatus{}, want: false},
		{name: "whitespace only", status: AddressStatus{SubType: "  ", TypeCode: " "}, want: false},
		{name: "sub type", status: AddressStatus{SubType: "Аварійні ремонтні роботи"}, want: true},
		{name: "start only", status: AddressStatus{StartTimestamp: "10:00 09.11.2025"}, want: true},
		{name: "end only", status: AddressStatus{EndTimestamp: "14:00 09.11.2025"}, want: true},
		{name: "type only", status: AddressStatus{TypeCode: "2"}, want: true},
		{name: "queue group is not an emergency", status: AddressStatus{QueueGroupRef: []string{testQueueGroup}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.status, nil)
			assert.Equal(t, tt.want, got != nil)
		})
	}
}

func TestClassify_CopiesFieldsVerbatim(t *testing.T) {
	status := AddressStatus{
		SubType:        "Екстренні відключення",
		StartTimestamp: "10:05 09.11.2025",
		EndTimestamp:   "14:00 09.11.2025",
		TypeCode:       "2",
	}
	got := Classify(status, FieldsPolicy{})
	require.NotNil(t, got)
	assert.Equal(t, EmergencyOutage{
		SubType:        "Екстренні відключення",
		StartTimestamp: "10:05 09.11.2025",
		EndTimestamp:   "14:00 09.11.2025",
		TypeCode:       "2",
	}, *got)
}

func TestKeywordPolicy(t *testing.T) {
	policy := DefaultKeywordPolicy()
	tests := []struct {
		name    string
		subType string
		start   string
		want    bool
	}{
		{name: "emergency phrase", subType: "ЕКСТРЕННІ відключення", want: true},
		{name: "scheduled phrase", subType: "Стабілізаційне відключення", want: false},
		{name: "both phrases emergency wins", subType: "Аварійне, стабілізаційне", want: true},
		{name: "english scheduled", subType: "Outage According to schedule", want: false},
		{name: "unknown text falls back to fields", subType: "Ремонт мережі", want: true},
		{name: "timestamps without text", start: "10:00", want: true},
		{name: "nothing", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := AddressStatus{SubType: tt.subType, StartTimestamp: tt.start}
			assert.Equal(t, tt.want, policy.IsEmergency(s))
		})
	}
}

func TestTypeCodePolicy(t *testing.T) {
	policy := DefaultTypeCodePolicy()
	assert.True(t, policy.IsEmergency(AddressStatus{TypeCode: "1"}))
	assert.True(t, policy.IsEmergency(AddressStatus{TypeCode: " 2 ", SubType: "x"}))
	assert.False(t, policy.IsEmergency(AddressStatus{TypeCode: "3"}))
	assert.False(t, policy.IsEmergency(AddressStatus{SubType: "Екстренні"}))
	assert.False(t, policy.IsEmergency(AddressStatus{}))
}

func TestPolicyByName(t *testing.T) {
	for name, want := range map[string]string{
		"":          "fields",
		"fields":    "fields",
		"Keywords":  "keywords",
		"type-code": "type-code",
	} {
		p, err := PolicyByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, p.Name())
	}

	_, err := PolicyByName("regex")
	assert.Error(t, err)
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StatusCode is the provider's per-hour power status.
type StatusCode string

const (
	StatusYes    StatusCode = "yes"    // power present
	StatusNo     StatusCode = "no"     // no power for the whole hour
	StatusFirst  StatusCode = "first"  // no power during the first 30 minutes
	StatusSecond StatusCode = "second" // no power during the second 30 minutes
	StatusMaybe  StatusCode = "maybe"  // outage possible
)

// IsOutage reports whether the status denotes some degree of expected absence.
// Unknown codes carry no outage signal.
func (s StatusCode) IsOutage() bool {
	switch s {
	case StatusNo, StatusFirst, StatusSecond, StatusMaybe:
		return true
	default:
		return false
	}
}

// IsHalfHour reports whether the status marks only half of the hour.
func (s StatusCode) IsHalfHour() bool {
	return s == StatusFirst || s == StatusSecond
}

// FlexString decodes JSON strings, numbers, booleans and null into a string.
// The provider is not consistent about quoting type codes.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(string(data))
	return nil
}

// AddressStatus is the per-address record from the "data" section.
type AddressStatus struct {
	SubType        string     `json:"sub_type"`
	StartTimestamp string     `json:"start_date"`
	EndTimestamp   string     `json:"end_date"`
	TypeCode       FlexString `json:"type"`
	QueueGroupRef  []string   `json:"sub_type_reason"`
}

// QueueGroup returns the first referenced queue group, or "" when absent.
func (a AddressStatus) QueueGroup() string {
	for _, g := range a.QueueGroupRef {
		if g = strings.TrimSpace(g); g != "" {
			return g
		}
	}
	return ""
}

// LegendEntry describes the clock range of one hour index. On the wire it is a
// three-element array: [label, "HH:MM", "HH:MM"]. Null and short entries decode
// to the zero value, which the decoder replaces with the plain hour.
type LegendEntry struct {
	Label      string
	ClockStart string
	ClockEnd   string
}

func (l *LegendEntry) UnmarshalJSON(data []byte) error {
	*l = LegendEntry{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		var obj struct {
			Label      string `json:"label"`
			ClockStart string `json:"start"`
			ClockEnd   string `json:"end"`
		}
		if objErr := json.Unmarshal(data, &obj); objErr != nil {
			return fmt.Errorf("legend entry: %w", err)
		}
		*l = LegendEntry{Label: obj.Label, ClockStart: obj.ClockStart, ClockEnd: obj.ClockEnd}
		return nil
	}
	if len(parts) >= 3 {
		*l = LegendEntry{Label: parts[0], ClockStart: parts[1], ClockEnd: parts[2]}
	}
	return nil
}

func (l LegendEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{l.Label, l.ClockStart, l.ClockEnd})
}

// HourSchedule maps hour index ("1".."24") to status code.
type HourSchedule map[string]StatusCode

// Preset holds the schedule legend and the status descriptions.
type Preset struct {
	ScheduleLegend     map[string]LegendEntry `json:"time_zone"`
	StatusDescriptions map[string]string      `json:"time_type"`
}

// Fact holds the per-day, per-queue-group hourly schedules.
type Fact struct {
	// QueueSchedules is keyed by day timestamp, then queue group name.
	QueueSchedules        map[string]map[string]HourSchedule `json:"data"`
	ReferenceDayTimestamp int64                              `json:"today"`
}

// RawDocument is the provider's status document.
type RawDocument struct {
	Addresses       map[string]AddressStatus `json:"data"`
	Preset          *Preset                  `json:"preset,omitempty"`
	Fact            *Fact                    `json:"fact,omitempty"`
	UpdateTimestamp string                   `json:"updateTimestamp,omitempty"`
	// Warnings lists schedule sections that failed to decode and were dropped.
	Warnings []string `json:"-"`
}

// UnmarshalJSON decodes "data" strictly. A malformed "preset" or "fact" is
// dropped with a warning so the emergency signal still gets through.
func (d *RawDocument) UnmarshalJSON(data []byte) error {
	var wire struct {
		Addresses       map[string]AddressStatus `json:"data"`
		Preset          json.RawMessage          `json:"preset"`
		Fact            json.RawMessage          `json:"fact"`
		UpdateTimestamp FlexString               `json:"updateTimestamp"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*d = RawDocument{Addresses: wire.Addresses, UpdateTimestamp: string(wire.UpdateTimestamp)}
	d.Preset = decodeSection[Preset](d, "preset", wire.Preset)
	d.Fact = decodeSection[Fact](d, "fact", wire.Fact)
	return nil
}

func decodeSection[T any](d *RawDocument, name string, raw json.RawMessage) *T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		d.Warnings = append(d.Warnings, fmt.Sprintf("%s: %v", name, err))
		return nil
	}
	return &v
}

// ParseDocument decodes a raw status document. Structural validation (a missing
// "data" section) is left to the engine so that callers can still persist or
// inspect partially populated documents.
func ParseDocument(data []byte) (*RawDocument, error) {
	var doc RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse outage document: %w", err)
	}
	return &doc, nil
}

// Address returns the status for key and whether it was present.
func (d *RawDocument) Address(key string) (AddressStatus, bool) {
	if d == nil || d.Addresses == nil {
		return AddressStatus{}, false
	}
	st, ok := d.Addresses[key]
	return st, ok
}

// HasSchedule reports whether both schedule sections are present.
func (d *RawDocument) HasSchedule() bool {
	return d != nil && d.Preset != nil && d.Fact != nil && d.Fact.QueueSchedules != nil
}

func dayKey(ts int64) string {
	return strconv.FormatInt(ts, 10)
}

package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// EmergencyOutage is an unscheduled, provider-declared outage taken directly
// from the address record.
type EmergencyOutage struct {
	SubType        string `json:"sub_type"`
	StartTimestamp string `json:"start_date"`
	EndTimestamp   string `json:"end_date"`
	TypeCode       string `json:"type"`
}

// EmergencyPolicy decides whether an address record asserts an emergency.
type EmergencyPolicy interface {
	IsEmergency(status AddressStatus) bool
	Name() string
}

// Classify returns the emergency asserted by status under policy, or nil.
// A nil policy means FieldsPolicy.
func Classify(status AddressStatus, policy EmergencyPolicy) *EmergencyOutage {
	if policy == nil {
		policy = FieldsPolicy{}
	}
	if !policy.IsEmergency(status) {
		return nil
	}
	return &EmergencyOutage{
		SubType:        status.SubType,
		StartTimestamp: status.StartTimestamp,
		EndTimestamp:   status.EndTimestamp,
		TypeCode:       string(status.TypeCode),
	}
}

// FieldsPolicy asserts an emergency when any of sub_type, start_date, end_date
// or type is non-empty. This is the default.
type FieldsPolicy struct{}

func (FieldsPolicy) Name() string { return "fields" }

func (FieldsPolicy) IsEmergency(s AddressStatus) bool {
	return hasEmergencyFields(s)
}

func hasEmergencyFields(s AddressStatus) bool {
	return strings.TrimSpace(s.SubType) != "" ||
		strings.TrimSpace(s.StartTimestamp) != "" ||
		strings.TrimSpace(s.EndTimestamp) != "" ||
		strings.TrimSpace(string(s.TypeCode)) != ""
}

// KeywordPolicy refines FieldsPolicy by the sub_type text. Emergency phrases
// win over scheduled phrases; text matching neither falls back to the field
// rule. Matching is Unicode case-insensitive.
type KeywordPolicy struct {
	EmergencyPhrases []string `yaml:"emergency_phrases"`
	ScheduledPhrases []string `yaml:"scheduled_phrases"`
}

func (KeywordPolicy) Name() string { return "keywords" }

func (p KeywordPolicy) IsEmergency(s AddressStatus) bool {
	if !hasEmergencyFields(s) {
		return false
	}
	text := foldText(s.SubType)
	if text == "" {
		return true
	}
	if containsAny(text, p.EmergencyPhrases) {
		return true
	}
	return !containsAny(text, p.ScheduledPhrases)
}

// TypeCodePolicy asserts an emergency only for listed type codes, and only
// when the field rule also holds.
type TypeCodePolicy struct {
	Codes []string `yaml:"type_codes"`
}

func (TypeCodePolicy) Name() string { return "type-code" }

func (p TypeCodePolicy) IsEmergency(s AddressStatus) bool {
	if !hasEmergencyFields(s) {
		return false
	}
	code := strings.TrimSpace(string(s.TypeCode))
	for _, c := range p.Codes {
		if strings.TrimSpace(c) == code {
			return true
		}
	}
	return false
}

// DefaultKeywordPolicy carries the phrases seen on the provider's site.
func DefaultKeywordPolicy() KeywordPolicy {
	return KeywordPolicy{
		EmergencyPhrases: []string{"екстренн", "аварійн", "без застосування графіку"},
		ScheduledPhrases: []string{"стабілізаційн", "згідно графіку погодинних", "according to"},
	}
}

// DefaultTypeCodePolicy treats type codes 1 and 2 as emergencies.
func DefaultTypeCodePolicy() TypeCodePolicy {
	return TypeCodePolicy{Codes: []string{"1", "2"}}
}

// PolicyByName builds one of the built-in policies with default parameters.
func PolicyByName(name string) (EmergencyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fields":
		return FieldsPolicy{}, nil
	case "keywords":
		return DefaultKeywordPolicy(), nil
	case "type-code":
		return DefaultTypeCodePolicy(), nil
	default:
		return nil, fmt.Errorf("unknown emergency policy %q", name)
	}
}

// foldText normalizes and case-folds s. A Caser is stateful, so one is built per call.
func foldText(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

func containsAny(folded string, phrases []string) bool {
	for _, p := range phrases {
		if p = foldText(p); p != "" && strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

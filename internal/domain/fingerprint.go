package domain

import "strings"

// OutageResult combines both outage signals of one cycle. Either may be nil.
type OutageResult struct {
	Emergency *EmergencyOutage `json:"emergency_outage,omitempty"`
	Scheduled *ScheduledWindow `json:"scheduled_window,omitempty"`
	// UpdateTimestamp is the provider's "info updated" stamp, if any.
	UpdateTimestamp string `json:"update_timestamp,omitempty"`
	// AddressMissing and ScheduleMissing mark signals the document did not
	// carry at all, as opposed to signals that resolved to no outage.
	AddressMissing  bool `json:"address_missing,omitempty"`
	ScheduleMissing bool `json:"schedule_missing,omitempty"`
}

// Active reports whether any alertable signal is present.
func (r OutageResult) Active() bool {
	return r.Emergency != nil || r.Scheduled.Active()
}

// Current returns the scheduled outage in progress, or nil.
func (r OutageResult) Current() *OutageWindow {
	if r.Scheduled == nil {
		return nil
	}
	return r.Scheduled.Current
}

// Next returns the next scheduled outage, or nil.
func (r OutageResult) Next() *OutageWindow {
	if r.Scheduled == nil {
		return nil
	}
	return r.Scheduled.Next
}

// QueueGroup returns the scheduled window's queue group, or "".
func (r OutageResult) QueueGroup() string {
	if r.Scheduled == nil {
		return ""
	}
	return r.Scheduled.QueueGroup
}

// Fingerprint summarizes the timing-relevant facts of r: emergency start and
// end, queue group and the current/next clock ranges. Free text is excluded so
// relabeling never causes a resend.
func Fingerprint(r OutageResult) string {
	var parts []string
	if e := r.Emergency; e != nil {
		parts = append(parts, "E:"+e.StartTimestamp+"|"+e.EndTimestamp)
	}
	if s := r.Scheduled; s != nil {
		parts = append(parts, "Q:"+s.QueueGroup)
		if s.Current != nil {
			parts = append(parts, "C:"+s.Current.Range.String())
		}
		if s.Next != nil {
			parts = append(parts, "N:"+s.Next.Range.String())
		}
	}
	return strings.Join(parts, "|")
}

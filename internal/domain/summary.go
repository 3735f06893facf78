package domain

import "time"

// DailySummary is the morning overview of the monitored address.
type DailySummary struct {
	Date            time.Time        `json:"date"`
	Emergency       *EmergencyOutage `json:"emergency_outage,omitempty"`
	Schedule        *DaySchedule     `json:"schedule,omitempty"`
	UpdateTimestamp string           `json:"update_timestamp,omitempty"`
}

// HasOutage reports whether anything is planned or declared for the day.
func (s DailySummary) HasOutage() bool {
	return s.Emergency != nil || (s.Schedule != nil && len(s.Schedule.Periods) > 0)
}

// Summarize builds the daily summary for the calendar day of now.
func (e *Engine) Summarize(doc *RawDocument, now time.Time) (DailySummary, error) {
	insp, err := e.Inspect(doc, now)
	if err != nil {
		return DailySummary{}, err
	}
	return DailySummary{
		Date:            DayStart(now, e.loc),
		Emergency:       insp.Result.Emergency,
		Schedule:        insp.Schedule,
		UpdateTimestamp: doc.UpdateTimestamp,
	}, nil
}

package domain

// OutageWindow is a selected period reduced to what notifications need.
type OutageWindow struct {
	Range       ClockRange `json:"range"`
	TimeRange   string     `json:"time_range"`
	Description string     `json:"description"`
	Status      StatusCode `json:"status"`
}

// ScheduledWindow is the window selection for one queue group.
type ScheduledWindow struct {
	QueueGroup string        `json:"queue_group"`
	Current    *OutageWindow `json:"current_outage,omitempty"`
	Next       *OutageWindow `json:"next_outage,omitempty"`
}

// Active reports whether a current or upcoming outage was selected.
func (w *ScheduledWindow) Active() bool {
	return w != nil && (w.Current != nil || w.Next != nil)
}

// SelectWindow picks the period containing now and the earliest period that
// starts strictly after now. It returns nil when there are no periods.
func SelectWindow(queueGroup string, periods []OutagePeriod, now ClockTime) *ScheduledWindow {
	if len(periods) == 0 {
		return nil
	}
	w := &ScheduledWindow{QueueGroup: queueGroup}
	var nextStart ClockTime
	for _, p := range periods {
		r := p.Range()
		switch {
		case w.Current == nil && r.Contains(now):
			w.Current = windowOf(p)
		case r.Start > now && (w.Next == nil || r.Start < nextStart):
			w.Next = windowOf(p)
			nextStart = r.Start
		}
	}
	return w
}

func windowOf(p OutagePeriod) *OutageWindow {
	r := p.Range()
	return &OutageWindow{
		Range:       r,
		TimeRange:   r.String(),
		Description: p.Label(),
		Status:      p.Status(),
	}
}

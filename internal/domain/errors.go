package domain

import "errors"

// MissingDataError reports a document without the section the engine needs.
// The cycle must be abandoned without touching state or sending anything.
type MissingDataError struct {
	Section string
}

func (e *MissingDataError) Error() string {
	return "outage data missing: " + e.Section
}

// ErrCorruptState is wrapped by state stores when the stored record cannot be
// decoded. Callers treat it as a cold start.
var ErrCorruptState = errors.New("corrupt notification state")

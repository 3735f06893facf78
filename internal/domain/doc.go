// Package domain interprets a utility provider's outage status document and
// decides when the subscribers of one address must be notified.
//
// # Data Source
//
// The provider (DTEK regional shutdown pages) answers a form POST with a JSON
// document per street. The sections the engine uses are:
//
//	data                 address key → {sub_type, start_date, end_date, type, sub_type_reason}
//	preset.time_zone     hour index "1".."24" → [label, "HH:MM", "HH:MM"]
//	preset.time_type     status code → human label
//	fact.data            day timestamp → queue group → hour index → status code
//	fact.today           the provider's own "today" day timestamp
//
// Day timestamps are Unix seconds of local midnight in the provider's zone.
// The engine computes the key for the current day itself and falls back to
// fact.today when that key is absent.
//
// # Status Codes
//
//	yes     power present
//	no      no power for the whole hour
//	first   no power during the first 30 minutes of the hour
//	second  no power during the second 30 minutes of the hour
//	maybe   outage possible
//
// Any other value carries no outage signal.
//
// # Periods
//
// Flagged hours are merged into periods when hour-adjacent. Half-hour statuses
// mark sub-hour bounds: "first" always closes its period and "second" always
// opens a new one. Under [MergeBoundary] a "second" slot also stays alone;
// under [MergeContinuous] it absorbs the following full hours. The displayed
// start of a period led by "second" is 30 minutes after its hour start and the
// displayed end of a period closed by "first" is 30 minutes before its hour end.
//
// # Emergencies
//
// The address record's free-text and timestamp fields announce unscheduled
// outages independently of the hourly grid. By default any non-empty field is
// an emergency ([FieldsPolicy]). The provider's wording is inconsistent, so
// text-based refinements are opt-in policies ([KeywordPolicy], [TypeCodePolicy]).
//
// # Deduplication
//
// Each cycle produces a fingerprint from timing fields only (emergency start
// and end, queue group, current and next clock ranges). A notification whose
// fingerprint matches the stored one is suppressed for [DefaultResendWindow].
// Leaving a scheduled outage produces exactly one outage-ended action. Stored
// state from an earlier calendar day is discarded.
package domain

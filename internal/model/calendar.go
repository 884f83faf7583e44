// Package model defines data structures for the scheduling assistant.
package model

import "time"

// EventDateTime is one endpoint of a calendar event bound, mirroring the
// Google Calendar wire shape: exactly one of DateTime (a timed bound) or
// Date (an all-day bound, end date exclusive) is set.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"` // RFC 3339 instant
	Date     string `json:"date,omitempty"`     // YYYY-MM-DD calendar date
	TimeZone string `json:"timeZone,omitempty"`
}

// IsZero reports whether neither bound kind is present.
func (d EventDateTime) IsZero() bool {
	return d.DateTime == "" && d.Date == ""
}

// CalendarEvent is an entry fetched from the external calendar. It is
// never mutated locally; each conflict check re-fetches fresh copies.
type CalendarEvent struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	Start       EventDateTime `json:"start"`
	End         EventDateTime `json:"end"`
}

// IsAllDay reports whether the event carries a date-only bound.
func (e *CalendarEvent) IsAllDay() bool {
	return e.Start.Date != "" && e.Start.DateTime == ""
}

// EventWindow is an absolute start/end instant pair. Start is always
// strictly before End; windows are immutable once built.
type EventWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the window length.
func (w EventWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// CandidateSlot is a free window offered to the user, rendered in the
// 12-hour display form the chat UI shows and later matches replies against.
type CandidateSlot struct {
	Display string      `json:"display"`
	Window  EventWindow `json:"window"`
}

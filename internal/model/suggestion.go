package model

// EventSuggestion is the record the conversation negotiates over. It is
// created from parser output or quick-add input, mutated turn by turn as
// the user picks alternate times, and replaced once confirmed.
type EventSuggestion struct {
	Title          string          `json:"title"`
	Date           string          `json:"date"` // YYYY-MM-DD
	Time           string          `json:"time"` // 24-hour HH:MM
	Location       string          `json:"location,omitempty"`
	Description    string          `json:"description,omitempty"`
	Duration       int             `json:"duration,omitempty"` // minutes
	TimeZone       string          `json:"time_zone,omitempty"`
	IsConfirmed    bool            `json:"is_confirmed"`
	Conflicts      []CalendarEvent `json:"conflicts,omitempty"`
	SuggestedSlots []CandidateSlot `json:"suggested_slots,omitempty"`
}

// RescheduleKind says which event a pending reschedule is waiting on.
type RescheduleKind string

const (
	// RescheduleNew means the user is supplying a replacement time for a
	// brand-new event that conflicted.
	RescheduleNew RescheduleKind = "new_event"
	// RescheduleExisting means the user is moving the conflicting calendar
	// entry out of the way instead.
	RescheduleExisting RescheduleKind = "existing_event"
)

// PendingReschedule is the conversation-scoped negotiation state. It is an
// explicit value passed into and returned from each chat turn; it is not
// inferred from message history. A nil pending value means Idle.
type PendingReschedule struct {
	Kind RescheduleKind `json:"kind"`

	// Suggestion is the new event being placed (RescheduleNew).
	Suggestion *EventSuggestion `json:"suggestion,omitempty"`

	// ConflictID and Existing snapshot the calendar entry being moved
	// (RescheduleExisting).
	ConflictID string         `json:"conflict_id,omitempty"`
	Existing   *CalendarEvent `json:"existing,omitempty"`
}

// DateHint returns the calendar date the pending action is anchored on: the
// original event's date, against which a bare replacement time is resolved.
func (p *PendingReschedule) DateHint() string {
	switch p.Kind {
	case RescheduleNew:
		if p.Suggestion != nil {
			return p.Suggestion.Date
		}
	case RescheduleExisting:
		if p.Existing != nil {
			if p.Existing.Start.Date != "" {
				return p.Existing.Start.Date
			}
			if len(p.Existing.Start.DateTime) >= 10 {
				return p.Existing.Start.DateTime[:10]
			}
		}
	}
	return ""
}

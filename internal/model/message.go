package model

import "time"

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation's durable log.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	TenantID       string `json:"tenant_id"`

	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Suggestion is attached to assistant messages that carry a structured
	// event for the user to confirm, decline, or reschedule.
	Suggestion *EventSuggestion `json:"suggestion,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Sequence is the JetStream stream sequence, populated on read.
	Sequence uint64 `json:"sequence,omitempty"`
}

// Choice values for replying to a surfaced conflict.
const (
	ChoiceKeepExisting       = "keep"
	ChoiceRescheduleNew      = "reschedule_new"
	ChoiceRescheduleExisting = "reschedule_existing"
)

// ChatTurnRequest is one user turn. Pending carries the reschedule state
// returned by the previous turn, if any; the server holds no turn state of
// its own. Choice is set instead of Content when the user answers a
// conflict prompt, with Suggestion/Conflict giving the events it refers to.
type ChatTurnRequest struct {
	Content    string             `json:"content,omitempty"`
	TimeZone   string             `json:"time_zone,omitempty"`
	Pending    *PendingReschedule `json:"pending,omitempty"`
	Choice     string             `json:"choice,omitempty"`
	Suggestion *EventSuggestion   `json:"suggestion,omitempty"`
	Conflict   *CalendarEvent     `json:"conflict,omitempty"`
}

// ChatTurnResponse is the assistant's reply for one turn.
type ChatTurnResponse struct {
	Message              *Message           `json:"message"`
	Suggestion           *EventSuggestion   `json:"suggestion,omitempty"`
	Pending              *PendingReschedule `json:"pending,omitempty"`
	RequiresConfirmation bool               `json:"requires_confirmation"`
}

// ListMessagesResponse is the response for listing conversation history.
type ListMessagesResponse struct {
	Messages     []Message `json:"messages"`
	HasMore      bool      `json:"has_more"`
	LastSequence uint64    `json:"last_sequence"`
}

// ScheduleRequest asks the scheduler to place a suggestion on the calendar.
type ScheduleRequest struct {
	Event *EventSuggestion `json:"event"`
}

// ScheduleConflictResponse is returned with HTTP 409 when the requested
// window overlaps existing calendar entries.
type ScheduleConflictResponse struct {
	Error          string          `json:"error"`
	Conflicts      []CalendarEvent `json:"conflicts"`
	SuggestedSlots []CandidateSlot `json:"suggested_slots"`
}

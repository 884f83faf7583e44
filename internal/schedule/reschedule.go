package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/phamrachel17/plan-pal/internal/model"
)

// timePhrasePattern accepts bare clock replies like "3pm", "2:30 PM",
// "14:30", or "7 am". Anything wordier falls through to the NL parser.
var timePhrasePattern = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?\s*$`)

// ParseTimePhrase interprets a message that consists only of a time,
// returning it in 24-hour HH:MM form. Without an am/pm marker the hour is
// read as a 24-hour value.
func ParseTimePhrase(text string) (string, bool) {
	m := timePhrasePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return "", false
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// Resolution is the outcome of applying a replacement time to a pending
// reschedule: the rebuilt candidate window and whatever still conflicts
// with it.
type Resolution struct {
	Date      string
	Clock     string
	Window    model.EventWindow
	Conflicts []model.CalendarEvent
}

// Clean reports whether the replacement time fits without conflicts.
func (r *Resolution) Clean() bool {
	return len(r.Conflicts) == 0
}

// ResolvePending combines a replacement clock time with the date carried in
// the pending context (or an explicit override) and re-checks the resulting
// window against the day's events. When an existing event is being moved,
// its own entry is excluded from the check so it cannot conflict with
// itself.
func ResolvePending(pending *model.PendingReschedule, date, clock string, existing []model.CalendarEvent, loc *time.Location) (*Resolution, error) {
	if pending == nil {
		return nil, &ValidationError{Field: "pending", Value: "", Reason: "no reschedule in progress"}
	}
	if date == "" {
		date = pending.DateHint()
	}
	if date == "" {
		return nil, &ValidationError{Field: "date", Value: "", Reason: "pending reschedule carries no date"}
	}

	window, err := BuildWindow(date, clock, pendingDurationMinutes(pending, loc), loc)
	if err != nil {
		return nil, err
	}

	candidates := existing
	if pending.Kind == model.RescheduleExisting && pending.ConflictID != "" {
		candidates = excludeEvent(existing, pending.ConflictID)
	}

	return &Resolution{
		Date:      date,
		Clock:     clock,
		Window:    window,
		Conflicts: FindConflicts(window, candidates, loc),
	}, nil
}

func pendingDurationMinutes(pending *model.PendingReschedule, loc *time.Location) int {
	switch pending.Kind {
	case model.RescheduleNew:
		if pending.Suggestion != nil && pending.Suggestion.Duration > 0 {
			return pending.Suggestion.Duration
		}
	case model.RescheduleExisting:
		if pending.Existing != nil {
			if start, err := time.Parse(time.RFC3339, pending.Existing.Start.DateTime); err == nil {
				if end, err := time.Parse(time.RFC3339, pending.Existing.End.DateTime); err == nil && end.After(start) {
					return int(end.Sub(start) / time.Minute)
				}
			}
		}
	}
	return DefaultDurationMinutes
}

func excludeEvent(events []model.CalendarEvent, id string) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.ID == id {
			continue
		}
		out = append(out, ev)
	}
	return out
}

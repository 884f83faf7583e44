package schedule

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/phamrachel17/plan-pal/internal/calendar"
	"github.com/phamrachel17/plan-pal/internal/model"
	"github.com/phamrachel17/plan-pal/pkg/logger"
	"github.com/phamrachel17/plan-pal/pkg/metrics"
)

// Attempt status values.
const (
	StatusClean    = "clean"
	StatusConflict = "conflict"
)

// Outcome answers "can this event be created now, and if not, what should
// the user be offered".
type Outcome struct {
	Status         string                `json:"status"`
	Window         model.EventWindow     `json:"window"`
	Conflicts      []model.CalendarEvent `json:"conflicts,omitempty"`
	SuggestedSlots []model.CandidateSlot `json:"suggested_slots,omitempty"`
}

// Scheduler composes the window builder, overlap detector, and availability
// search against a calendar client.
type Scheduler struct {
	logger *logger.Logger
}

// NewScheduler creates a scheduler.
func NewScheduler(log *logger.Logger) *Scheduler {
	return &Scheduler{logger: log}
}

// AttemptSchedule builds the candidate window for the suggestion and checks
// it against the day's calendar. On conflict, slot suggestions anchored on
// the originally requested time are attached.
//
// The conflict check always completes before any write is issued by the
// caller; this is a check-then-act sequence with an accepted race window.
// An authentication failure from the calendar blocks the attempt rather
// than degrading into "no conflicts"; other read failures degrade
// gracefully so a flaky calendar cannot stop scheduling.
func (s *Scheduler) AttemptSchedule(ctx context.Context, cal calendar.Client, sug *model.EventSuggestion, loc *time.Location) (*Outcome, error) {
	window, err := BuildWindow(sug.Date, sug.Time, sug.Duration, loc)
	if err != nil {
		return nil, err
	}

	existing, err := s.ListDayEvents(ctx, cal, window.Start, loc)
	if err != nil {
		return nil, err
	}

	conflicts := FindConflicts(window, existing, loc)
	if len(conflicts) == 0 {
		metrics.ScheduleAttemptsTotal.WithLabelValues(StatusClean).Inc()
		return &Outcome{Status: StatusClean, Window: window}, nil
	}

	slots, err := SuggestSlots(sug.Date, sug.Duration, existing, sug.Time, loc)
	if err != nil {
		// Date and time were already validated by BuildWindow.
		slots = nil
	}

	metrics.ScheduleAttemptsTotal.WithLabelValues(StatusConflict).Inc()
	metrics.ConflictsDetectedTotal.Add(float64(len(conflicts)))
	metrics.SlotsSuggested.Observe(float64(len(slots)))

	return &Outcome{
		Status:         StatusConflict,
		Window:         window,
		Conflicts:      conflicts,
		SuggestedSlots: slots,
	}, nil
}

// ListDayEvents fetches every event on the calendar day containing t.
// Failures degrade the same way AttemptSchedule's read does: only an
// authentication error propagates.
func (s *Scheduler) ListDayEvents(ctx context.Context, cal calendar.Client, t time.Time, loc *time.Location) ([]model.CalendarEvent, error) {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	existing, err := cal.ListEvents(ctx, dayStart, dayEnd)
	if err != nil {
		if errors.Is(err, calendar.ErrAuth) {
			return nil, err
		}
		s.logger.Warn("conflict check degraded, proceeding without calendar data", zap.Error(err))
		return nil, nil
	}
	return existing, nil
}

// EventFromSuggestion converts a suggestion plus its built window into the
// calendar entry to persist.
func EventFromSuggestion(sug *model.EventSuggestion, window model.EventWindow, loc *time.Location) *model.CalendarEvent {
	zone := ""
	if loc != nil {
		zone = loc.String()
	}
	return &model.CalendarEvent{
		Summary:     sug.Title,
		Description: sug.Description,
		Location:    sug.Location,
		Start:       model.EventDateTime{DateTime: window.Start.Format(time.RFC3339), TimeZone: zone},
		End:         model.EventDateTime{DateTime: window.End.Format(time.RFC3339), TimeZone: zone},
	}
}

package schedule

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/phamrachel17/plan-pal/internal/model"
	"github.com/phamrachel17/plan-pal/pkg/logger"
)

// FindConflicts returns the existing events whose bound overlaps the
// candidate window, in input order. Events with missing or unparseable
// bounds are skipped; corrupt upstream data never aborts the check. The
// function is pure over its inputs.
//
// Timed bounds use half-open interval overlap: touching endpoints do not
// conflict. All-day bounds conflict when the candidate starts on any
// calendar day in [startDate, endDateExclusive), regardless of clock time.
func FindConflicts(candidate model.EventWindow, existing []model.CalendarEvent, loc *time.Location) []model.CalendarEvent {
	if loc == nil {
		loc = time.UTC
	}

	var conflicts []model.CalendarEvent
	for _, ev := range existing {
		overlaps, err := boundOverlaps(candidate, &ev, loc)
		if err != nil {
			logger.Global().Debug("skipping event with unusable bound",
				zap.String("summary", ev.Summary),
				zap.Error(err),
			)
			continue
		}
		if overlaps {
			conflicts = append(conflicts, ev)
		}
	}
	return conflicts
}

func boundOverlaps(candidate model.EventWindow, ev *model.CalendarEvent, loc *time.Location) (bool, error) {
	if ev.IsAllDay() {
		if ev.End.Date == "" {
			return false, fmt.Errorf("all-day event missing end date")
		}
		startDay, err := time.ParseInLocation("2006-01-02", ev.Start.Date, loc)
		if err != nil {
			return false, fmt.Errorf("bad all-day start %q: %w", ev.Start.Date, err)
		}
		endDay, err := time.ParseInLocation("2006-01-02", ev.End.Date, loc)
		if err != nil {
			return false, fmt.Errorf("bad all-day end %q: %w", ev.End.Date, err)
		}

		cs := candidate.Start.In(loc)
		day := time.Date(cs.Year(), cs.Month(), cs.Day(), 0, 0, 0, 0, loc)
		return !day.Before(startDay) && day.Before(endDay), nil
	}

	if ev.Start.DateTime == "" || ev.End.DateTime == "" {
		return false, fmt.Errorf("event missing bound")
	}
	evStart, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return false, fmt.Errorf("bad start %q: %w", ev.Start.DateTime, err)
	}
	evEnd, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return false, fmt.Errorf("bad end %q: %w", ev.End.DateTime, err)
	}

	return candidate.Start.Before(evEnd) && candidate.End.After(evStart), nil
}

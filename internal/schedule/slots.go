package schedule

import (
	"fmt"
	"time"

	"github.com/phamrachel17/plan-pal/internal/model"
)

// MaxSuggestions caps how many alternative slots are offered per conflict.
const MaxSuggestions = 6

const (
	anchorSpan = 2 * time.Hour
	anchorStep = 30 * time.Minute

	// Anchored-phase slots must start between 06:00 and 22:00.
	dayWindowStartMin = 6 * 60
	dayWindowEndMin   = 22 * 60

	// The fallback hourly scan runs when the anchored phase found fewer
	// than this many slots.
	fallbackThreshold = 3
	fallbackStartHour = 8
	fallbackEndHour   = 20
)

// SuggestSlots produces up to MaxSuggestions non-conflicting candidate
// windows of the requested duration on the given day.
//
// If an anchor time is given, half-hour-aligned offsets from -2h to +2h
// around it are tried first, clamped to 06:00-22:00 and kept in
// chronological order. When that yields fewer than three slots, whole hours
// from 08:00 to 20:00 are scanned, deduplicating by display string. A fully
// booked day yields an empty list.
func SuggestSlots(date string, durationMinutes int, existing []model.CalendarEvent, anchor string, loc *time.Location) ([]model.CandidateSlot, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := ParseDate(date, loc)
	if err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	duration := time.Duration(durationMinutes) * time.Minute

	var slots []model.CandidateSlot
	seen := make(map[string]bool)

	keep := func(start time.Time) bool {
		window := model.EventWindow{Start: start, End: start.Add(duration)}
		if len(FindConflicts(window, existing, loc)) > 0 {
			return false
		}
		display := FormatClock12(start.Hour(), start.Minute())
		if seen[display] {
			return false
		}
		seen[display] = true
		slots = append(slots, model.CandidateSlot{Display: display, Window: window})
		return len(slots) >= MaxSuggestions
	}

	if anchor != "" {
		hour, minute, err := ParseClock(anchor)
		if err != nil {
			return nil, err
		}
		anchorStart := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)

		for offset := -anchorSpan; offset <= anchorSpan; offset += anchorStep {
			start := anchorStart.Add(offset)
			minuteOfDay := start.Hour()*60 + start.Minute()
			if start.Day() != day.Day() || minuteOfDay < dayWindowStartMin || minuteOfDay > dayWindowEndMin {
				continue
			}
			if keep(start) {
				return slots, nil
			}
		}
	}

	if len(slots) < fallbackThreshold {
		for hour := fallbackStartHour; hour <= fallbackEndHour; hour++ {
			start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
			if keep(start) {
				break
			}
		}
	}

	return slots, nil
}

// FormatClock12 renders an hour/minute pair in the 12-hour display form
// shown to the user, e.g. "2:30 PM". The same form is matched against
// plain-text replies when the user picks a slot.
func FormatClock12(hour, minute int) string {
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, meridiem)
}

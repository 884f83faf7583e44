// Package schedule implements the conflict-detection and slot-suggestion
// engine: time window construction, interval overlap checks, availability
// search, and the reschedule negotiation that drives multi-turn
// conversations when a conflict is found.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phamrachel17/plan-pal/internal/model"
)

// DefaultDurationMinutes is used when a request omits the duration or
// supplies a non-positive one.
const DefaultDurationMinutes = 60

// ValidationError reports a malformed date, time, or duration input. The
// request is rejected; nothing is retried.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ParseDate parses a strict YYYY-MM-DD calendar date at midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Value: date, Reason: "must be a valid YYYY-MM-DD date"}
	}
	return t, nil
}

// ParseClock parses a 24-hour HH:MM clock time.
func ParseClock(clock string) (hour, minute int, err error) {
	invalid := &ValidationError{Field: "time", Value: clock, Reason: "must be a valid 24-hour HH:MM time"}

	parts := strings.Split(clock, ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, 0, invalid
	}
	hour, herr := strconv.Atoi(parts[0])
	minute, merr := strconv.Atoi(parts[1])
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, invalid
	}
	return hour, minute, nil
}

// BuildWindow converts a (date, time-of-day, duration) triple into an
// absolute start/end instant pair in loc. The same location must be used
// when interpreting existing-event bounds or conflict detection silently
// misbehaves, so callers thread one resolved zone through a whole request.
func BuildWindow(date, clock string, durationMinutes int, loc *time.Location) (model.EventWindow, error) {
	if loc == nil {
		loc = time.UTC
	}

	day, err := ParseDate(date, loc)
	if err != nil {
		return model.EventWindow{}, err
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return model.EventWindow{}, err
	}
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	return model.EventWindow{Start: start, End: end}, nil
}

// ValidateNotPast rejects event dates before today in loc.
func ValidateNotPast(date string, now time.Time, loc *time.Location) error {
	day, err := ParseDate(date, loc)
	if err != nil {
		return err
	}
	today := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	if day.Before(today) {
		return &ValidationError{Field: "date", Value: date, Reason: "date is in the past"}
	}
	return nil
}

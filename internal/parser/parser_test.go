package parser

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecodeParsedEvent(t *testing.T) {
	ev, err := decodeParsedEvent(`{"title":"Dinner with Alex","date":"2026-03-10","time":"19:00","duration":90,"confidence":0.9}`)
	if err != nil {
		t.Fatalf("decodeParsedEvent: %v", err)
	}
	if ev.Title != "Dinner with Alex" || ev.Date != "2026-03-10" || ev.Time != "19:00" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Duration != 90 || ev.Confidence != 0.9 {
		t.Errorf("duration/confidence not preserved: %+v", ev)
	}
}

func TestDecodeParsedEventStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"title\":\"Gym\",\"date\":\"2026-03-10\",\"time\":\"06:00\",\"confidence\":0.8}\n```"
	ev, err := decodeParsedEvent(raw)
	if err != nil {
		t.Fatalf("decodeParsedEvent: %v", err)
	}
	if ev.Title != "Gym" {
		t.Errorf("title = %s", ev.Title)
	}

	// Bare fence without the language tag.
	raw = "```\n{\"title\":\"Gym\",\"date\":\"2026-03-10\",\"confidence\":0.8}\n```"
	if _, err := decodeParsedEvent(raw); err != nil {
		t.Fatalf("bare fence: %v", err)
	}
}

func TestDecodeParsedEventDefaults(t *testing.T) {
	ev, err := decodeParsedEvent(`{"date":"2026-03-10"}`)
	if err != nil {
		t.Fatalf("decodeParsedEvent: %v", err)
	}
	if ev.Title != "Untitled Event" {
		t.Errorf("title = %s, want Untitled Event", ev.Title)
	}
	if ev.Time != "19:00" {
		t.Errorf("time = %s, want 19:00", ev.Time)
	}
	if ev.Duration != 60 {
		t.Errorf("duration = %d, want 60", ev.Duration)
	}
	if ev.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", ev.Confidence)
	}
}

func TestDecodeParsedEventRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"I couldn't understand that.",
		"{not json",
		`{"title":"No date"}`,
		"",
	} {
		_, err := decodeParsedEvent(raw)
		if !errors.Is(err, ErrParse) {
			t.Errorf("decodeParsedEvent(%q) err = %v, want ErrParse", raw, err)
		}
	}
}

func TestParsePromptAnchorsDates(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	prompt := parsePrompt("dinner tomorrow at 7", now)

	if !strings.Contains(prompt, "Today is 2026-03-10") {
		t.Error("prompt missing today's date")
	}
	if !strings.Contains(prompt, "tomorrow is 2026-03-11") {
		t.Error("prompt missing tomorrow's date")
	}
	if !strings.Contains(prompt, `"dinner tomorrow at 7"`) {
		t.Error("prompt missing the user input")
	}
}

func TestFallbackConfirmation(t *testing.T) {
	got := FallbackConfirmation(&ParsedEvent{
		Title: "Dinner with Alex",
		Date:  "2026-03-10",
		Time:  "19:00",
	})
	want := `I'd like to schedule "Dinner with Alex" on 2026-03-10 at 19:00. Does this look correct?`
	if got != want {
		t.Errorf("FallbackConfirmation = %q, want %q", got, want)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New("gemini", "key"); err == nil {
		t.Error("unknown provider accepted")
	}
}

// Package parser turns natural-language scheduling requests into structured
// event data using an LLM provider.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrParse means the parser could not extract a usable event from the
// message. The conversation continues with a canned help reply.
var ErrParse = errors.New("could not extract a usable event")

// ParsedEvent is the structured guess returned for a free-text request.
type ParsedEvent struct {
	Title       string  `json:"title"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Time        string  `json:"time"` // 24-hour HH:MM
	Location    string  `json:"location,omitempty"`
	Description string  `json:"description,omitempty"`
	Duration    int     `json:"duration,omitempty"` // minutes
	Confidence  float64 `json:"confidence"`
}

// Parser is the natural-language collaborator the scheduling core consumes.
type Parser interface {
	// ParseFreeText extracts a structured event from a chat message. The
	// caller's clock anchors relative dates like "tomorrow".
	ParseFreeText(ctx context.Context, text string, now time.Time) (*ParsedEvent, error)

	// GenerateConfirmation writes a short conversational confirmation
	// question for a parsed event. Failure is non-fatal; callers substitute
	// FallbackConfirmation.
	GenerateConfirmation(ctx context.Context, ev *ParsedEvent) (string, error)
}

// Provider is the type of LLM provider backing the parser.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// New creates a parser backed by the given provider.
func New(provider Provider, apiKey string) (Parser, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicParser(apiKey)
	case ProviderOpenAI:
		return NewOpenAIParser(apiKey)
	default:
		return nil, fmt.Errorf("unknown parser provider %q", provider)
	}
}

func parsePrompt(text string, now time.Time) string {
	today := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	return fmt.Sprintf(`You are an AI assistant that helps users schedule events. Parse the following user input into structured event data.

User input: %q

Return ONLY a valid JSON object with these exact fields:
- title: string (event title)
- date: string (ISO date YYYY-MM-DD; use today's date if not specified)
- time: string (24-hour HH:MM; suggest a reasonable time if not specified)
- location: string (optional)
- description: string (optional)
- duration: number (optional, minutes, default 60)
- confidence: number (0-1 confidence score for the parsing)

Rules:
1. For relative dates, calculate the actual date. Today is %s; tomorrow is %s.
2. For specific dates without a year, use the current year.
3. Be conservative with confidence scores.
4. Return ONLY the JSON object, no markdown formatting, no additional text.`, text, today, tomorrow)
}

func confirmationPrompt(ev *ParsedEvent) string {
	location := ev.Location
	if location == "" {
		location = "Not specified"
	}
	return fmt.Sprintf(`Generate a friendly, conversational confirmation message for this event:

Title: %s
Date: %s
Time: %s
Location: %s
Duration: %d minutes

Write a short message (1-2 sentences) asking the user to confirm this event.`,
		ev.Title, ev.Date, ev.Time, location, ev.Duration)
}

// decodeParsedEvent parses the model's JSON reply, tolerating markdown code
// fences, and applies the defaults the conversation relies on.
func decodeParsedEvent(raw string) (*ParsedEvent, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var ev ParsedEvent
	if err := json.Unmarshal([]byte(text), &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if ev.Date == "" {
		return nil, fmt.Errorf("%w: reply carried no date", ErrParse)
	}

	if ev.Title == "" {
		ev.Title = "Untitled Event"
	}
	if ev.Time == "" {
		ev.Time = "19:00"
	}
	if ev.Duration <= 0 {
		ev.Duration = 60
	}
	if ev.Confidence == 0 {
		ev.Confidence = 0.5
	}
	return &ev, nil
}

// FallbackConfirmation is the templated sentence used when the LLM cannot
// produce a confirmation message.
func FallbackConfirmation(ev *ParsedEvent) string {
	return fmt.Sprintf("I'd like to schedule %q on %s at %s. Does this look correct?", ev.Title, ev.Date, ev.Time)
}

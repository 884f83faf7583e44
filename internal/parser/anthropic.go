package parser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/phamrachel17/plan-pal/pkg/metrics"
)

const anthropicModel = "claude-3-5-haiku-20241022"

// AnthropicParser parses events with the Anthropic messages API.
type AnthropicParser struct {
	client *anthropic.Client
}

// NewAnthropicParser creates an Anthropic-backed parser.
func NewAnthropicParser(apiKey string) (*AnthropicParser, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	return &AnthropicParser{client: anthropic.NewClient(option.WithAPIKey(apiKey))}, nil
}

// ParseFreeText extracts a structured event from a chat message.
func (p *AnthropicParser) ParseFreeText(ctx context.Context, text string, now time.Time) (*ParsedEvent, error) {
	start := time.Now()

	raw, err := p.complete(ctx, parsePrompt(text, now))
	if err != nil {
		metrics.RecordParse(string(ProviderAnthropic), "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	ev, err := decodeParsedEvent(raw)
	if err != nil {
		metrics.RecordParse(string(ProviderAnthropic), "error", time.Since(start).Seconds())
		return nil, err
	}

	metrics.RecordParse(string(ProviderAnthropic), "success", time.Since(start).Seconds())
	return ev, nil
}

// GenerateConfirmation writes a confirmation question for a parsed event.
func (p *AnthropicParser) GenerateConfirmation(ctx context.Context, ev *ParsedEvent) (string, error) {
	return p.complete(ctx, confirmationPrompt(ev))
}

func (p *AnthropicParser) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(anthropicModel),
		MaxTokens: anthropic.F(int64(1024)),
		Messages: anthropic.F([]anthropic.MessageParam{
			{
				Role: anthropic.F(anthropic.MessageParamRoleUser),
				Content: anthropic.F([]anthropic.ContentBlockParamUnion{
					anthropic.TextBlockParam{
						Type: anthropic.F(anthropic.TextBlockParamTypeText),
						Text: anthropic.F(prompt),
					},
				}),
			},
		}),
	})
	if err != nil {
		return "", err
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}
	if content == "" {
		return "", errors.New("empty completion response")
	}
	return content, nil
}

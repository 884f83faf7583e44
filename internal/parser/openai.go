package parser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/phamrachel17/plan-pal/pkg/metrics"
)

const openAIModel = "gpt-4o-mini"

// OpenAIParser parses events with the OpenAI chat API.
type OpenAIParser struct {
	client *openai.Client
}

// NewOpenAIParser creates an OpenAI-backed parser.
func NewOpenAIParser(apiKey string) (*OpenAIParser, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &OpenAIParser{client: openai.NewClient(apiKey)}, nil
}

// ParseFreeText extracts a structured event from a chat message.
func (p *OpenAIParser) ParseFreeText(ctx context.Context, text string, now time.Time) (*ParsedEvent, error) {
	start := time.Now()

	raw, err := p.complete(ctx, parsePrompt(text, now))
	if err != nil {
		metrics.RecordParse(string(ProviderOpenAI), "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	ev, err := decodeParsedEvent(raw)
	if err != nil {
		metrics.RecordParse(string(ProviderOpenAI), "error", time.Since(start).Seconds())
		return nil, err
	}

	metrics.RecordParse(string(ProviderOpenAI), "success", time.Since(start).Seconds())
	return ev, nil
}

// GenerateConfirmation writes a confirmation question for a parsed event.
func (p *OpenAIParser) GenerateConfirmation(ctx context.Context, ev *ParsedEvent) (string, error) {
	return p.complete(ctx, confirmationPrompt(ev))
}

func (p *OpenAIParser) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openAIModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phamrachel17/plan-pal/internal/calendar"
	"github.com/phamrachel17/plan-pal/internal/model"
	natsclient "github.com/phamrachel17/plan-pal/internal/nats"
	"github.com/phamrachel17/plan-pal/internal/parser"
	"github.com/phamrachel17/plan-pal/internal/schedule"
	"github.com/phamrachel17/plan-pal/pkg/logger"
)

type fakeLog struct {
	messages []*model.Message
	events   []*natsclient.ScheduleEvent
	seq      uint64
}

func (f *fakeLog) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	f.seq++
	f.messages = append(f.messages, msg)
	return f.seq, nil
}

func (f *fakeLog) PublishScheduleEvent(ctx context.Context, ev *natsclient.ScheduleEvent) (uint64, error) {
	f.seq++
	f.events = append(f.events, ev)
	return f.seq, nil
}

type fakeParser struct {
	event   *parser.ParsedEvent
	err     error
	confirm string
}

func (f *fakeParser) ParseFreeText(ctx context.Context, text string, now time.Time) (*parser.ParsedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeParser) GenerateConfirmation(ctx context.Context, ev *parser.ParsedEvent) (string, error) {
	if f.confirm == "" {
		return "", errors.New("confirmation unavailable")
	}
	return f.confirm, nil
}

type fakeCal struct {
	events  []model.CalendarEvent
	listErr error

	updatedID string
	updatedEv *model.CalendarEvent
}

func (f *fakeCal) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]model.CalendarEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeCal) CreateEvent(ctx context.Context, ev *model.CalendarEvent) (*model.CalendarEvent, error) {
	return ev, nil
}

func (f *fakeCal) UpdateEvent(ctx context.Context, id string, ev *model.CalendarEvent) (*model.CalendarEvent, error) {
	f.updatedID = id
	f.updatedEv = ev
	out := *ev
	out.ID = id
	return &out, nil
}

type fakeProvider struct {
	client *fakeCal
	err    error
}

func (f *fakeProvider) ClientFor(ctx context.Context, accessToken string) (calendar.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func timed(id, summary, start, end string) model.CalendarEvent {
	return model.CalendarEvent{
		ID:      id,
		Summary: summary,
		Start:   model.EventDateTime{DateTime: start},
		End:     model.EventDateTime{DateTime: end},
	}
}

type chatFixture struct {
	svc    *ChatService
	log    *fakeLog
	cal    *fakeCal
	convID string
}

func newChatFixture(t *testing.T, p parser.Parser, cal *fakeCal) *chatFixture {
	t.Helper()
	log := logger.NewNop()
	streams := &fakeLog{}
	conversations := NewConversationService(log)

	conv, err := conversations.Create(context.Background(), "t1", "u1", &model.CreateConversationRequest{})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	svc := NewChatService(streams, conversations, p, schedule.NewScheduler(log), &fakeProvider{client: cal}, time.UTC, log)
	return &chatFixture{svc: svc, log: streams, cal: cal, convID: conv.ID}
}

func (f *chatFixture) turn(t *testing.T, req *model.ChatTurnRequest) *model.ChatTurnResponse {
	t.Helper()
	resp, err := f.svc.HandleTurn(context.Background(), "t1", "u1", f.convID, "tok", req)
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	return resp
}

func TestHandleTurnNewRequest(t *testing.T) {
	p := &fakeParser{
		event: &parser.ParsedEvent{
			Title:      "Dinner with Alex",
			Date:       "2026-03-10",
			Time:       "19:00",
			Duration:   60,
			Confidence: 0.9,
		},
		confirm: "Shall I put dinner with Alex on your calendar for 7 PM?",
	}
	f := newChatFixture(t, p, &fakeCal{})

	resp := f.turn(t, &model.ChatTurnRequest{Content: "dinner with Alex tomorrow at 7"})

	if !resp.RequiresConfirmation {
		t.Error("high-confidence parse did not request confirmation")
	}
	if resp.Suggestion == nil || resp.Suggestion.Title != "Dinner with Alex" {
		t.Fatalf("suggestion = %+v", resp.Suggestion)
	}
	if resp.Pending != nil {
		t.Error("fresh request produced pending state")
	}
	if resp.Message.Content != p.confirm {
		t.Errorf("content = %q", resp.Message.Content)
	}

	// One user message and one assistant message in the log.
	if len(f.log.messages) != 2 {
		t.Fatalf("published %d messages, want 2", len(f.log.messages))
	}
	if f.log.messages[0].Role != model.RoleUser || f.log.messages[1].Role != model.RoleAssistant {
		t.Error("message roles out of order")
	}
	if f.log.messages[1].Suggestion == nil {
		t.Error("assistant message lost its suggestion")
	}
}

func TestHandleTurnLowConfidence(t *testing.T) {
	p := &fakeParser{
		event: &parser.ParsedEvent{
			Title:      "Thing",
			Date:       "2026-03-10",
			Time:       "19:00",
			Confidence: 0.4,
		},
	}
	f := newChatFixture(t, p, &fakeCal{})

	resp := f.turn(t, &model.ChatTurnRequest{Content: "maybe do the thing sometime"})
	if resp.RequiresConfirmation {
		t.Error("low-confidence parse requested confirmation")
	}
	if !strings.Contains(resp.Message.Content, "not sure") {
		t.Errorf("content = %q, want a clarifying reply", resp.Message.Content)
	}
}

func TestHandleTurnParseFailure(t *testing.T) {
	f := newChatFixture(t, &fakeParser{err: parser.ErrParse}, &fakeCal{})

	resp := f.turn(t, &model.ChatTurnRequest{Content: "asdf qwerty"})
	if resp.Suggestion != nil || resp.Pending != nil || resp.RequiresConfirmation {
		t.Error("parse failure produced scheduling state")
	}
	if !strings.Contains(resp.Message.Content, "Dinner with Alex tomorrow at 7pm") {
		t.Errorf("content = %q, want the example-bearing help reply", resp.Message.Content)
	}
}

func TestHandleTurnConfirmationFallback(t *testing.T) {
	p := &fakeParser{
		event: &parser.ParsedEvent{
			Title:      "Gym",
			Date:       "2026-03-10",
			Time:       "06:00",
			Confidence: 0.9,
		},
		// confirm empty: GenerateConfirmation fails
	}
	f := newChatFixture(t, p, &fakeCal{})

	resp := f.turn(t, &model.ChatTurnRequest{Content: "gym at 6"})
	if !strings.Contains(resp.Message.Content, `"Gym"`) || !strings.Contains(resp.Message.Content, "Does this look correct?") {
		t.Errorf("content = %q, want the fallback template", resp.Message.Content)
	}
}

func TestHandleTurnChoiceKeep(t *testing.T) {
	f := newChatFixture(t, &fakeParser{}, &fakeCal{})

	resp := f.turn(t, &model.ChatTurnRequest{Choice: model.ChoiceKeepExisting})
	if resp.Pending != nil {
		t.Error("keep choice left pending state")
	}
	if !strings.Contains(resp.Message.Content, "kept your existing event") {
		t.Errorf("content = %q", resp.Message.Content)
	}
}

func TestHandleTurnChoiceRescheduleNew(t *testing.T) {
	f := newChatFixture(t, &fakeParser{}, &fakeCal{})

	sug := &model.EventSuggestion{Title: "Dinner", Date: "2026-03-10", Time: "19:00", Duration: 60}
	resp := f.turn(t, &model.ChatTurnRequest{Choice: model.ChoiceRescheduleNew, Suggestion: sug})

	if resp.Pending == nil || resp.Pending.Kind != model.RescheduleNew {
		t.Fatalf("pending = %+v, want new-event reschedule", resp.Pending)
	}
	if !strings.Contains(resp.Message.Content, "what time would work better") {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if len(resp.Suggestion.SuggestedSlots) == 0 {
		t.Error("no slots offered on a free day")
	}
}

func TestHandleTurnChoiceRescheduleExisting(t *testing.T) {
	gym := timed("gym", "Gym", "2026-03-10T18:00:00Z", "2026-03-10T19:00:00Z")
	f := newChatFixture(t, &fakeParser{}, &fakeCal{events: []model.CalendarEvent{gym}})

	resp := f.turn(t, &model.ChatTurnRequest{Choice: model.ChoiceRescheduleExisting, Conflict: &gym})
	if resp.Pending == nil || resp.Pending.Kind != model.RescheduleExisting || resp.Pending.ConflictID != "gym" {
		t.Fatalf("pending = %+v", resp.Pending)
	}
	if !strings.Contains(resp.Message.Content, `"Gym"`) {
		t.Errorf("content = %q", resp.Message.Content)
	}
}

func TestHandleTurnChoiceValidation(t *testing.T) {
	f := newChatFixture(t, &fakeParser{}, &fakeCal{})

	_, err := f.svc.HandleTurn(context.Background(), "t1", "u1", f.convID, "tok",
		&model.ChatTurnRequest{Choice: model.ChoiceRescheduleNew})
	var vErr *schedule.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("missing suggestion err = %v, want ValidationError", err)
	}

	_, err = f.svc.HandleTurn(context.Background(), "t1", "u1", f.convID, "tok",
		&model.ChatTurnRequest{Choice: "shrug"})
	if !errors.As(err, &vErr) {
		t.Errorf("unknown choice err = %v, want ValidationError", err)
	}
}

func TestHandleTurnReplacementClean(t *testing.T) {
	meeting := timed("m", "Meeting", "2026-03-10T19:00:00Z", "2026-03-10T20:00:00Z")
	f := newChatFixture(t, &fakeParser{}, &fakeCal{events: []model.CalendarEvent{meeting}})

	pending := &model.PendingReschedule{
		Kind: model.RescheduleNew,
		Suggestion: &model.EventSuggestion{
			Title: "Dinner", Date: "2026-03-10", Time: "19:00", Duration: 60,
		},
	}
	resp := f.turn(t, &model.ChatTurnRequest{Content: "8pm", Pending: pending})

	if resp.Pending != nil {
		t.Error("clean replacement left pending state")
	}
	if !resp.RequiresConfirmation {
		t.Error("clean replacement did not request confirmation")
	}
	if resp.Suggestion == nil || resp.Suggestion.Time != "20:00" {
		t.Fatalf("suggestion = %+v, want time 20:00", resp.Suggestion)
	}
	if !strings.Contains(resp.Message.Content, "8:00 PM") {
		t.Errorf("content = %q, want the 12-hour display", resp.Message.Content)
	}
}

func TestHandleTurnReplacementStillConflicts(t *testing.T) {
	meeting := timed("m", "Meeting", "2026-03-10T19:00:00Z", "2026-03-10T20:00:00Z")
	f := newChatFixture(t, &fakeParser{}, &fakeCal{events: []model.CalendarEvent{meeting}})

	pending := &model.PendingReschedule{
		Kind: model.RescheduleNew,
		Suggestion: &model.EventSuggestion{
			Title: "Dinner", Date: "2026-03-10", Time: "19:00", Duration: 60,
		},
	}
	resp := f.turn(t, &model.ChatTurnRequest{Content: "7:30pm", Pending: pending})

	if resp.Pending == nil || resp.Pending.Kind != model.RescheduleNew {
		t.Fatalf("pending = %+v, want reschedule kept alive", resp.Pending)
	}
	if resp.Pending.Suggestion.Time != "19:30" {
		t.Errorf("pending time = %s, want 19:30", resp.Pending.Suggestion.Time)
	}
	if !strings.Contains(resp.Message.Content, `"Meeting"`) {
		t.Errorf("content = %q, want the conflicting event named", resp.Message.Content)
	}
	if resp.RequiresConfirmation {
		t.Error("conflicting replacement requested confirmation")
	}
}

func TestHandleTurnReplacementMovesExisting(t *testing.T) {
	gym := timed("gym", "Gym", "2026-03-10T18:00:00Z", "2026-03-10T19:00:00Z")
	cal := &fakeCal{events: []model.CalendarEvent{gym}}
	f := newChatFixture(t, &fakeParser{}, cal)

	pending := &model.PendingReschedule{
		Kind:       model.RescheduleExisting,
		ConflictID: "gym",
		Existing:   &gym,
	}
	resp := f.turn(t, &model.ChatTurnRequest{Content: "8pm", Pending: pending})

	if resp.Pending != nil {
		t.Error("completed move left pending state")
	}
	if cal.updatedID != "gym" {
		t.Fatalf("UpdateEvent called with id %q, want gym", cal.updatedID)
	}
	start, err := time.Parse(time.RFC3339, cal.updatedEv.Start.DateTime)
	if err != nil {
		t.Fatalf("updated start: %v", err)
	}
	if start.Hour() != 20 {
		t.Errorf("moved start hour = %d, want 20", start.Hour())
	}
	if len(f.log.events) != 1 || f.log.events[0].Action != "updated" {
		t.Fatalf("schedule events = %+v, want one update", f.log.events)
	}
	if !strings.Contains(resp.Message.Content, "moved") {
		t.Errorf("content = %q", resp.Message.Content)
	}
}

func TestHandleTurnReplacementUnparseableClearsPending(t *testing.T) {
	f := newChatFixture(t, &fakeParser{err: parser.ErrParse}, &fakeCal{})

	pending := &model.PendingReschedule{
		Kind:       model.RescheduleNew,
		Suggestion: &model.EventSuggestion{Title: "Dinner", Date: "2026-03-10", Time: "19:00"},
	}
	resp := f.turn(t, &model.ChatTurnRequest{Content: "whenever works I guess", Pending: pending})

	if resp.Pending != nil {
		t.Error("unusable reply kept the reschedule pending")
	}
	if !strings.Contains(resp.Message.Content, "start over") {
		t.Errorf("content = %q", resp.Message.Content)
	}
}

func TestHandleTurnReplacementWordyTimeViaParser(t *testing.T) {
	p := &fakeParser{
		event: &parser.ParsedEvent{
			Title: "Dinner", Date: "2026-03-12", Time: "18:30", Confidence: 0.8,
		},
	}
	f := newChatFixture(t, p, &fakeCal{})

	pending := &model.PendingReschedule{
		Kind:       model.RescheduleNew,
		Suggestion: &model.EventSuggestion{Title: "Dinner", Date: "2026-03-10", Time: "19:00"},
	}
	resp := f.turn(t, &model.ChatTurnRequest{Content: "how about Thursday at 6:30 instead", Pending: pending})

	if resp.Suggestion == nil || resp.Suggestion.Date != "2026-03-12" || resp.Suggestion.Time != "18:30" {
		t.Fatalf("suggestion = %+v, want the parser's date and time", resp.Suggestion)
	}
	if resp.Pending != nil {
		t.Error("clean replacement left pending state")
	}
}

func TestHandleTurnCalendarAuthPropagates(t *testing.T) {
	log := logger.NewNop()
	conversations := NewConversationService(log)
	conv, _ := conversations.Create(context.Background(), "t1", "u1", &model.CreateConversationRequest{})
	svc := NewChatService(&fakeLog{}, conversations, &fakeParser{}, schedule.NewScheduler(log),
		&fakeProvider{err: calendar.ErrAuth}, time.UTC, log)

	pending := &model.PendingReschedule{
		Kind:       model.RescheduleNew,
		Suggestion: &model.EventSuggestion{Title: "Dinner", Date: "2026-03-10", Time: "19:00"},
	}
	_, err := svc.HandleTurn(context.Background(), "t1", "u1", conv.ID, "stale",
		&model.ChatTurnRequest{Content: "8pm", Pending: pending})
	if !errors.Is(err, calendar.ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
}

func TestHandleTurnUnknownConversation(t *testing.T) {
	log := logger.NewNop()
	svc := NewChatService(&fakeLog{}, NewConversationService(log), &fakeParser{},
		schedule.NewScheduler(log), &fakeProvider{client: &fakeCal{}}, time.UTC, log)

	_, err := svc.HandleTurn(context.Background(), "t1", "u1", "missing", "tok",
		&model.ChatTurnRequest{Content: "hi"})
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("err = %v, want ErrConversationNotFound", err)
	}
}

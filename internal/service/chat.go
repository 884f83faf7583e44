package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phamrachel17/plan-pal/internal/calendar"
	"github.com/phamrachel17/plan-pal/internal/model"
	natsclient "github.com/phamrachel17/plan-pal/internal/nats"
	"github.com/phamrachel17/plan-pal/internal/parser"
	"github.com/phamrachel17/plan-pal/internal/schedule"
	"github.com/phamrachel17/plan-pal/pkg/logger"
	"github.com/phamrachel17/plan-pal/pkg/metrics"
)

// confidenceThreshold gates whether a parsed event is offered for one-tap
// confirmation or the user is asked to restate the request.
const confidenceThreshold = 0.7

// MessageLog is the durable append log for chat turns and confirmed
// schedule writes.
type MessageLog interface {
	PublishMessage(ctx context.Context, msg *model.Message) (uint64, error)
	PublishScheduleEvent(ctx context.Context, ev *natsclient.ScheduleEvent) (uint64, error)
}

// ChatService drives one conversation turn: interpret the user's message in
// the context of any pending reschedule, consult the calendar, and produce
// the assistant's reply plus the next turn's pending state.
type ChatService struct {
	streams       MessageLog
	conversations *ConversationService
	parser        parser.Parser
	scheduler     *schedule.Scheduler
	calendars     calendar.Provider
	defaultZone   *time.Location
	logger        *logger.Logger
}

// NewChatService creates a chat service.
func NewChatService(streams MessageLog, conversations *ConversationService, p parser.Parser, scheduler *schedule.Scheduler, calendars calendar.Provider, defaultZone *time.Location, log *logger.Logger) *ChatService {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &ChatService{
		streams:       streams,
		conversations: conversations,
		parser:        p,
		scheduler:     scheduler,
		calendars:     calendars,
		defaultZone:   defaultZone,
		logger:        log,
	}
}

// turnReply collects what a branch of the state machine decided before the
// assistant message is appended to the log.
type turnReply struct {
	content              string
	suggestion           *model.EventSuggestion
	pending              *model.PendingReschedule
	requiresConfirmation bool
}

// HandleTurn processes one user turn. The pending reschedule state travels
// in the request and response; passing back a stale or absent pending value
// simply restarts the conversation from idle.
func (s *ChatService) HandleTurn(ctx context.Context, tenantID, userID, conversationID, accessToken string, req *model.ChatTurnRequest) (*model.ChatTurnResponse, error) {
	if _, err := s.conversations.Get(ctx, tenantID, conversationID); err != nil {
		return nil, err
	}

	loc := s.resolveZone(req.TimeZone)

	s.appendMessage(ctx, tenantID, conversationID, model.RoleUser, userContent(req), nil)

	var (
		reply *turnReply
		err   error
	)
	switch {
	case req.Choice != "":
		reply, err = s.handleChoice(ctx, accessToken, req, loc)
	case req.Pending != nil:
		reply, err = s.handleReplacement(ctx, tenantID, conversationID, accessToken, req, loc)
	default:
		reply, err = s.handleNewRequest(ctx, req, loc)
	}
	if err != nil {
		return nil, err
	}

	assistantMsg := s.appendMessage(ctx, tenantID, conversationID, model.RoleAssistant, reply.content, reply.suggestion)

	if err := s.conversations.UpdateLastMessage(ctx, tenantID, conversationID, assistantMsg); err != nil {
		s.logger.Warn("failed to update conversation summary",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}

	return &model.ChatTurnResponse{
		Message:              assistantMsg,
		Suggestion:           reply.suggestion,
		Pending:              reply.pending,
		RequiresConfirmation: reply.requiresConfirmation,
	}, nil
}

// handleNewRequest parses a free-text scheduling request and offers the
// extracted event for confirmation.
func (s *ChatService) handleNewRequest(ctx context.Context, req *model.ChatTurnRequest, loc *time.Location) (*turnReply, error) {
	now := time.Now().In(loc)

	parsed, err := s.parser.ParseFreeText(ctx, req.Content, now)
	if err != nil {
		s.logger.Warn("free-text parse failed", zap.Error(err))
		return &turnReply{
			content: "I'm sorry, I couldn't work out an event from that. Try something like \"Dinner with Alex tomorrow at 7pm\".",
		}, nil
	}

	sug := &model.EventSuggestion{
		Title:       parsed.Title,
		Date:        parsed.Date,
		Time:        parsed.Time,
		Location:    parsed.Location,
		Description: parsed.Description,
		Duration:    parsed.Duration,
		TimeZone:    loc.String(),
	}

	if parsed.Confidence <= confidenceThreshold {
		return &turnReply{
			content:    fmt.Sprintf("I think you want to schedule %q on %s at %s, but I'm not sure I got that right. Could you rephrase with the date and time?", sug.Title, sug.Date, displayClock(sug.Time)),
			suggestion: sug,
		}, nil
	}

	confirmation, err := s.parser.GenerateConfirmation(ctx, parsed)
	if err != nil {
		confirmation = parser.FallbackConfirmation(parsed)
	}

	return &turnReply{
		content:              confirmation,
		suggestion:           sug,
		requiresConfirmation: true,
	}, nil
}

// handleChoice acts on the user's answer to a surfaced conflict: keep the
// existing event, pick a new time for the new event, or move the existing
// event instead.
func (s *ChatService) handleChoice(ctx context.Context, accessToken string, req *model.ChatTurnRequest, loc *time.Location) (*turnReply, error) {
	switch req.Choice {
	case model.ChoiceKeepExisting:
		return &turnReply{
			content: "Okay, I kept your existing event. Your new event was not scheduled.",
		}, nil

	case model.ChoiceRescheduleNew:
		if req.Suggestion == nil {
			return nil, &schedule.ValidationError{Field: "suggestion", Value: "", Reason: "reschedule choice needs the event being placed"}
		}
		sug := req.Suggestion
		sug.SuggestedSlots = s.slotsForDay(ctx, accessToken, sug.Date, sug.Duration, sug.Time, "", loc)

		content := fmt.Sprintf("To reschedule %q, what time would work better for you?", sug.Title)
		if len(sug.SuggestedSlots) > 0 {
			content += " Here are some open times: " + joinSlots(sug.SuggestedSlots) + "."
		}

		return &turnReply{
			content:    content,
			suggestion: sug,
			pending: &model.PendingReschedule{
				Kind:       model.RescheduleNew,
				Suggestion: sug,
			},
		}, nil

	case model.ChoiceRescheduleExisting:
		if req.Conflict == nil || req.Conflict.ID == "" {
			return nil, &schedule.ValidationError{Field: "conflict", Value: "", Reason: "reschedule choice needs the event being moved"}
		}
		pending := &model.PendingReschedule{
			Kind:       model.RescheduleExisting,
			ConflictID: req.Conflict.ID,
			Existing:   req.Conflict,
		}

		content := fmt.Sprintf("I can help you find alternative times for %q. What time would work better?", req.Conflict.Summary)
		if anchor, ok := eventClock(req.Conflict); ok {
			slots := s.slotsForDay(ctx, accessToken, pending.DateHint(), 0, anchor, req.Conflict.ID, loc)
			if len(slots) > 0 {
				content += " Here are some open times: " + joinSlots(slots) + "."
			}
		}

		return &turnReply{
			content:    content,
			suggestion: req.Suggestion,
			pending:    pending,
		}, nil

	default:
		return nil, &schedule.ValidationError{Field: "choice", Value: req.Choice, Reason: "unknown choice"}
	}
}

// handleReplacement interprets the user's message as the replacement time
// for a pending reschedule and re-checks the calendar at that time.
func (s *ChatService) handleReplacement(ctx context.Context, tenantID, conversationID, accessToken string, req *model.ChatTurnRequest, loc *time.Location) (*turnReply, error) {
	pending := req.Pending

	date := ""
	clock, ok := schedule.ParseTimePhrase(req.Content)
	if !ok {
		parsed, err := s.parser.ParseFreeText(ctx, req.Content, time.Now().In(loc))
		if err != nil || parsed.Time == "" {
			// The user drifted away from the reschedule; drop it rather
			// than trap them in a loop.
			metrics.ReschedulesTotal.WithLabelValues(string(pending.Kind), "abandoned").Inc()
			return &turnReply{
				content: "I'm sorry, I couldn't work out a time from that. Let's start over - what would you like to schedule?",
			}, nil
		}
		date = parsed.Date
		clock = parsed.Time
	}

	cal, err := s.calendars.ClientFor(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	dayHint := date
	if dayHint == "" {
		dayHint = pending.DateHint()
	}
	day, err := schedule.ParseDate(dayHint, loc)
	if err != nil {
		return nil, err
	}

	existing, err := s.scheduler.ListDayEvents(ctx, cal, day, loc)
	if err != nil {
		return nil, err
	}

	res, err := schedule.ResolvePending(pending, date, clock, existing, loc)
	if err != nil {
		return nil, err
	}

	if !res.Clean() {
		metrics.ReschedulesTotal.WithLabelValues(string(pending.Kind), "conflict").Inc()
		return s.replacementConflict(pending, res, existing, loc), nil
	}

	metrics.ReschedulesTotal.WithLabelValues(string(pending.Kind), "clean").Inc()

	if pending.Kind == model.RescheduleExisting {
		return s.moveExisting(ctx, cal, tenantID, conversationID, pending, res, loc)
	}

	sug := pending.Suggestion
	sug.Date = res.Date
	sug.Time = res.Clock
	sug.Conflicts = nil
	sug.SuggestedSlots = nil

	return &turnReply{
		content:              fmt.Sprintf("I'd like to schedule %q on %s at %s. Does this look correct?", sug.Title, sug.Date, displayClock(sug.Time)),
		suggestion:           sug,
		requiresConfirmation: true,
	}, nil
}

// replacementConflict re-offers the reschedule: the new time is taken too,
// so report what it collides with and surface open slots near it.
func (s *ChatService) replacementConflict(pending *model.PendingReschedule, res *schedule.Resolution, existing []model.CalendarEvent, loc *time.Location) *turnReply {
	candidates := existing
	duration := int(res.Window.Duration() / time.Minute)
	if pending.Kind == model.RescheduleExisting && pending.ConflictID != "" {
		trimmed := make([]model.CalendarEvent, 0, len(existing))
		for _, ev := range existing {
			if ev.ID != pending.ConflictID {
				trimmed = append(trimmed, ev)
			}
		}
		candidates = trimmed
	}

	slots, err := schedule.SuggestSlots(res.Date, duration, candidates, res.Clock, loc)
	if err != nil {
		slots = nil
	}

	content := fmt.Sprintf("That time conflicts with %q.", res.Conflicts[0].Summary)
	if len(slots) > 0 {
		content += " Here are some open times: " + joinSlots(slots) + "."
	}
	content += " What time would work instead?"

	next := *pending
	if next.Kind == model.RescheduleNew && next.Suggestion != nil {
		sug := *next.Suggestion
		sug.Date = res.Date
		sug.Time = res.Clock
		sug.Conflicts = res.Conflicts
		sug.SuggestedSlots = slots
		next.Suggestion = &sug
	}

	return &turnReply{
		content:    content,
		suggestion: next.Suggestion,
		pending:    &next,
	}
}

// moveExisting rewrites the conflicting calendar entry at its new time. The
// write happens immediately; the freed-up original slot is then open for
// the user's next request.
func (s *ChatService) moveExisting(ctx context.Context, cal calendar.Client, tenantID, conversationID string, pending *model.PendingReschedule, res *schedule.Resolution, loc *time.Location) (*turnReply, error) {
	moved := *pending.Existing
	moved.Start = model.EventDateTime{DateTime: res.Window.Start.Format(time.RFC3339), TimeZone: loc.String()}
	moved.End = model.EventDateTime{DateTime: res.Window.End.Format(time.RFC3339), TimeZone: loc.String()}

	updated, err := cal.UpdateEvent(ctx, pending.ConflictID, &moved)
	if err != nil {
		return nil, err
	}

	if _, err := s.streams.PublishScheduleEvent(ctx, &natsclient.ScheduleEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		TenantID:       tenantID,
		Action:         "updated",
		CalendarID:     updated.ID,
		Summary:        updated.Summary,
		Start:          res.Window.Start,
		End:            res.Window.End,
		CreatedAt:      time.Now(),
		ConversationID: conversationID,
	}); err != nil {
		s.logger.Warn("failed to publish schedule event", zap.Error(err))
	}

	return &turnReply{
		content: fmt.Sprintf("Done! I moved %q to %s on %s. The original time is now free.", updated.Summary, displayClock(res.Clock), res.Date),
	}, nil
}

// slotsForDay fetches the day's events and finds open slots near the
// anchor. Calendar failures degrade to no suggestions; slots are a
// convenience, not a contract.
func (s *ChatService) slotsForDay(ctx context.Context, accessToken, date string, duration int, anchor, excludeID string, loc *time.Location) []model.CandidateSlot {
	cal, err := s.calendars.ClientFor(ctx, accessToken)
	if err != nil {
		return nil
	}
	day, err := schedule.ParseDate(date, loc)
	if err != nil {
		return nil
	}
	existing, err := s.scheduler.ListDayEvents(ctx, cal, day, loc)
	if err != nil {
		return nil
	}
	if excludeID != "" {
		trimmed := make([]model.CalendarEvent, 0, len(existing))
		for _, ev := range existing {
			if ev.ID != excludeID {
				trimmed = append(trimmed, ev)
			}
		}
		existing = trimmed
	}
	slots, err := schedule.SuggestSlots(date, duration, existing, anchor, loc)
	if err != nil {
		return nil
	}
	return slots
}

// appendMessage publishes one message to the conversation log. A log
// failure is reported but never fails the turn; the reply still reaches
// the user.
func (s *ChatService) appendMessage(ctx context.Context, tenantID, conversationID string, role model.Role, content string, sug *model.EventSuggestion) *model.Message {
	msg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		TenantID:       tenantID,
		Role:           role,
		Content:        content,
		Suggestion:     sug,
		CreatedAt:      time.Now(),
	}

	seq, err := s.streams.PublishMessage(ctx, msg)
	if err != nil {
		s.logger.Error("failed to persist message",
			zap.String("conversation_id", conversationID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
	} else {
		msg.Sequence = seq
	}

	metrics.MessagesTotal.WithLabelValues(tenantID, string(role)).Inc()
	return msg
}

func (s *ChatService) resolveZone(name string) *time.Location {
	if name == "" {
		return s.defaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		s.logger.Warn("unknown time zone, using default", zap.String("time_zone", name))
		return s.defaultZone
	}
	return loc
}

func userContent(req *model.ChatTurnRequest) string {
	if req.Content != "" {
		return req.Content
	}
	return req.Choice
}

// eventClock extracts an event's start as an HH:MM anchor for slot search.
func eventClock(ev *model.CalendarEvent) (string, bool) {
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", start.Hour(), start.Minute()), true
}

// displayClock renders a 24-hour HH:MM value the way it reads in chat,
// e.g. "14:30" becomes "2:30 PM".
func displayClock(clock string) string {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return clock
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return clock
	}
	return schedule.FormatClock12(hour, minute)
}

func joinSlots(slots []model.CandidateSlot) string {
	displays := make([]string, len(slots))
	for i, slot := range slots {
		displays[i] = slot.Display
	}
	return strings.Join(displays, ", ")
}

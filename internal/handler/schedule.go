package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phamrachel17/plan-pal/internal/calendar"
	"github.com/phamrachel17/plan-pal/internal/middleware"
	"github.com/phamrachel17/plan-pal/internal/model"
	natsclient "github.com/phamrachel17/plan-pal/internal/nats"
	"github.com/phamrachel17/plan-pal/internal/schedule"
	"github.com/phamrachel17/plan-pal/internal/service"
	"github.com/phamrachel17/plan-pal/pkg/logger"
)

// ScheduleHandler places confirmed events on the user's calendar.
type ScheduleHandler struct {
	scheduler   *schedule.Scheduler
	calendars   calendar.Provider
	streams     service.MessageLog
	defaultZone *time.Location
	logger      *logger.Logger
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(scheduler *schedule.Scheduler, calendars calendar.Provider, streams service.MessageLog, defaultZone *time.Location, log *logger.Logger) *ScheduleHandler {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &ScheduleHandler{
		scheduler:   scheduler,
		calendars:   calendars,
		streams:     streams,
		defaultZone: defaultZone,
		logger:      log,
	}
}

// Create handles POST /api/v1/schedule
//
// The candidate window is checked against the day's calendar before any
// write. A clean window is created and returned with 201; a conflicting one
// is rejected with 409 carrying the colliding events and open alternatives.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)

	var req model.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Event == nil || req.Event.Title == "" {
		writeError(w, http.StatusBadRequest, "event with a title is required")
		return
	}

	loc := h.resolveZone(req.Event.TimeZone)

	if err := schedule.ValidateNotPast(req.Event.Date, time.Now(), loc); err != nil {
		writeDomainError(w, err)
		return
	}

	cal, err := h.calendars.ClientFor(ctx, middleware.GetCalendarToken(ctx))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	outcome, err := h.scheduler.AttemptSchedule(ctx, cal, req.Event, loc)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if outcome.Status == schedule.StatusConflict {
		writeJSON(w, http.StatusConflict, &model.ScheduleConflictResponse{
			Error:          "scheduling conflict detected",
			Conflicts:      outcome.Conflicts,
			SuggestedSlots: outcome.SuggestedSlots,
		})
		return
	}

	created, err := cal.CreateEvent(ctx, schedule.EventFromSuggestion(req.Event, outcome.Window, loc))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.publishScheduleEvent(ctx, tenantID, "created", created, outcome.Window)

	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/v1/events/{id}
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	eventID := chi.URLParam(r, "id")

	if eventID == "" {
		writeError(w, http.StatusBadRequest, "event ID is required")
		return
	}

	var ev model.CalendarEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cal, err := h.calendars.ClientFor(ctx, middleware.GetCalendarToken(ctx))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := cal.UpdateEvent(ctx, eventID, &ev)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	window := model.EventWindow{}
	if start, err := time.Parse(time.RFC3339, updated.Start.DateTime); err == nil {
		if end, err := time.Parse(time.RFC3339, updated.End.DateTime); err == nil {
			window = model.EventWindow{Start: start, End: end}
		}
	}
	h.publishScheduleEvent(ctx, tenantID, "updated", updated, window)

	writeJSON(w, http.StatusOK, updated)
}

// publishScheduleEvent notifies downstream consumers of a confirmed write.
// Notification failure never fails the request; the calendar is already
// updated.
func (h *ScheduleHandler) publishScheduleEvent(ctx context.Context, tenantID, action string, ev *model.CalendarEvent, window model.EventWindow) {
	if _, err := h.streams.PublishScheduleEvent(ctx, &natsclient.ScheduleEvent{
		ID:         uuid.Must(uuid.NewV7()).String(),
		TenantID:   tenantID,
		Action:     action,
		CalendarID: ev.ID,
		Summary:    ev.Summary,
		Start:      window.Start,
		End:        window.End,
		CreatedAt:  time.Now(),
	}); err != nil {
		h.logger.Warn("failed to publish schedule event",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (h *ScheduleHandler) resolveZone(name string) *time.Location {
	if name == "" {
		return h.defaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return h.defaultZone
	}
	return loc
}

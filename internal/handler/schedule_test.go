package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phamrachel17/plan-pal/internal/calendar"
	"github.com/phamrachel17/plan-pal/internal/middleware"
	"github.com/phamrachel17/plan-pal/internal/model"
	natsclient "github.com/phamrachel17/plan-pal/internal/nats"
	"github.com/phamrachel17/plan-pal/internal/schedule"
	"github.com/phamrachel17/plan-pal/pkg/logger"
)

type fakeLog struct {
	events []*natsclient.ScheduleEvent
}

func (f *fakeLog) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	return 0, nil
}

func (f *fakeLog) PublishScheduleEvent(ctx context.Context, ev *natsclient.ScheduleEvent) (uint64, error) {
	f.events = append(f.events, ev)
	return 1, nil
}

type fakeCal struct {
	events []model.CalendarEvent
}

func (f *fakeCal) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]model.CalendarEvent, error) {
	return f.events, nil
}

func (f *fakeCal) CreateEvent(ctx context.Context, ev *model.CalendarEvent) (*model.CalendarEvent, error) {
	out := *ev
	out.ID = "created-1"
	return &out, nil
}

func (f *fakeCal) UpdateEvent(ctx context.Context, id string, ev *model.CalendarEvent) (*model.CalendarEvent, error) {
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

func scheduleRequest(t *testing.T, event *model.EventSuggestion) *http.Request {
	t.Helper()
	body, err := json.Marshal(&model.ScheduleRequest{Event: event})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule", bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.TenantIDKey, "t1")
	ctx = context.WithValue(ctx, middleware.CalendarTokenKey, "tok")
	return req.WithContext(ctx)
}

func newScheduleHandler(provider *fakeProvider, streams *fakeLog) *ScheduleHandler {
	log := logger.NewNop()
	return NewScheduleHandler(schedule.NewScheduler(log), provider, streams, time.UTC, log)
}

func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func TestScheduleCreateClean(t *testing.T) {
	streams := &fakeLog{}
	h := newScheduleHandler(&fakeProvider{client: &fakeCal{}}, streams)

	rr := httptest.NewRecorder()
	h.Create(rr, scheduleRequest(t, &model.EventSuggestion{
		Title:    "Dinner",
		Date:     futureDate(),
		Time:     "19:00",
		Duration: 60,
	}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var created model.CalendarEvent
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != "created-1" || created.Summary != "Dinner" {
		t.Errorf("created = %+v", created)
	}
	if len(streams.events) != 1 || streams.events[0].Action != "created" {
		t.Errorf("schedule events = %+v", streams.events)
	}
}

func TestScheduleCreateConflict(t *testing.T) {
	date := futureDate()
	busy := model.CalendarEvent{
		ID:      "m",
		Summary: "Meeting",
		Start:   model.EventDateTime{DateTime: date + "T19:00:00Z"},
		End:     model.EventDateTime{DateTime: date + "T20:00:00Z"},
	}
	streams := &fakeLog{}
	h := newScheduleHandler(&fakeProvider{client: &fakeCal{events: []model.CalendarEvent{busy}}}, streams)

	rr := httptest.NewRecorder()
	h.Create(rr, scheduleRequest(t, &model.EventSuggestion{
		Title:    "Dinner",
		Date:     date,
		Time:     "19:30",
		Duration: 60,
	}))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp model.ScheduleConflictResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Conflicts) != 1 || resp.Conflicts[0].ID != "m" {
		t.Errorf("conflicts = %+v", resp.Conflicts)
	}
	if len(resp.SuggestedSlots) == 0 {
		t.Error("conflict response has no suggested slots")
	}
	if len(streams.events) != 0 {
		t.Error("conflicting request published a schedule event")
	}
}

func TestScheduleCreateRejectsPastDate(t *testing.T) {
	h := newScheduleHandler(&fakeProvider{client: &fakeCal{}}, &fakeLog{})

	rr := httptest.NewRecorder()
	h.Create(rr, scheduleRequest(t, &model.EventSuggestion{
		Title: "Dinner",
		Date:  "2020-01-01",
		Time:  "19:00",
	}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestScheduleCreateAuthError(t *testing.T) {
	h := newScheduleHandler(&fakeProvider{err: calendar.ErrAuth}, &fakeLog{})

	rr := httptest.NewRecorder()
	h.Create(rr, scheduleRequest(t, &model.EventSuggestion{
		Title: "Dinner",
		Date:  futureDate(),
		Time:  "19:00",
	}))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestScheduleCreateRequiresTitle(t *testing.T) {
	h := newScheduleHandler(&fakeProvider{client: &fakeCal{}}, &fakeLog{})

	rr := httptest.NewRecorder()
	h.Create(rr, scheduleRequest(t, &model.EventSuggestion{Date: futureDate(), Time: "19:00"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/phamrachel17/plan-pal/internal/model"
)

const primaryCalendar = "primary"

// GoogleProvider builds Google Calendar clients from per-request OAuth
// access tokens.
type GoogleProvider struct{}

// NewGoogleProvider creates a Google Calendar provider.
func NewGoogleProvider() *GoogleProvider {
	return &GoogleProvider{}
}

// ClientFor returns a client authenticated as the token's owner.
func (p *GoogleProvider) ClientFor(ctx context.Context, accessToken string) (Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrAuth)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return &googleClient{svc: svc}, nil
}

type googleClient struct {
	svc *gcal.Service
}

func (c *googleClient) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]model.CalendarEvent, error) {
	resp, err := c.svc.Events.List(primaryCalendar).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(err)
	}

	events := make([]model.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, fromGoogle(item))
	}
	return events, nil
}

func (c *googleClient) CreateEvent(ctx context.Context, ev *model.CalendarEvent) (*model.CalendarEvent, error) {
	created, err := c.svc.Events.Insert(primaryCalendar, toGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	out := fromGoogle(created)
	return &out, nil
}

func (c *googleClient) UpdateEvent(ctx context.Context, id string, ev *model.CalendarEvent) (*model.CalendarEvent, error) {
	updated, err := c.svc.Events.Update(primaryCalendar, id, toGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	out := fromGoogle(updated)
	return &out, nil
}

func fromGoogle(item *gcal.Event) model.CalendarEvent {
	ev := model.CalendarEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
	}
	if ev.Summary == "" {
		ev.Summary = "Untitled Event"
	}
	if item.Start != nil {
		ev.Start = model.EventDateTime{DateTime: item.Start.DateTime, Date: item.Start.Date, TimeZone: item.Start.TimeZone}
	}
	if item.End != nil {
		ev.End = model.EventDateTime{DateTime: item.End.DateTime, Date: item.End.Date, TimeZone: item.End.TimeZone}
	}
	return ev
}

func toGoogle(ev *model.CalendarEvent) *gcal.Event {
	return &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.DateTime, Date: ev.Start.Date, TimeZone: ev.Start.TimeZone},
		End:         &gcal.EventDateTime{DateTime: ev.End.DateTime, Date: ev.End.Date, TimeZone: ev.End.TimeZone},
	}
}

func mapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrAuth, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrPermission, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrRemote, err)
}

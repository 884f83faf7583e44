// Package calendar provides the external calendar collaborator: a fetch /
// insert / update interface over a remote event store, with a Google
// Calendar implementation.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/phamrachel17/plan-pal/internal/model"
)

var (
	// ErrAuth means the calendar credentials are expired or missing. It is
	// surfaced as a re-authentication prompt and never swallowed into
	// "no conflicts found".
	ErrAuth = errors.New("calendar authentication failed")

	// ErrPermission means the granted calendar scope is insufficient.
	ErrPermission = errors.New("calendar access denied")

	// ErrRemote covers transient network or calendar-API failures.
	ErrRemote = errors.New("calendar request failed")
)

// Client is the per-user view of the remote event store. Reads and writes
// are network calls: slow, fallible, and cancellable through ctx.
type Client interface {
	// ListEvents returns all events whose bound intersects
	// [timeMin, timeMax), ordered by start.
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]model.CalendarEvent, error)

	// CreateEvent inserts a new event on the user's primary calendar.
	CreateEvent(ctx context.Context, ev *model.CalendarEvent) (*model.CalendarEvent, error)

	// UpdateEvent rewrites the event with the given id.
	UpdateEvent(ctx context.Context, id string, ev *model.CalendarEvent) (*model.CalendarEvent, error)
}

// Provider builds a Client bound to one user's access token. Token refresh
// is the caller's concern; an empty or stale token surfaces as ErrAuth.
type Provider interface {
	ClientFor(ctx context.Context, accessToken string) (Client, error)
}

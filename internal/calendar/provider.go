package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Provider is the calendar backend the sync service talks to.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource

	CreateEvent(ctx context.Context, ts oauth2.TokenSource, event Event) (string, error)
	UpdateEvent(ctx context.Context, ts oauth2.TokenSource, eventID string, event Event) error
	DeleteEvent(ctx context.Context, ts oauth2.TokenSource, eventID string) error
}

// Event describes an all-day calendar entry for a task deadline.
type Event struct {
	Summary     string
	Description string
	Date        time.Time
	ColorID     string
}

// Reminder offsets applied to every event.
const (
	EmailReminderMinutes = 24 * 60
	PopupReminderMinutes = 60
)

// Colour ids per task status; anything unknown renders like planning.
var statusColors = map[string]string{
	"planning":    "9",
	"in-progress": "5",
	"completed":   "10",
}

// ColorForStatus maps a task status to a calendar colour id.
func ColorForStatus(status string) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return "9"
}

// TaskEvent builds the event for a task deadline.
func TaskEvent(taskName, taskDescription, projectName, status string, deadline time.Time) Event {
	description := taskDescription
	if description == "" {
		description = "No description"
	}

	return Event{
		Summary:     fmt.Sprintf("[OnSwift] %s", taskName),
		Description: fmt.Sprintf("Project: %s\n\n%s\n\nStatus: %s", projectName, description, status),
		Date:        deadline,
		ColorID:     ColorForStatus(status),
	}
}

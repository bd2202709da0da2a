package events

import (
	"time"

	"github.com/lumenlive/backend/internal/models"
)

// DeriveStatus computes the event status from wall-clock time. A manual
// override always wins; otherwise the status follows the scheduled window.
func DeriveStatus(now time.Time, startsAt time.Time, durationMinutes int, manualStatus string) string {
	if manualStatus != "" {
		return manualStatus
	}
	endsAt := startsAt.Add(time.Duration(durationMinutes) * time.Minute)
	switch {
	case now.Before(startsAt):
		return models.StatusUpcoming
	case now.After(endsAt):
		return models.StatusCompleted
	default:
		return models.StatusLive
	}
}

// EventWithStatus is an event annotated with its derived status for API responses.
type EventWithStatus struct {
	models.Event
	Status string `json:"status"`
}

// WithStatus annotates an event with its status as of now.
func WithStatus(e models.Event, now time.Time) EventWithStatus {
	return EventWithStatus{
		Event:  e,
		Status: DeriveStatus(now, e.StartsAt, e.DurationMinutes, e.ManualStatus),
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Event status values derived from schedule, or forced via ManualStatus.
const (
	StatusUpcoming  = "upcoming"
	StatusLive      = "live"
	StatusCompleted = "completed"
)

// Event represents a scheduled webinar.
type Event struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int       `json:"price_cents"`
	ManualStatus    string    `json:"manual_status,omitempty"` // "" = auto, "completed" = forced
	OrganizerID     uuid.UUID `json:"organizer_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsFree reports whether the event has no ticket price.
func (e *Event) IsFree() bool {
	return e.PriceCents == 0
}

// EndsAt returns the scheduled end of the event.
func (e *Event) EndsAt() time.Time {
	return e.StartsAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

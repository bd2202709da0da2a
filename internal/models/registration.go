package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration records that a user intends to attend an event.
// Unique per (event, user).
type Registration struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"event_id"`
	UserID       uuid.UUID `json:"user_id"`
	Attended     bool      `json:"attended"`
	RegisteredAt time.Time `json:"registered_at"`
}

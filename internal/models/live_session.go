package models

import (
	"time"

	"github.com/google/uuid"
)

// LiveSession is the video-conferencing session for an event.
// One row per event; re-activatable any number of times.
type LiveSession struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	RoomName  string     `json:"room_name"`
	IsActive  bool       `json:"is_active"`
	StartTime time.Time  `json:"start_time"`           // row creation, used for duration analytics
	StartedAt *time.Time `json:"started_at,omitempty"` // most recent explicit start
	EndTime   *time.Time `json:"end_time,omitempty"`   // set iff ended; cleared on restart
	StartedBy *uuid.UUID `json:"started_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// LiveSessionParticipant is a join record. Unique per (session, user).
type LiveSessionParticipant struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

// SessionParticipantCount is one row of the per-session analytics breakdown.
type SessionParticipantCount struct {
	EventID          uuid.UUID `json:"webinar_id"`
	Title            string    `json:"title"`
	ParticipantCount int       `json:"participant_count"`
}

// LiveAnalytics aggregates statistics across all live sessions.
type LiveAnalytics struct {
	TotalWebinars                 int                       `json:"total_webinars"`
	TotalLiveSessions             int                       `json:"total_live_sessions"`
	TotalParticipants             int                       `json:"total_participants"`
	AverageSessionDurationMinutes *float64                  `json:"average_session_duration_minutes"`
	SessionsPerWebinar            []SessionParticipantCount `json:"sessions_per_webinar"`
	ActiveSessions                int                       `json:"active_sessions"`
	CompletedSessions             int                       `json:"completed_sessions"`
}

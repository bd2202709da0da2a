package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType tags the origin of a user notification.
type NotificationType string

const (
	NotificationAnnouncement         NotificationType = "announcement"
	NotificationUpcomingWebinar      NotificationType = "upcoming_webinar"
	NotificationNewRecording         NotificationType = "new_recording"
	NotificationLiveStarted          NotificationType = "live_started"
	NotificationLiveEnded            NotificationType = "live_ended"
	NotificationRegistrationApproved NotificationType = "registration_approved"
	NotificationSystem               NotificationType = "system"
	NotificationNewMessage           NotificationType = "new_message"
)

// UserNotification is one fan-out record per recipient.
type UserNotification struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	Type           NotificationType `json:"notification_type"`
	Title          string           `json:"title"`
	Content        string           `json:"content"`
	EventID        *uuid.UUID       `json:"event_id,omitempty"`
	AnnouncementID *uuid.UUID       `json:"announcement_id,omitempty"`
	RecordingID    *uuid.UUID       `json:"recording_id,omitempty"`
	IsRead         bool             `json:"is_read"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Announcement is an admin broadcast; each recipient gets a UserNotification.
type Announcement struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a durable grouping of messages among a fixed set of
// participants, optionally scoped to an event.
type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	EventID       *uuid.UUID `json:"event_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Message is a single message within a conversation.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationSummary is a conversation annotated for the inbox list view.
type ConversationSummary struct {
	Conversation
	Participants []UserPublic `json:"participants"`
	LastMessage  *Message     `json:"last_message,omitempty"`
	UnreadCount  int          `json:"unread_count"`
}

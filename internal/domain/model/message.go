package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConversationSummary is one entry per counterpart the user has
// exchanged messages with, newest conversation first.
type ConversationSummary struct {
	CounterpartID    uuid.UUID `json:"counterpart_id"`
	CounterpartName  string    `json:"counterpart_name"`
	CounterpartPhoto string    `json:"counterpart_photo"`
	LastMessage      string    `json:"last_message"`
	LastMessageAt    time.Time `json:"last_message_at"`
	UnreadCount      int       `json:"unread_count"`
}

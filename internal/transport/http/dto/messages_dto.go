package dto

import (
	"time"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type MessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID.String(),
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

func NewMessageResponses(messages []model.Message) []MessageResponse {
	out := make([]MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = NewMessageResponse(m)
	}
	return out
}

type ConversationResponse struct {
	CounterpartID    string    `json:"counterpart_id"`
	CounterpartName  string    `json:"counterpart_name"`
	CounterpartPhoto string    `json:"counterpart_photo,omitempty"`
	LastMessage      string    `json:"last_message"`
	LastMessageAt    time.Time `json:"last_message_at"`
	UnreadCount      int       `json:"unread_count"`
}

func NewConversationResponses(summaries []model.ConversationSummary) []ConversationResponse {
	out := make([]ConversationResponse, len(summaries))
	for i, s := range summaries {
		out[i] = ConversationResponse{
			CounterpartID:    s.CounterpartID.String(),
			CounterpartName:  s.CounterpartName,
			CounterpartPhoto: s.CounterpartPhoto,
			LastMessage:      s.LastMessage,
			LastMessageAt:    s.LastMessageAt,
			UnreadCount:      s.UnreadCount,
		}
	}
	return out
}

type MarkReadResponse struct {
	MarkedRead int64 `json:"marked_read"`
}

package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
	"github.com/genemasaka/kenyan-connections-circle/internal/repo/postgres"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyMessage    = errors.New("message content is empty")
	ErrMessageTooLong  = errors.New("message content too long")
	ErrNotMatched      = errors.New("pair has no accepted match")
	ErrBlocked         = errors.New("pair is blocked")
	ErrMessageNotFound = errors.New("message not found")
)

const defaultMaxContentLen = 2000

type MessageStore interface {
	Create(ctx context.Context, m model.Message) error
	ListBetween(ctx context.Context, a, b uuid.UUID) ([]model.Message, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]postgres.ConversationRecord, error)
	MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error)
	DeleteByID(ctx context.Context, id, senderID uuid.UUID) (bool, error)
}

type MatchStore interface {
	HasAccepted(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type BlockStore interface {
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type ProfileStore interface {
	GetMany(ctx context.Context, userIDs []uuid.UUID) ([]model.Profile, error)
}

// Publisher fans a stored message out to live subscribers. Delivery is
// best effort; persistence already happened by the time it is called.
type Publisher interface {
	PublishMessage(ctx context.Context, m model.Message) error
}

type Config struct {
	MaxContentLen int
}

type Service struct {
	messages  MessageStore
	matches   MatchStore
	blocks    BlockStore
	profiles  ProfileStore
	publisher Publisher
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

type Dependencies struct {
	Messages  MessageStore
	Matches   MatchStore
	Blocks    BlockStore
	Profiles  ProfileStore
	Publisher Publisher
	Logger    *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxContentLen <= 0 {
		cfg.MaxContentLen = defaultMaxContentLen
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		messages:  deps.Messages,
		matches:   deps.Matches,
		blocks:    deps.Blocks,
		profiles:  deps.Profiles,
		publisher: deps.Publisher,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Send persists a message from senderID to receiverID. Messaging is
// only open between members with an accepted match, and this check
// lives here alone so no other path can drift from it.
func (s *Service) Send(ctx context.Context, senderID, receiverID uuid.UUID, content string) (model.Message, error) {
	if senderID == uuid.Nil || receiverID == uuid.Nil {
		return model.Message{}, ErrInvalidInput
	}
	if senderID == receiverID {
		return model.Message{}, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return model.Message{}, ErrEmptyMessage
	}
	if len(trimmed) > s.cfg.MaxContentLen {
		return model.Message{}, ErrMessageTooLong
	}

	blocked, err := s.blocks.IsBlockedEither(ctx, senderID, receiverID)
	if err != nil {
		return model.Message{}, fmt.Errorf("check blocks: %w", err)
	}
	if blocked {
		return model.Message{}, ErrBlocked
	}

	matched, err := s.matches.HasAccepted(ctx, senderID, receiverID)
	if err != nil {
		return model.Message{}, fmt.Errorf("check match: %w", err)
	}
	if !matched {
		return model.Message{}, ErrNotMatched
	}

	message := model.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    trimmed,
		CreatedAt:  s.now(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return model.Message{}, fmt.Errorf("store message: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishMessage(ctx, message); err != nil {
			s.logger.Warn("publish message failed",
				zap.String("message_id", message.ID.String()),
				zap.Error(err))
		}
	}

	return message, nil
}

// ThreadWith returns the full two-way history between userID and
// otherID, oldest first.
func (s *Service) ThreadWith(ctx context.Context, userID, otherID uuid.UUID) ([]model.Message, error) {
	if userID == uuid.Nil || otherID == uuid.Nil || userID == otherID {
		return nil, ErrInvalidInput
	}

	messages, err := s.messages.ListBetween(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("list thread: %w", err)
	}
	return messages, nil
}

// ListConversations returns one summary per counterpart, newest
// activity first, with name and photo resolved through the privacy
// filter.
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]model.ConversationSummary, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	records, err := s.messages.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		ids[i] = rec.CounterpartID
	}
	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load counterpart profiles: %w", err)
	}
	byID := make(map[uuid.UUID]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.UserID] = p
	}

	out := make([]model.ConversationSummary, 0, len(records))
	for _, rec := range records {
		summary := model.ConversationSummary{
			CounterpartID: rec.CounterpartID,
			LastMessage:   rec.LastMessage,
			LastMessageAt: rec.LastMessageAt,
			UnreadCount:   rec.UnreadCount,
		}
		if profile, ok := byID[rec.CounterpartID]; ok {
			public := profile.PublicView()
			summary.CounterpartName = public.Name
			summary.CounterpartPhoto = public.ProfilePhoto
		}
		out = append(out, summary)
	}
	return out, nil
}

// MarkThreadRead flags everything senderID sent to userID as read and
// returns how many messages flipped.
func (s *Service) MarkThreadRead(ctx context.Context, userID, senderID uuid.UUID) (int64, error) {
	if userID == uuid.Nil || senderID == uuid.Nil || userID == senderID {
		return 0, ErrInvalidInput
	}

	count, err := s.messages.MarkRead(ctx, userID, senderID)
	if err != nil {
		return 0, fmt.Errorf("mark thread read: %w", err)
	}
	return count, nil
}

// Delete removes a single message. Only the sender may delete, and an
// unknown or foreign message reports ErrMessageNotFound either way.
func (s *Service) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	if userID == uuid.Nil || messageID == uuid.Nil {
		return ErrInvalidInput
	}

	deleted, err := s.messages.DeleteByID(ctx, messageID, userID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if !deleted {
		return ErrMessageNotFound
	}
	return nil
}

package messaging

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
	"github.com/genemasaka/kenyan-connections-circle/internal/repo/postgres"
)

type stubMessageStore struct {
	messages []model.Message
}

func (s *stubMessageStore) Create(_ context.Context, m model.Message) error {
	s.messages = append(s.messages, m)
	return nil
}

func (s *stubMessageStore) ListBetween(_ context.Context, a, b uuid.UUID) ([]model.Message, error) {
	var out []model.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *stubMessageStore) ListConversations(_ context.Context, userID uuid.UUID) ([]postgres.ConversationRecord, error) {
	type agg struct {
		last    model.Message
		unread  int
		touched bool
	}
	byCounterpart := make(map[uuid.UUID]*agg)
	for _, m := range s.messages {
		var counterpart uuid.UUID
		switch userID {
		case m.SenderID:
			counterpart = m.ReceiverID
		case m.ReceiverID:
			counterpart = m.SenderID
		default:
			continue
		}
		entry, ok := byCounterpart[counterpart]
		if !ok {
			entry = &agg{}
			byCounterpart[counterpart] = entry
		}
		if !entry.touched || m.CreatedAt.After(entry.last.CreatedAt) {
			entry.last = m
			entry.touched = true
		}
		if m.ReceiverID == userID && !m.IsRead {
			entry.unread++
		}
	}

	out := make([]postgres.ConversationRecord, 0, len(byCounterpart))
	for id, entry := range byCounterpart {
		out = append(out, postgres.ConversationRecord{
			CounterpartID: id,
			LastMessage:   entry.last.Content,
			LastMessageAt: entry.last.CreatedAt,
			UnreadCount:   entry.unread,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (s *stubMessageStore) MarkRead(_ context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	var count int64
	for i, m := range s.messages {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead {
			s.messages[i].IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *stubMessageStore) DeleteByID(_ context.Context, id, senderID uuid.UUID) (bool, error) {
	for i, m := range s.messages {
		if m.ID == id && m.SenderID == senderID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type stubMatchStore struct {
	accepted map[[2]uuid.UUID]struct{}
}

func newStubMatchStore() *stubMatchStore {
	return &stubMatchStore{accepted: make(map[[2]uuid.UUID]struct{})}
}

func (s *stubMatchStore) match(a, b uuid.UUID) {
	s.accepted[[2]uuid.UUID{a, b}] = struct{}{}
}

func (s *stubMatchStore) HasAccepted(_ context.Context, a, b uuid.UUID) (bool, error) {
	if _, ok := s.accepted[[2]uuid.UUID{a, b}]; ok {
		return true, nil
	}
	_, ok := s.accepted[[2]uuid.UUID{b, a}]
	return ok, nil
}

type stubBlockStore struct {
	blocked map[[2]uuid.UUID]struct{}
}

func newStubBlockStore() *stubBlockStore {
	return &stubBlockStore{blocked: make(map[[2]uuid.UUID]struct{})}
}

func (s *stubBlockStore) block(a, b uuid.UUID) {
	s.blocked[[2]uuid.UUID{a, b}] = struct{}{}
}

func (s *stubBlockStore) IsBlockedEither(_ context.Context, a, b uuid.UUID) (bool, error) {
	if _, ok := s.blocked[[2]uuid.UUID{a, b}]; ok {
		return true, nil
	}
	_, ok := s.blocked[[2]uuid.UUID{b, a}]
	return ok, nil
}

type stubProfileStore struct {
	profiles map[uuid.UUID]model.Profile
}

func (s *stubProfileStore) GetMany(_ context.Context, userIDs []uuid.UUID) ([]model.Profile, error) {
	out := make([]model.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type capturingPublisher struct {
	published []model.Message
	err       error
}

func (p *capturingPublisher) PublishMessage(_ context.Context, m model.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, m)
	return nil
}

type msgFixture struct {
	svc       *Service
	messages  *stubMessageStore
	matches   *stubMatchStore
	blocks    *stubBlockStore
	profiles  *stubProfileStore
	publisher *capturingPublisher
}

func newMsgFixture() *msgFixture {
	messages := &stubMessageStore{}
	matches := newStubMatchStore()
	blocks := newStubBlockStore()
	profiles := &stubProfileStore{profiles: make(map[uuid.UUID]model.Profile)}
	publisher := &capturingPublisher{}

	svc := NewService(Dependencies{
		Messages:  messages,
		Matches:   matches,
		Blocks:    blocks,
		Profiles:  profiles,
		Publisher: publisher,
	}, Config{MaxContentLen: 100})

	return &msgFixture{svc: svc, messages: messages, matches: matches, blocks: blocks, profiles: profiles, publisher: publisher}
}

func TestSendRequiresAcceptedMatch(t *testing.T) {
	f := newMsgFixture()
	amina, daudi := uuid.New(), uuid.New()

	if _, err := f.svc.Send(context.Background(), amina, daudi, "hey"); !errors.Is(err, ErrNotMatched) {
		t.Fatalf("expected ErrNotMatched, got %v", err)
	}

	f.matches.match(amina, daudi)

	msg, err := f.svc.Send(context.Background(), amina, daudi, "  hey there  ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "hey there" {
		t.Fatalf("expected trimmed content, got %q", msg.Content)
	}
	if len(f.publisher.published) != 1 {
		t.Fatalf("expected one published message, got %d", len(f.publisher.published))
	}
}

func TestSendContentValidation(t *testing.T) {
	f := newMsgFixture()
	amina, daudi := uuid.New(), uuid.New()
	f.matches.match(amina, daudi)

	if _, err := f.svc.Send(context.Background(), amina, daudi, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := f.svc.Send(context.Background(), amina, daudi, strings.Repeat("x", 101)); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
	if _, err := f.svc.Send(context.Background(), amina, amina, "hi"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self send, got %v", err)
	}
}

func TestSendBlockedPair(t *testing.T) {
	f := newMsgFixture()
	amina, daudi := uuid.New(), uuid.New()
	f.matches.match(amina, daudi)
	f.blocks.block(daudi, amina)

	if _, err := f.svc.Send(context.Background(), amina, daudi, "hi"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if len(f.messages.messages) != 0 {
		t.Fatal("blocked message must not be stored")
	}
}

func TestSendSurvivesPublisherFailure(t *testing.T) {
	f := newMsgFixture()
	amina, daudi := uuid.New(), uuid.New()
	f.matches.match(amina, daudi)
	f.publisher.err = errors.New("broker down")

	if _, err := f.svc.Send(context.Background(), amina, daudi, "hi"); err != nil {
		t.Fatalf("send must succeed when only the publish fails, got %v", err)
	}
	if len(f.messages.messages) != 1 {
		t.Fatal("message must still be stored")
	}
}

func TestThreadOrderingAndMarkRead(t *testing.T) {
	f := newMsgFixture()
	amina, daudi := uuid.New(), uuid.New()
	f.matches.match(amina, daudi)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		sender, receiver := amina, daudi
		if i == 1 {
			sender, receiver = daudi, amina
		}
		at := base.Add(time.Duration(i) * time.Minute)
		f.svc.now = func() time.Time { return at }
		if _, err := f.svc.Send(context.Background(), sender, receiver, text); err != nil {
			t.Fatalf("send %q: %v", text, err)
		}
	}

	thread, err := f.svc.ThreadWith(context.Background(), daudi, amina)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(thread))
	}
	for i, want := range []string{"first", "second", "third"} {
		if thread[i].Content != want {
			t.Fatalf("message %d: expected %q, got %q", i, want, thread[i].Content)
		}
	}

	count, err := f.svc.MarkThreadRead(context.Background(), daudi, amina)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 messages flipped, got %d", count)
	}

	// A second pass finds nothing unread.
	count, err = f.svc.MarkThreadRead(context.Background(), daudi, amina)
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected idempotent mark read, got %d", count)
	}
}

func TestListConversations(t *testing.T) {
	f := newMsgFixture()
	amina, daudi, esther := uuid.New(), uuid.New(), uuid.New()
	f.matches.match(amina, daudi)
	f.matches.match(amina, esther)
	f.profiles.profiles[daudi] = model.Profile{UserID: daudi, Name: "Daudi", ProfilePhoto: "d.jpg", ShowPhoto: true}
	f.profiles.profiles[esther] = model.Profile{UserID: esther, Name: "Esther", ProfilePhoto: "e.jpg", ShowPhoto: false}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return base }
	if _, err := f.svc.Send(context.Background(), daudi, amina, "habari"); err != nil {
		t.Fatalf("send: %v", err)
	}
	f.svc.now = func() time.Time { return base.Add(time.Minute) }
	if _, err := f.svc.Send(context.Background(), esther, amina, "mambo"); err != nil {
		t.Fatalf("send: %v", err)
	}

	conversations, err := f.svc.ListConversations(context.Background(), amina)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}

	// Newest activity first.
	if conversations[0].CounterpartName != "Esther" || conversations[1].CounterpartName != "Daudi" {
		t.Fatalf("unexpected order: %+v", conversations)
	}
	if conversations[0].UnreadCount != 1 || conversations[1].UnreadCount != 1 {
		t.Fatalf("unexpected unread counts: %+v", conversations)
	}

	// Esther hides her photo; the summary respects that.
	if conversations[0].CounterpartPhoto != "" {
		t.Fatal("expected hidden photo stripped from summary")
	}
	if conversations[1].CounterpartPhoto != "d.jpg" {
		t.Fatalf("expected visible photo kept, got %q", conversations[1].CounterpartPhoto)
	}
}

func TestDeleteOwnMessageOnly(t *testing.T) {
	f := newMsgFixture()
	amina, daudi := uuid.New(), uuid.New()
	f.matches.match(amina, daudi)

	msg, err := f.svc.Send(context.Background(), amina, daudi, "oops")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := f.svc.Delete(context.Background(), daudi, msg.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("receiver must not delete, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), amina, msg.ID); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if err := f.svc.Delete(context.Background(), amina, msg.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound for gone message, got %v", err)
	}
}

func TestSendStampsRecordWithServiceClock(t *testing.T) {
	f := newMsgFixture()
	amina, daudi := uuid.New(), uuid.New()
	f.matches.match(amina, daudi)

	sent := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return sent }

	msg, err := f.svc.Send(context.Background(), amina, daudi, "habari")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !msg.CreatedAt.Equal(sent) {
		t.Fatalf("returned CreatedAt: got %v want %v", msg.CreatedAt, sent)
	}
	if stored := f.messages.messages[0]; !stored.CreatedAt.Equal(msg.CreatedAt) {
		t.Fatalf("stored row drifted from returned record: %v vs %v", stored.CreatedAt, msg.CreatedAt)
	}
}

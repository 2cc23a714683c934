package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
	"github.com/genemasaka/kenyan-connections-circle/internal/domain/rules"
	"github.com/genemasaka/kenyan-connections-circle/internal/repo/postgres"
)

type stubMatchStore struct {
	matches map[uuid.UUID]model.Match
}

func newStubMatchStore() *stubMatchStore {
	return &stubMatchStore{matches: make(map[uuid.UUID]model.Match)}
}

func (s *stubMatchStore) Create(_ context.Context, m model.Match) error {
	for _, existing := range s.matches {
		if existing.Involves(m.User1ID) && existing.Involves(m.User2ID) {
			return postgres.ErrPairExists
		}
	}
	s.matches[m.ID] = m
	return nil
}

func (s *stubMatchStore) ReplaceRejected(_ context.Context, rejectedID uuid.UUID, m model.Match) error {
	existing, ok := s.matches[rejectedID]
	if !ok || existing.Status != enums.MatchStatusRejected {
		return postgres.ErrMatchNotFound
	}
	delete(s.matches, rejectedID)
	s.matches[m.ID] = m
	return nil
}

func (s *stubMatchStore) GetByID(_ context.Context, id uuid.UUID) (model.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, postgres.ErrMatchNotFound
	}
	return m, nil
}

func (s *stubMatchStore) GetByPair(_ context.Context, a, b uuid.UUID) (model.Match, error) {
	for _, m := range s.matches {
		if m.Involves(a) && m.Involves(b) {
			return m, nil
		}
	}
	return model.Match{}, postgres.ErrMatchNotFound
}

func (s *stubMatchStore) UpdateStatusIfPending(_ context.Context, id, recipientID uuid.UUID, status enums.MatchStatus) (bool, error) {
	m, ok := s.matches[id]
	if !ok || m.User2ID != recipientID || m.Status != enums.MatchStatusPending {
		return false, nil
	}
	m.Status = status
	s.matches[id] = m
	return true, nil
}

func (s *stubMatchStore) ListForUser(_ context.Context, userID uuid.UUID) ([]model.Match, error) {
	var out []model.Match
	for _, m := range s.matches {
		if m.Involves(userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubProfileStore struct {
	profiles map[uuid.UUID]model.Profile
}

func newStubProfileStore() *stubProfileStore {
	return &stubProfileStore{profiles: make(map[uuid.UUID]model.Profile)}
}

func (s *stubProfileStore) Get(_ context.Context, userID uuid.UUID) (model.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, postgres.ErrProfileNotFound
	}
	return p, nil
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

func (s *stubProfileStore) ListCandidates(_ context.Context, selfID uuid.UUID, minAge, maxAge int, exclude []uuid.UUID, limit int) ([]model.Profile, error) {
	excluded := make(map[uuid.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var out []model.Profile
	for id, p := range s.profiles {
		if id == selfID {
			continue
		}
		if _, skip := excluded[id]; skip {
			continue
		}
		if p.Age < minAge || p.Age > maxAge {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubBlockStore struct {
	pairs map[[2]uuid.UUID]struct{}
}

func newStubBlockStore() *stubBlockStore {
	return &stubBlockStore{pairs: make(map[[2]uuid.UUID]struct{})}
}

func (s *stubBlockStore) block(blocker, blocked uuid.UUID) {
	s.pairs[[2]uuid.UUID{blocker, blocked}] = struct{}{}
}

func (s *stubBlockStore) IsBlockedEither(_ context.Context, a, b uuid.UUID) (bool, error) {
	if _, ok := s.pairs[[2]uuid.UUID{a, b}]; ok {
		return true, nil
	}
	_, ok := s.pairs[[2]uuid.UUID{b, a}]
	return ok, nil
}

func (s *stubBlockStore) BlockedEitherIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for pair := range s.pairs {
		if pair[0] == userID {
			out = append(out, pair[1])
		}
		if pair[1] == userID {
			out = append(out, pair[0])
		}
	}
	return out, nil
}

type matchFixture struct {
	svc      *Service
	matches  *stubMatchStore
	profiles *stubProfileStore
	blocks   *stubBlockStore
}

func newMatchFixture() *matchFixture {
	matches := newStubMatchStore()
	profiles := newStubProfileStore()
	blocks := newStubBlockStore()

	svc := NewService(Dependencies{Matches: matches, Profiles: profiles, Blocks: blocks}, Config{})
	return &matchFixture{svc: svc, matches: matches, profiles: profiles, blocks: blocks}
}

func (f *matchFixture) addProfile(name string, age int, interests ...string) uuid.UUID {
	id := uuid.New()
	f.profiles.profiles[id] = model.Profile{UserID: id, Name: name, Age: age, Interests: interests}
	return id
}

func suggestionNames(t *testing.T, svc *Service, userID uuid.UUID) map[string]bool {
	t.Helper()

	got, err := svc.Suggestions(context.Background(), userID)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	names := make(map[string]bool, len(got))
	for _, p := range got {
		names[p.Name] = true
	}
	return names
}

func TestSuggestionsAgeWindowAndSharedInterest(t *testing.T) {
	f := newMatchFixture()
	amina := f.addProfile("Amina", 32, "tech", "hiking")
	f.addProfile("Baraka", 40, "tech")            // outside the window
	f.addProfile("Chebet", 30, "cooking")         // no shared interest
	f.addProfile("Daudi", 27, "design", "tech")   // boundary age, shared tag
	f.addProfile("Esther", 33, "Hiking", "music") // case-insensitive tag match

	names := suggestionNames(t, f.svc, amina)
	if len(names) != 2 || !names["Daudi"] || !names["Esther"] {
		t.Fatalf("unexpected suggestions: %v", names)
	}
}

func TestSuggestionsExcludeExistingMatchesAndBlocks(t *testing.T) {
	f := newMatchFixture()
	amina := f.addProfile("Amina", 32, "tech")
	daudi := f.addProfile("Daudi", 30, "tech")
	esther := f.addProfile("Esther", 31, "tech")
	blocked := f.addProfile("Felix", 32, "tech")

	if _, err := f.svc.SendRequest(context.Background(), amina, daudi); err != nil {
		t.Fatalf("send request: %v", err)
	}
	f.blocks.block(blocked, amina)

	names := suggestionNames(t, f.svc, amina)
	if len(names) != 1 || !names["Esther"] {
		t.Fatalf("expected only Esther, got %v", names)
	}
	_ = esther
}

func TestSendRequestAndAccept(t *testing.T) {
	f := newMatchFixture()
	amina := f.addProfile("Amina", 32, "tech")
	daudi := f.addProfile("Daudi", 30, "tech")

	match, err := f.svc.SendRequest(context.Background(), amina, daudi)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if match.Status != enums.MatchStatusPending {
		t.Fatalf("expected pending, got %s", match.Status)
	}

	incoming, err := f.svc.ListPendingIncoming(context.Background(), daudi)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(incoming) != 1 || incoming[0].Profile.Name != "Amina" {
		t.Fatalf("unexpected incoming list: %+v", incoming)
	}

	// The requester has no incoming request for this pair.
	outgoing, err := f.svc.ListPendingIncoming(context.Background(), amina)
	if err != nil {
		t.Fatalf("list pending for requester: %v", err)
	}
	if len(outgoing) != 0 {
		t.Fatalf("requester must not see own request as incoming: %+v", outgoing)
	}

	accepted, err := f.svc.Accept(context.Background(), daudi, match.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != enums.MatchStatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}

	for _, userID := range []uuid.UUID{amina, daudi} {
		matched, err := f.svc.ListMatched(context.Background(), userID)
		if err != nil {
			t.Fatalf("list matched: %v", err)
		}
		if len(matched) != 1 {
			t.Fatalf("expected one accepted match for both sides, got %d", len(matched))
		}
	}
}

func TestSendRequestGuards(t *testing.T) {
	f := newMatchFixture()
	amina := f.addProfile("Amina", 32, "tech")
	daudi := f.addProfile("Daudi", 30, "tech")

	if _, err := f.svc.SendRequest(context.Background(), amina, amina); !errors.Is(err, ErrSelfMatch) {
		t.Fatalf("expected ErrSelfMatch, got %v", err)
	}

	first, err := f.svc.SendRequest(context.Background(), amina, daudi)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	// Repeating your own pending request returns the same row.
	again, err := f.svc.SendRequest(context.Background(), amina, daudi)
	if err != nil {
		t.Fatalf("repeat request: %v", err)
	}
	if again.ID != first.ID {
		t.Fatal("expected the existing pending row back")
	}

	// The other direction collides with the pending row.
	if _, err := f.svc.SendRequest(context.Background(), daudi, amina); !errors.Is(err, ErrAlreadyRequested) {
		t.Fatalf("expected ErrAlreadyRequested, got %v", err)
	}

	if _, err := f.svc.Accept(context.Background(), daudi, first.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.SendRequest(context.Background(), amina, daudi); !errors.Is(err, ErrAlreadyMatched) {
		t.Fatalf("expected ErrAlreadyMatched, got %v", err)
	}
}

func TestSendRequestBlockedPair(t *testing.T) {
	f := newMatchFixture()
	amina := f.addProfile("Amina", 32, "tech")
	daudi := f.addProfile("Daudi", 30, "tech")
	f.blocks.block(daudi, amina)

	if _, err := f.svc.SendRequest(context.Background(), amina, daudi); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestRespondGuards(t *testing.T) {
	f := newMatchFixture()
	amina := f.addProfile("Amina", 32, "tech")
	daudi := f.addProfile("Daudi", 30, "tech")
	chebet := f.addProfile("Chebet", 31, "tech")

	match, err := f.svc.SendRequest(context.Background(), amina, daudi)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	// Only the recipient can respond; the requester cannot accept for
	// them, and a third party cannot touch the row at all.
	if _, err := f.svc.Accept(context.Background(), amina, match.ID); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("expected ErrNotRecipient for requester, got %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), chebet, match.ID); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("expected ErrNotRecipient for stranger, got %v", err)
	}

	if _, err := f.svc.Reject(context.Background(), daudi, match.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Terminal rows never transition again.
	if _, err := f.svc.Accept(context.Background(), daudi, match.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending after reject, got %v", err)
	}

	if _, err := f.svc.Accept(context.Background(), daudi, uuid.New()); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestRerequestAfterRejectionCooldown(t *testing.T) {
	f := newMatchFixture()
	amina := f.addProfile("Amina", 32, "tech")
	daudi := f.addProfile("Daudi", 30, "tech")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return base }

	match, err := f.svc.SendRequest(context.Background(), amina, daudi)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := f.svc.Reject(context.Background(), daudi, match.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Inside the cooldown the pair stays closed.
	f.svc.now = func() time.Time { return base.Add(rules.RerequestCooldown - time.Hour) }
	if _, err := f.svc.SendRequest(context.Background(), amina, daudi); !errors.Is(err, ErrRecentlyRejected) {
		t.Fatalf("expected ErrRecentlyRejected, got %v", err)
	}

	// After the cooldown a fresh pending request replaces the rejected row.
	f.svc.now = func() time.Time { return base.Add(rules.RerequestCooldown + time.Hour) }
	fresh, err := f.svc.SendRequest(context.Background(), amina, daudi)
	if err != nil {
		t.Fatalf("re-request after cooldown: %v", err)
	}
	if fresh.Status != enums.MatchStatusPending || fresh.ID == match.ID {
		t.Fatalf("expected a new pending row, got %+v", fresh)
	}
	if len(f.matches.matches) != 1 {
		t.Fatalf("expected one row per pair, got %d", len(f.matches.matches))
	}
}

func TestSendRequestStampsRecordWithServiceClock(t *testing.T) {
	f := newMatchFixture()
	amina := f.addProfile("Amina", 32, "tech")
	daudi := f.addProfile("Daudi", 30, "tech")

	sent := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return sent }

	match, err := f.svc.SendRequest(context.Background(), amina, daudi)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if !match.CreatedAt.Equal(sent) {
		t.Fatalf("returned CreatedAt: got %v want %v", match.CreatedAt, sent)
	}

	// The stored row carries the same stamp the caller saw, so the
	// cooldown anchor cannot drift between the two.
	stored := f.matches.matches[match.ID]
	if !stored.CreatedAt.Equal(match.CreatedAt) {
		t.Fatalf("stored row drifted from returned record: %v vs %v", stored.CreatedAt, match.CreatedAt)
	}
}

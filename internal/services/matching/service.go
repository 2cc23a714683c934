package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
	"github.com/genemasaka/kenyan-connections-circle/internal/domain/rules"
	"github.com/genemasaka/kenyan-connections-circle/internal/repo/postgres"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrSelfMatch        = errors.New("cannot match with yourself")
	ErrBlocked          = errors.New("pair is blocked")
	ErrAlreadyRequested = errors.New("request already pending")
	ErrAlreadyMatched   = errors.New("pair already matched")
	ErrRecentlyRejected = errors.New("pair was rejected recently")
	ErrMatchNotFound    = errors.New("match not found")
	ErrNotRecipient     = errors.New("only the recipient can respond")
	ErrNotPending       = errors.New("match is not pending")
)

const defaultSuggestionsLimit = 100

type MatchStore interface {
	Create(ctx context.Context, m model.Match) error
	ReplaceRejected(ctx context.Context, rejectedID uuid.UUID, m model.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Match, error)
	GetByPair(ctx context.Context, a, b uuid.UUID) (model.Match, error)
	UpdateStatusIfPending(ctx context.Context, id, recipientID uuid.UUID, status enums.MatchStatus) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Match, error)
}

type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	GetMany(ctx context.Context, userIDs []uuid.UUID) ([]model.Profile, error)
	ListCandidates(ctx context.Context, selfID uuid.UUID, minAge, maxAge int, exclude []uuid.UUID, limit int) ([]model.Profile, error)
}

type BlockStore interface {
	IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error)
	BlockedEitherIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type Config struct {
	SuggestionsLimit int
}

type Service struct {
	matches  MatchStore
	profiles ProfileStore
	blocks   BlockStore
	cfg      Config

	suggestGroup singleflight.Group
	now          func() time.Time
}

type Dependencies struct {
	Matches  MatchStore
	Profiles ProfileStore
	Blocks   BlockStore
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.SuggestionsLimit <= 0 {
		cfg.SuggestionsLimit = defaultSuggestionsLimit
	}
	return &Service{
		matches:  deps.Matches,
		profiles: deps.Profiles,
		blocks:   deps.Blocks,
		cfg:      cfg,
		now:      time.Now,
	}
}

// MatchView pairs a match row with the counterpart's public profile.
type MatchView struct {
	Match   model.Match   `json:"match"`
	Profile model.Profile `json:"profile"`
}

// Suggestions returns candidate profiles for userID: within the age
// window, sharing at least one interest, and not already tied to the
// caller by a match or a block in either direction. Concurrent calls
// for the same user collapse into one computation.
func (s *Service) Suggestions(ctx context.Context, userID uuid.UUID) ([]model.Profile, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	result, err, _ := s.suggestGroup.Do(userID.String(), func() (interface{}, error) {
		return s.computeSuggestions(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.Profile), nil
}

func (s *Service) computeSuggestions(ctx context.Context, userID uuid.UUID) ([]model.Profile, error) {
	self, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load own profile: %w", err)
	}

	exclude, err := s.excludedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	minAge := self.Age - rules.MaxAgeGap
	maxAge := self.Age + rules.MaxAgeGap
	candidates, err := s.profiles.ListCandidates(ctx, userID, minAge, maxAge, exclude, s.cfg.SuggestionsLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	out := make([]model.Profile, 0, len(candidates))
	for _, candidate := range candidates {
		if !rules.Suggestable(self, candidate) {
			continue
		}
		out = append(out, candidate.PublicView())
	}
	return out, nil
}

// excludedIDs collects everyone already connected to userID by any
// match row or by a block in either direction. Rejected pairs stay
// excluded here; the cooldown in SendRequest is the only re-entry path.
func (s *Service) excludedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	blocked, err := s.blocks.BlockedEitherIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list blocked: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(matches)+len(blocked))
	out := make([]uuid.UUID, 0, len(matches)+len(blocked))
	for _, m := range matches {
		other := m.Counterpart(userID)
		if _, ok := seen[other]; !ok {
			seen[other] = struct{}{}
			out = append(out, other)
		}
	}
	for _, id := range blocked {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// SendRequest creates a pending match from requester to recipient.
// At most one row exists per unordered pair; a rejected row older than
// the cooldown is replaced by a fresh pending request.
func (s *Service) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (model.Match, error) {
	if requesterID == uuid.Nil || recipientID == uuid.Nil {
		return model.Match{}, ErrInvalidInput
	}
	if requesterID == recipientID {
		return model.Match{}, ErrSelfMatch
	}

	blocked, err := s.blocks.IsBlockedEither(ctx, requesterID, recipientID)
	if err != nil {
		return model.Match{}, fmt.Errorf("check blocks: %w", err)
	}
	if blocked {
		return model.Match{}, ErrBlocked
	}

	if _, err := s.profiles.Get(ctx, recipientID); err != nil {
		return model.Match{}, fmt.Errorf("load recipient: %w", err)
	}

	existing, err := s.matches.GetByPair(ctx, requesterID, recipientID)
	switch {
	case err == nil:
		return s.handleExistingPair(ctx, requesterID, recipientID, existing)
	case errors.Is(err, postgres.ErrMatchNotFound):
		// No row yet, fall through to a fresh insert.
	default:
		return model.Match{}, fmt.Errorf("get pair: %w", err)
	}

	match := model.Match{
		ID:        uuid.New(),
		User1ID:   requesterID,
		User2ID:   recipientID,
		Status:    enums.MatchStatusPending,
		CreatedAt: s.now(),
	}
	if err := s.matches.Create(ctx, match); err != nil {
		// A concurrent request for the same pair landed first.
		if errors.Is(err, postgres.ErrPairExists) {
			return model.Match{}, ErrAlreadyRequested
		}
		return model.Match{}, fmt.Errorf("create match: %w", err)
	}
	return match, nil
}

func (s *Service) handleExistingPair(ctx context.Context, requesterID, recipientID uuid.UUID, existing model.Match) (model.Match, error) {
	switch existing.Status {
	case enums.MatchStatusPending:
		// Repeating your own request is a no-op, not an error.
		if existing.User1ID == requesterID {
			return existing, nil
		}
		return model.Match{}, ErrAlreadyRequested
	case enums.MatchStatusAccepted:
		return model.Match{}, ErrAlreadyMatched
	case enums.MatchStatusRejected:
		if !rules.RerequestAllowed(existing.CreatedAt, s.now()) {
			return model.Match{}, ErrRecentlyRejected
		}
		match := model.Match{
			ID:        uuid.New(),
			User1ID:   requesterID,
			User2ID:   recipientID,
			Status:    enums.MatchStatusPending,
			CreatedAt: s.now(),
		}
		if err := s.matches.ReplaceRejected(ctx, existing.ID, match); err != nil {
			if errors.Is(err, postgres.ErrPairExists) {
				return model.Match{}, ErrAlreadyRequested
			}
			return model.Match{}, fmt.Errorf("replace rejected match: %w", err)
		}
		return match, nil
	default:
		return model.Match{}, fmt.Errorf("unexpected match status %q", existing.Status)
	}
}

// Accept moves a pending request to accepted. Only the recipient may
// respond, and terminal rows never change again.
func (s *Service) Accept(ctx context.Context, userID, matchID uuid.UUID) (model.Match, error) {
	return s.respond(ctx, userID, matchID, enums.MatchStatusAccepted)
}

// Reject moves a pending request to rejected.
func (s *Service) Reject(ctx context.Context, userID, matchID uuid.UUID) (model.Match, error) {
	return s.respond(ctx, userID, matchID, enums.MatchStatusRejected)
}

func (s *Service) respond(ctx context.Context, userID, matchID uuid.UUID, status enums.MatchStatus) (model.Match, error) {
	if userID == uuid.Nil || matchID == uuid.Nil {
		return model.Match{}, ErrInvalidInput
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, postgres.ErrMatchNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}
	if match.User2ID != userID {
		return model.Match{}, ErrNotRecipient
	}
	if match.Status != enums.MatchStatusPending {
		return model.Match{}, ErrNotPending
	}

	// The WHERE clause in the store repeats the recipient and pending
	// checks, so a concurrent accept and reject cannot both win.
	updated, err := s.matches.UpdateStatusIfPending(ctx, matchID, userID, status)
	if err != nil {
		return model.Match{}, fmt.Errorf("update match: %w", err)
	}
	if !updated {
		return model.Match{}, ErrNotPending
	}

	match.Status = status
	return match, nil
}

// ListMatched returns accepted matches with the counterpart profiles.
func (s *Service) ListMatched(ctx context.Context, userID uuid.UUID) ([]MatchView, error) {
	return s.listByStatus(ctx, userID, enums.MatchStatusAccepted, func(model.Match) bool { return true })
}

// ListPendingIncoming returns pending requests where userID is the
// recipient. Outgoing pending requests are not included.
func (s *Service) ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]MatchView, error) {
	return s.listByStatus(ctx, userID, enums.MatchStatusPending, func(m model.Match) bool {
		return m.User2ID == userID
	})
}

func (s *Service) listByStatus(ctx context.Context, userID uuid.UUID, status enums.MatchStatus, keep func(model.Match) bool) ([]MatchView, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	selected := make([]model.Match, 0, len(matches))
	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		if m.Status != status || !keep(m) {
			continue
		}
		selected = append(selected, m)
		ids = append(ids, m.Counterpart(userID))
	}
	if len(selected) == 0 {
		return nil, nil
	}

	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load counterpart profiles: %w", err)
	}
	byID := make(map[uuid.UUID]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.UserID] = p
	}

	out := make([]MatchView, 0, len(selected))
	for _, m := range selected {
		profile, ok := byID[m.Counterpart(userID)]
		if !ok {
			// Counterpart account is gone; skip the stale row.
			continue
		}
		out = append(out, MatchView{Match: m, Profile: profile.PublicView()})
	}
	return out, nil
}

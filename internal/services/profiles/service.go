package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
	"github.com/genemasaka/kenyan-connections-circle/internal/repo/postgres"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrProfileNotFound = errors.New("profile not found")
)

const (
	MinAge = 18
	MaxAge = 120

	maxNameLen       = 100
	maxProfessionLen = 120
	maxInterests     = 20
	maxInterestLen   = 40
	maxLookingForLen = 300
)

type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	GetMany(ctx context.Context, userIDs []uuid.UUID) ([]model.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, update model.ProfileUpdate) (model.Profile, error)
	SetPhoto(ctx context.Context, userID uuid.UUID, photoURL string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the owner's full profile, hidden fields included.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	if userID == uuid.Nil {
		return model.Profile{}, ErrInvalidInput
	}

	profile, err := s.store.Get(ctx, userID)
	if err != nil {
		return model.Profile{}, notFoundOr(err, "get profile")
	}
	return profile, nil
}

// GetPublic returns another member's profile with the fields they
// chose to hide stripped out.
func (s *Service) GetPublic(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return profile.PublicView(), nil
}

func (s *Service) GetManyPublic(ctx context.Context, userIDs []uuid.UUID) ([]model.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	profiles, err := s.store.GetMany(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}

	out := make([]model.Profile, len(profiles))
	for i, p := range profiles {
		out[i] = p.PublicView()
	}
	return out, nil
}

// Update applies a partial edit. Only non-nil fields change; the
// stored row keeps everything else as is.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, update model.ProfileUpdate) (model.Profile, error) {
	if userID == uuid.Nil {
		return model.Profile{}, ErrInvalidInput
	}
	if err := validateUpdate(&update); err != nil {
		return model.Profile{}, err
	}

	profile, err := s.store.Update(ctx, userID, update)
	if err != nil {
		return model.Profile{}, notFoundOr(err, "update profile")
	}
	return profile, nil
}

func (s *Service) SetPhoto(ctx context.Context, userID uuid.UUID, photoURL string) error {
	if userID == uuid.Nil {
		return ErrInvalidInput
	}
	if err := s.store.SetPhoto(ctx, userID, photoURL); err != nil {
		return notFoundOr(err, "set photo")
	}
	return nil
}

func validateUpdate(update *model.ProfileUpdate) error {
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return fmt.Errorf("name cannot be blank: %w", ErrInvalidInput)
		}
		if len(trimmed) > maxNameLen {
			return fmt.Errorf("name too long: %w", ErrInvalidInput)
		}
		update.Name = &trimmed
	}
	if update.Age != nil && (*update.Age < MinAge || *update.Age > MaxAge) {
		return fmt.Errorf("age out of range: %w", ErrInvalidInput)
	}
	if update.Profession != nil {
		trimmed := strings.TrimSpace(*update.Profession)
		if len(trimmed) > maxProfessionLen {
			return fmt.Errorf("profession too long: %w", ErrInvalidInput)
		}
		update.Profession = &trimmed
	}
	if update.LookingFor != nil {
		trimmed := strings.TrimSpace(*update.LookingFor)
		if len(trimmed) > maxLookingForLen {
			return fmt.Errorf("looking_for too long: %w", ErrInvalidInput)
		}
		update.LookingFor = &trimmed
	}
	if update.Interests != nil {
		normalized, err := NormalizeInterests(update.Interests)
		if err != nil {
			return err
		}
		update.Interests = normalized
	}
	return nil
}

// NormalizeInterests trims each tag, drops blanks, and removes
// case-insensitive duplicates while keeping the first spelling the
// member typed.
func NormalizeInterests(interests []string) ([]string, error) {
	if len(interests) > maxInterests {
		return nil, fmt.Errorf("too many interests: %w", ErrInvalidInput)
	}

	result := make([]string, 0, len(interests))
	seen := make(map[string]struct{}, len(interests))
	for _, tag := range interests {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > maxInterestLen {
			return nil, fmt.Errorf("interest too long: %w", ErrInvalidInput)
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, postgres.ErrProfileNotFound) {
		return ErrProfileNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

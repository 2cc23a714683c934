package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
	"github.com/genemasaka/kenyan-connections-circle/internal/pkg/validate"
	"github.com/genemasaka/kenyan-connections-circle/internal/repo/postgres"
)

const (
	MinRefreshTTL = 30 * 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour

	minPasswordLen = 8
)

type UserStore interface {
	CreateWithProfile(ctx context.Context, user model.User, profile model.Profile) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (model.Profile, error)
}

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

type ResetStore interface {
	Create(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

type Config struct {
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	DemoMode   bool
	DemoEmail  string
}

type Service struct {
	jwt      *JWTManager
	users    UserStore
	profiles ProfileStore
	sessions SessionStore
	resets   ResetStore
	cfg      Config
	now      func() time.Time
}

type Dependencies struct {
	JWT      *JWTManager
	Users    UserStore
	Profiles ProfileStore
	Sessions SessionStore
	Resets   ResetStore
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.RefreshTTL < MinRefreshTTL {
		cfg.RefreshTTL = MinRefreshTTL
	}
	if cfg.RefreshTTL > MaxRefreshTTL {
		cfg.RefreshTTL = MaxRefreshTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}

	return &Service{
		jwt:      deps.JWT,
		users:    deps.Users,
		profiles: deps.Profiles,
		sessions: deps.Sessions,
		resets:   deps.Resets,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SignUp registers a new identity. The user row and its profile row
// are created atomically by the store, so a failed profile insert can
// never leave a credential-only account behind.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (AuthResult, error) {
	if s.users == nil || s.sessions == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return AuthResult{}, err
	}
	if len(in.Password) < minPasswordLen {
		return AuthResult{}, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrInvalidInput)
	}
	if !validate.Required(in.Name) {
		return AuthResult{}, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if in.Age < 18 || in.Age > 120 {
		return AuthResult{}, fmt.Errorf("age out of range: %w", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.New()
	user := model.User{
		ID:           userID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         enums.RoleUser,
	}
	profile := model.Profile{
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		Age:            in.Age,
		Profession:     strings.TrimSpace(in.Profession),
		Interests:      normalizeInterests(in.Interests),
		LookingFor:     strings.TrimSpace(in.LookingFor),
		ShowPhoto:      in.ShowPhoto,
		ShowProfession: in.ShowProfession,
	}

	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, postgres.ErrEmailTaken) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	return s.issueForUser(ctx, userID, string(user.Role), profile)
}

// SignIn authenticates by email and password and loads the profile.
// Bad credentials and a missing profile both fail the same way the
// client contract describes: a recoverable unauthorized error.
func (s *Service) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	if s.users == nil || s.sessions == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}
	if !validate.Required(email) || password == "" {
		return AuthResult{}, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrUnauthorized
	}

	profile, err := s.loadProfile(ctx, user.ID)
	if err != nil {
		return AuthResult{}, ErrUnauthorized
	}

	return s.issueForUser(ctx, user.ID, string(user.Role), profile)
}

// DemoLogin installs a session for the configured demo identity
// without checking credentials. Only reachable when demo mode is on;
// the transport layer does not even register the route otherwise.
func (s *Service) DemoLogin(ctx context.Context) (AuthResult, error) {
	if !s.cfg.DemoMode {
		return AuthResult{}, ErrDemoDisabled
	}
	if s.users == nil || s.sessions == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	user, err := s.users.GetByEmail(ctx, s.cfg.DemoEmail)
	if err != nil {
		return AuthResult{}, fmt.Errorf("load demo user: %w", err)
	}

	profile, err := s.loadProfile(ctx, user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("load demo profile: %w", err)
	}

	return s.issueForUser(ctx, user.ID, string(enums.RoleDemo), profile)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if !validate.Required(refreshToken) {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.cfg.RefreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.SID, session.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	profile, err := s.loadProfile(ctx, session.UserID)
	if err != nil {
		return AuthResult{}, ErrUnauthorized
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		Profile:       profile,
	}, nil
}

func (s *Service) SignOut(ctx context.Context, sid string) error {
	if !validate.Required(sid) {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) SignOutAll(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

// RequestPasswordReset issues a single-use reset token. An unknown
// email returns the token-less success path so the endpoint does not
// leak which addresses are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if s.users == nil || s.resets == nil {
		return "", fmt.Errorf("auth dependencies are not configured")
	}
	if _, err := normalizeEmail(email); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil
	}

	token, err := NewResetToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.resets.Create(ctx, token, user.ID, s.cfg.ResetTTL); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	return token, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.users == nil || s.resets == nil {
		return fmt.Errorf("auth dependencies are not configured")
	}
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrInvalidInput)
	}

	userID, err := s.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrResetNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Existing sessions stay valid only until their refresh expires;
	// force them out now that the credential changed.
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("invalidate sessions: %w", err)
	}

	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID || session.Role != claims.Role {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) issueForUser(ctx context.Context, userID uuid.UUID, role string, profile model.Profile) (AuthResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:       sessionID,
		UserID:    userID,
		Role:      role,
		ExpiresAt: s.now().Add(s.cfg.RefreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(userID, sessionID, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		Profile:       profile,
	}, nil
}

func (s *Service) loadProfile(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	if s.profiles == nil {
		return model.Profile{}, fmt.Errorf("profile store is nil")
	}
	return s.profiles.Get(ctx, userID)
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("email is required: %w", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("malformed email: %w", ErrInvalidInput)
	}
	return trimmed, nil
}

func normalizeInterests(interests []string) []string {
	result := make([]string, 0, len(interests))
	seen := make(map[string]struct{}, len(interests))
	for _, tag := range interests {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

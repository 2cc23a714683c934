package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/enums"
	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

type stubUserStore struct {
	byEmail map[string]model.User
	byID    map[uuid.UUID]model.User

	createErr    error
	passwordByID map[uuid.UUID]string
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		byEmail:      make(map[string]model.User),
		byID:         make(map[uuid.UUID]model.User),
		passwordByID: make(map[uuid.UUID]string),
	}
}

func (s *stubUserStore) CreateWithProfile(_ context.Context, user model.User, _ model.Profile) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	user, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.User{}, errors.New("user not found")
	}
	return user, nil
}

func (s *stubUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return model.User{}, errors.New("user not found")
	}
	return user, nil
}

func (s *stubUserStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s.passwordByID[id] = hash
	return nil
}

type stubProfileStore struct {
	profiles map[uuid.UUID]model.Profile
}

func (s *stubProfileStore) Get(_ context.Context, userID uuid.UUID) (model.Profile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, errors.New("profile not found")
	}
	return profile, nil
}

type stubSessionStore struct {
	sessions  map[string]SessionRecord
	byRefresh map[string]string

	createErr error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{
		sessions:  make(map[string]SessionRecord),
		byRefresh: make(map[string]string),
	}
}

func (s *stubSessionStore) Create(_ context.Context, session SessionRecord, refreshToken string) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.sessions[session.SID] = session
	s.byRefresh[refreshToken] = session.SID
	return nil
}

func (s *stubSessionStore) GetSession(_ context.Context, sid string) (SessionRecord, error) {
	session, ok := s.sessions[sid]
	if !ok {
		return SessionRecord{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *stubSessionStore) GetByRefreshToken(_ context.Context, refreshToken string) (SessionRecord, error) {
	sid, ok := s.byRefresh[refreshToken]
	if !ok {
		return SessionRecord{}, ErrRefreshNotFound
	}
	return s.sessions[sid], nil
}

func (s *stubSessionStore) RotateRefresh(_ context.Context, sid, oldToken, newToken string, expiresAt time.Time) error {
	storedSID, ok := s.byRefresh[oldToken]
	if !ok || storedSID != sid {
		return ErrRefreshNotFound
	}
	delete(s.byRefresh, oldToken)
	s.byRefresh[newToken] = sid

	session := s.sessions[sid]
	session.ExpiresAt = expiresAt
	s.sessions[sid] = session
	return nil
}

func (s *stubSessionStore) DeleteSession(_ context.Context, sid string) error {
	delete(s.sessions, sid)
	for token, storedSID := range s.byRefresh {
		if storedSID == sid {
			delete(s.byRefresh, token)
		}
	}
	return nil
}

func (s *stubSessionStore) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	for sid, session := range s.sessions {
		if session.UserID == userID {
			_ = s.DeleteSession(context.Background(), sid)
		}
	}
	return nil
}

type stubResetStore struct {
	tokens map[string]uuid.UUID
}

func newStubResetStore() *stubResetStore {
	return &stubResetStore{tokens: make(map[string]uuid.UUID)}
}

func (s *stubResetStore) Create(_ context.Context, token string, userID uuid.UUID, _ time.Duration) error {
	s.tokens[token] = userID
	return nil
}

func (s *stubResetStore) Consume(_ context.Context, token string) (uuid.UUID, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, ErrResetNotFound
	}
	delete(s.tokens, token)
	return userID, nil
}

type authFixture struct {
	svc      *Service
	users    *stubUserStore
	profiles *stubProfileStore
	sessions *stubSessionStore
	resets   *stubResetStore
}

func newAuthFixture(t *testing.T, cfg Config) *authFixture {
	t.Helper()

	users := newStubUserStore()
	profiles := &stubProfileStore{profiles: make(map[uuid.UUID]model.Profile)}
	sessions := newStubSessionStore()
	resets := newStubResetStore()

	svc := NewService(Dependencies{
		JWT:      NewJWTManager("test-secret", 15*time.Minute),
		Users:    users,
		Profiles: profiles,
		Sessions: sessions,
		Resets:   resets,
	}, cfg)

	return &authFixture{svc: svc, users: users, profiles: profiles, sessions: sessions, resets: resets}
}

func (f *authFixture) seedUser(t *testing.T, email, password string) uuid.UUID {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	id := uuid.New()
	user := model.User{ID: id, Email: email, PasswordHash: string(hash), Role: enums.RoleUser}
	f.users.byEmail[email] = user
	f.users.byID[id] = user
	f.profiles.profiles[id] = model.Profile{UserID: id, Name: "Seeded", Age: 30}
	return id
}

func TestSignUpIssuesSessionAndTokens(t *testing.T) {
	f := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL})

	result, err := f.svc.SignUp(context.Background(), SignUpInput{
		Email:     "Amina@Example.com",
		Password:  "correct-horse",
		Name:      "Amina",
		Age:       32,
		Interests: []string{" tech ", "Hiking", "tech"},
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected issued tokens")
	}
	if len(f.sessions.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(f.sessions.sessions))
	}
	if _, ok := f.users.byEmail["amina@example.com"]; !ok {
		t.Fatal("expected email stored lowercased")
	}
	if got := result.Profile.Interests; len(got) != 2 || got[0] != "tech" || got[1] != "Hiking" {
		t.Fatalf("expected deduplicated interests, got %v", got)
	}
}

func TestSignUpRejectsInvalidInput(t *testing.T) {
	f := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL})

	cases := []struct {
		name  string
		input SignUpInput
	}{
		{"missing email", SignUpInput{Password: "long-enough-pass", Name: "A", Age: 25}},
		{"malformed email", SignUpInput{Email: "not-an-email", Password: "long-enough-pass", Name: "A", Age: 25}},
		{"short password", SignUpInput{Email: "a@b.com", Password: "short", Name: "A", Age: 25}},
		{"blank name", SignUpInput{Email: "a@b.com", Password: "long-enough-pass", Name: "  ", Age: 25}},
		{"underage", SignUpInput{Email: "a@b.com", Password: "long-enough-pass", Name: "A", Age: 17}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.SignUp(context.Background(), tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL})
	f.seedUser(t, "taken@example.com", "irrelevant-pass")

	_, err := f.svc.SignUp(context.Background(), SignUpInput{
		Email:    "taken@example.com",
		Password: "long-enough-pass",
		Name:     "Dup",
		Age:      28,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignInSuccessAndFailure(t *testing.T) {
	f := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL})
	f.seedUser(t, "amina@example.com", "correct-horse")

	result, err := f.svc.SignIn(context.Background(), "amina@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.Profile.Name != "Seeded" {
		t.Fatalf("expected profile loaded, got %+v", result.Profile)
	}

	if _, err := f.svc.SignIn(context.Background(), "amina@example.com", "wrong-pass"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for bad password, got %v", err)
	}
	if _, err := f.svc.SignIn(context.Background(), "nobody@example.com", "correct-horse"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown email, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL})
	f.seedUser(t, "amina@example.com", "correct-horse")

	first, err := f.svc.SignIn(context.Background(), "amina@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	second, err := f.svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	// The old token is single use.
	if _, err := f.svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for reused token, got %v", err)
	}
}

func TestSignOutInvalidatesSession(t *testing.T) {
	f := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL})
	f.seedUser(t, "amina@example.com", "correct-horse")

	result, err := f.svc.SignIn(context.Background(), "amina@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	claims, err := f.svc.ValidateAccessToken(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("validate before sign out: %v", err)
	}
	if err := f.svc.SignOut(context.Background(), claims.SID); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := f.svc.ValidateAccessToken(context.Background(), result.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after sign out, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL, ResetTTL: time.Hour})
	userID := f.seedUser(t, "amina@example.com", "old-password-1")

	token, err := f.svc.RequestPasswordReset(context.Background(), "amina@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token for a known email")
	}

	// Unknown emails succeed without a token so the endpoint does not
	// reveal which addresses exist.
	ghost, err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil || ghost != "" {
		t.Fatalf("expected silent success for unknown email, got token=%q err=%v", ghost, err)
	}

	if err := f.svc.ResetPassword(context.Background(), token, "new-password-1"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, ok := f.users.passwordByID[userID]; !ok {
		t.Fatal("expected password hash updated")
	}

	// Tokens are single use.
	if err := f.svc.ResetPassword(context.Background(), token, "another-pass-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for reused reset token, got %v", err)
	}
}

func TestDemoLoginGatedByConfig(t *testing.T) {
	disabled := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL})
	if _, err := disabled.svc.DemoLogin(context.Background()); !errors.Is(err, ErrDemoDisabled) {
		t.Fatalf("expected ErrDemoDisabled, got %v", err)
	}

	enabled := newAuthFixture(t, Config{RefreshTTL: MinRefreshTTL, DemoMode: true, DemoEmail: "demo@example.com"})
	enabled.seedUser(t, "demo@example.com", "demo-password-1")

	result, err := enabled.svc.DemoLogin(context.Background())
	if err != nil {
		t.Fatalf("demo login: %v", err)
	}

	claims, err := enabled.svc.ValidateAccessToken(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("validate demo token: %v", err)
	}
	if claims.Role != string(enums.RoleDemo) {
		t.Fatalf("expected demo role, got %q", claims.Role)
	}
}

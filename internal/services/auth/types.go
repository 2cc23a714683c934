package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/genemasaka/kenyan-connections-circle/internal/domain/model"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrEmailTaken      = errors.New("email already registered")
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrResetNotFound   = errors.New("reset token not found")
	ErrDemoDisabled    = errors.New("demo login is disabled")
)

type SessionRecord struct {
	SID       string
	UserID    uuid.UUID
	Role      string
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    uuid.UUID
	SID       string
	Role      string
	ExpiresAt time.Time
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	Profile       model.Profile
}

// SignUpInput is the registration draft: everything a new profile
// needs plus the credentials.
type SignUpInput struct {
	Email          string
	Password       string
	Name           string
	Age            int
	Profession     string
	Interests      []string
	LookingFor     string
	ShowPhoto      bool
	ShowProfession bool
}

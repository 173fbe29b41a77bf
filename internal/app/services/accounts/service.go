// Package accounts authenticates users against the configured identity
// provider and answers who a bearer token belongs to.
package accounts

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// Password bounds are enforced before any provider is called. The upper bound
// is the most bcrypt will hash.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Session is returned by sign-up and sign-in.
type Session struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	UserID       string    `json:"user_id"`
}

// Identity is the verified owner of a bearer token.
type Identity struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"`
	TokenID string `json:"-"`
}

// IsAdmin reports whether the identity carries the staff role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Provider is an identity backend.
type Provider interface {
	Name() string
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (Identity, error)
}

// Service fronts the provider with credential checks and the admin allowlist.
type Service struct {
	provider Provider
	admins   map[string]struct{}
	log      *logger.Logger
}

// New constructs an auth service.
func New(provider Provider, admins map[string]struct{}, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accounts")
	}
	if admins == nil {
		admins = map[string]struct{}{}
	}
	return &Service{provider: provider, admins: admins, log: log}
}

// Provider returns the name of the active provider.
func (s *Service) Provider() string { return s.provider.Name() }

// SignUp registers a new user.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return Session{}, err
	}
	session, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	s.log.WithField("user_id", session.UserID).
		WithField("provider", s.provider.Name()).
		Info("account created")
	return session, nil
}

// SignIn exchanges credentials for a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return Session{}, err
	}
	session, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.log.WithError(err).WithField("provider", s.provider.Name()).Info("sign in rejected")
		return Session{}, err
	}
	return session, nil
}

// SignOut invalidates a token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.Unauthorized("")
	}
	return s.provider.SignOut(ctx, token)
}

// Verify resolves a token to an identity, promoting allowlisted users to admin.
func (s *Service) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, apperrors.Unauthorized("")
	}
	id, err := s.provider.Verify(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	id.Role = RoleUser
	if _, ok := s.admins[id.UserID]; ok {
		id.Role = RoleAdmin
	}
	return id, nil
}

func checkCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.Required("email")
	}
	if !strings.Contains(email, "@") {
		return "", apperrors.Validation("email must contain @").WithDetails("field", "email")
	}
	if len(password) < MinPasswordLength {
		return "", apperrors.Validation("password must be at least %d characters", MinPasswordLength).
			WithDetails("field", "password")
	}
	if len(password) > MaxPasswordBytes {
		return "", apperrors.Validation("password must be at most %d bytes", MaxPasswordBytes).
			WithDetails("field", "password")
	}
	return email, nil
}

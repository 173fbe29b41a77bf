package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/supabase/client"
)

// SupabaseProvider delegates accounts to a Supabase project. Access tokens are
// verified locally with the project JWT secret, or by asking GoTrue for the
// token's user when no secret is configured.
type SupabaseProvider struct {
	auth   *client.AuthClient
	secret []byte
	now    func() time.Time
}

var _ Provider = (*SupabaseProvider)(nil)

// NewSupabaseProvider wraps a Supabase client.
func NewSupabaseProvider(c *client.Client, jwtSecret string) (*SupabaseProvider, error) {
	if c == nil {
		return nil, fmt.Errorf("supabase client is required")
	}
	p := &SupabaseProvider{auth: c.Auth(), now: time.Now}
	if jwtSecret != "" {
		p.secret = []byte(jwtSecret)
	}
	return p, nil
}

func (p *SupabaseProvider) Name() string { return "supabase" }

func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string) (Session, error) {
	s, err := p.auth.SignUp(ctx, email, password)
	if err != nil {
		return Session{}, translateAPIError(err)
	}
	return fromSupabase(s), nil
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	s, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, translateAPIError(err)
	}
	return fromSupabase(s), nil
}

func (p *SupabaseProvider) SignOut(ctx context.Context, token string) error {
	if err := p.auth.SignOut(ctx, token); err != nil {
		return translateAPIError(err)
	}
	return nil
}

func (p *SupabaseProvider) Verify(ctx context.Context, token string) (Identity, error) {
	if len(p.secret) == 0 {
		return p.verifyRemote(ctx, token)
	}
	claims, err := parseToken(p.secret, token, p.now)
	if err != nil {
		return Identity{}, apperrors.InvalidToken(err)
	}
	if claims.Role == "anon" {
		return Identity{}, apperrors.InvalidToken(errors.New("anonymous token"))
	}
	return Identity{UserID: claims.Subject, Email: claims.Email, TokenID: claims.ID}, nil
}

func (p *SupabaseProvider) verifyRemote(ctx context.Context, token string) (Identity, error) {
	user, err := p.auth.GetUser(ctx, token)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return Identity{}, apperrors.InvalidToken(err)
		}
		return Identity{}, translateAPIError(err)
	}
	if user.ID == "" {
		return Identity{}, apperrors.InvalidToken(errors.New("token has no user"))
	}
	return Identity{UserID: user.ID, Email: user.Email}, nil
}

func fromSupabase(s *client.Session) Session {
	return Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		UserID:       s.User.ID,
	}
}

// translateAPIError maps GoTrue answers onto service errors.
func translateAPIError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return apperrors.Internal("identity provider unavailable", err)
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest:
		if apiErr.Code == "invalid_credentials" || apiErr.Code == "invalid_grant" {
			return invalidCredentials()
		}
		return apperrors.Validation("%s", apiErr.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Unauthorized(apiErr.Message)
	case http.StatusUnprocessableEntity:
		if apiErr.Code == "user_already_exists" || apiErr.Code == "email_exists" {
			return apperrors.Conflict("email already registered")
		}
		return apperrors.Validation("%s", apiErr.Message)
	case http.StatusTooManyRequests:
		return apperrors.RateLimitExceeded(0, "provider")
	}
	return apperrors.Internal("identity provider error", err)
}

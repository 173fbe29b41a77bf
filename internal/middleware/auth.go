// Package middleware provides the HTTP middleware of the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/remnanthub/platform/internal/app/services/accounts"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/internal/httputil"
	"github.com/remnanthub/platform/pkg/logger"
)

type identityKey struct{}

// Verifier resolves a bearer token to the caller's identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (accounts.Identity, error)
}

// AuthMiddleware authenticates bearer tokens.
type AuthMiddleware struct {
	verifier Verifier
	log      *logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(verifier Verifier, log *logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth-middleware")
	}
	return &AuthMiddleware{verifier: verifier, log: log}
}

// Required rejects requests without a valid bearer token.
func (m *AuthMiddleware) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err == nil && token == "" {
			err = apperrors.Unauthorized("missing Authorization header")
		}
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		ident, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		m.log.WithContext(r.Context()).
			WithField("user_id", ident.UserID).
			Debug("authentication successful")
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}

// Optional attaches the identity when a valid token is present and passes
// anonymous requests through unchanged. A malformed or invalid token is
// still rejected.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ident, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.GetServiceError(err) == nil {
		err = apperrors.InvalidToken(err)
	}
	httputil.WriteError(w, r, err)
	m.log.WithContext(r.Context()).WithError(err).
		WithField("path", r.URL.Path).
		WithField("method", r.Method).
		Warn("authentication failed")
}

// bearerToken returns "" when no Authorization header is present.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperrors.Unauthorized("invalid Authorization header format")
	}
	return token, nil
}

// WithIdentity stores the authenticated identity in ctx.
func WithIdentity(ctx context.Context, ident accounts.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// IdentityFrom returns the identity stored by the auth middleware.
func IdentityFrom(ctx context.Context) (accounts.Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(accounts.Identity)
	return ident, ok && ident.UserID != ""
}

// UserID returns the authenticated user id, or "".
func UserID(ctx context.Context) string {
	ident, _ := IdentityFrom(ctx)
	return ident.UserID
}

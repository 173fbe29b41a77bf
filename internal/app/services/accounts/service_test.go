package accounts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
	"github.com/remnanthub/platform/supabase/client"
)

func newLocal(t *testing.T) (*Service, *LocalProvider) {
	t.Helper()
	provider, err := NewLocalProvider(memory.New(), "test-secret", time.Hour)
	require.NoError(t, err)
	provider.cost = bcrypt.MinCost
	return New(provider, nil, logger.NewDiscard()), provider
}

func TestService_CredentialChecks(t *testing.T) {
	svc, _ := newLocal(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "not-an-email", "longenough")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.SignUp(ctx, "a@b.org", "short")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.SignIn(ctx, "", "longenough")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.SignUp(ctx, "long@b.org", strings.Repeat("p", 80))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)

	_, err = svc.SignUp(ctx, "edge@b.org", strings.Repeat("p", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestLocalProvider_PasswordTooLongIsValidation(t *testing.T) {
	provider, err := NewLocalProvider(memory.New(), "secret", time.Hour)
	require.NoError(t, err)
	provider.cost = bcrypt.MinCost

	_, err = provider.SignUp(context.Background(), "long@b.org", strings.Repeat("p", 80))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
}

func TestLocalProvider_SignUpSignInSignOut(t *testing.T) {
	svc, _ := newLocal(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, " Lydia@Thyatira.org ", "purple-cloth")
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)

	_, err = svc.SignUp(ctx, "lydia@thyatira.org", "purple-cloth")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.SignIn(ctx, "lydia@thyatira.org", "wrong-password")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.SignIn(ctx, "nobody@thyatira.org", "purple-cloth")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	signedIn, err := svc.SignIn(ctx, "LYDIA@thyatira.org", "purple-cloth")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, signedIn.UserID)

	id, err := svc.Verify(ctx, signedIn.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, id.UserID)
	assert.Equal(t, "lydia@thyatira.org", id.Email)
	assert.Equal(t, RoleUser, id.Role)

	require.NoError(t, svc.SignOut(ctx, signedIn.AccessToken))
	_, err = svc.Verify(ctx, signedIn.AccessToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidToken))

	_, err = svc.Verify(ctx, session.AccessToken)
	require.NoError(t, err, "other sessions stay valid")
}

func TestLocalProvider_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc, provider := newLocal(t)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "silas@example.org", "philippi-jail")
	require.NoError(t, err)

	provider.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(ctx, session.AccessToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidToken))
	provider.now = time.Now

	foreign, err := signToken([]byte("other-secret"), Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "x", Issuer: localIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, foreign)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidToken))

	_, err = svc.Verify(ctx, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestService_AdminAllowlist(t *testing.T) {
	provider, err := NewLocalProvider(memory.New(), "secret", time.Hour)
	require.NoError(t, err)
	provider.cost = bcrypt.MinCost
	ctx := context.Background()

	session, err := provider.SignUp(ctx, "staff@example.org", "long-password")
	require.NoError(t, err)

	svc := New(provider, map[string]struct{}{session.UserID: {}}, logger.NewDiscard())
	id, err := svc.Verify(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
}

func TestSupabaseProvider(t *testing.T) {
	const secret = "project-jwt-secret"
	access, err := signToken([]byte(secret), Claims{
		Email: "phoebe@example.org",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/v1/token":
			if r.URL.Query().Get("grant_type") != "password" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"` + access + `","refresh_token":"r1","expires_in":3600,"user":{"id":"user-123","email":"phoebe@example.org"}}`))
		case "/auth/v1/signup":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
		case "/auth/v1/user":
			if r.Header.Get("Authorization") != "Bearer "+access {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":401,"msg":"invalid JWT"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"user-123","email":"phoebe@example.org","role":"authenticated"}`))
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := client.New(client.Config{URL: srv.URL, APIKey: "anon", Retry: client.RetryPolicy{MaxRetries: -1}})
	require.NoError(t, err)
	provider, err := NewSupabaseProvider(c, secret)
	require.NoError(t, err)
	svc := New(provider, nil, logger.NewDiscard())
	ctx := context.Background()

	session, err := svc.SignIn(ctx, "phoebe@example.org", "cenchreae")
	require.NoError(t, err)
	assert.Equal(t, "user-123", session.UserID)
	assert.Equal(t, "r1", session.RefreshToken)

	id, err := svc.Verify(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.UserID)

	_, err = svc.SignUp(ctx, "phoebe@example.org", "cenchreae")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	require.NoError(t, svc.SignOut(ctx, session.AccessToken))

	remote, err := NewSupabaseProvider(c, "")
	require.NoError(t, err)
	id, err = remote.Verify(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.UserID)
	assert.Equal(t, "phoebe@example.org", id.Email)

	_, err = remote.Verify(ctx, "forged")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidToken))
}

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{URL: server.URL + "/", APIKey: "anon", ServiceKey: "service", Retry: RetryPolicy{MaxRetries: -1}})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresURLAndKey(t *testing.T) {
	_, err := New(Config{APIKey: "x"})
	assert.Error(t, err)
	_, err = New(Config{URL: "https://example.supabase.co"})
	assert.Error(t, err)
}

func TestSignIn_ParsesSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_at":1700000000,"user":{"id":"u-1","email":"a@b.org","role":"authenticated"}}`)
	})

	session, err := c.Auth().SignIn(context.Background(), "a@b.org", "password1")
	require.NoError(t, err)
	assert.Equal(t, "at", session.AccessToken)
	assert.Equal(t, "rt", session.RefreshToken)
	assert.Equal(t, int64(1700000000), session.ExpiresAt.Unix())
	assert.Equal(t, "u-1", session.User.ID)
}

func TestSignUp_WithoutSessionReturnsUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"u-2","email":"new@b.org"}`)
	})

	session, err := c.Auth().SignUp(context.Background(), "new@b.org", "password1")
	require.NoError(t, err)
	assert.Empty(t, session.AccessToken)
	assert.Equal(t, "u-2", session.User.ID)
}

func TestAPIError_Shapes(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
		code    string
	}{
		{"gotrue", http.StatusBadRequest, `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`, "Invalid login credentials", "invalid_credentials"},
		{"oauth", http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Email not confirmed"}`, "Email not confirmed", ""},
		{"storage", http.StatusForbidden, `{"statusCode":"403","error":"Unauthorized","message":"new row violates row-level security policy"}`, "new row violates row-level security policy", "403"},
		{"plain", http.StatusBadGateway, `upstream down`, "upstream down", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.Auth().SignIn(context.Background(), "a@b.org", "password1")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.message, apiErr.Message)
			if tc.code != "" {
				assert.Equal(t, tc.code, apiErr.Code)
			}
		})
	}
}

func TestSignOut_UsesUserToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.Auth().SignOut(context.Background(), "user-token"))
}

func TestBucketUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/avatars/u-1/avatar-1.png", r.URL.Path)
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		assert.Equal(t, "true", r.Header.Get("x-upsert"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, body)
		_, _ = io.WriteString(w, `{"Key":"avatars/u-1/avatar-1.png"}`)
	})

	bucket := c.Storage().From("avatars")
	require.NoError(t, bucket.Upload(context.Background(), "u-1/avatar-1.png", []byte{0x89, 'P', 'N', 'G'}, "image/png"))
	assert.Equal(t, c.baseURL+"/storage/v1/object/public/avatars/u-1/avatar-1.png", bucket.PublicURL("/u-1/avatar-1.png"))
}

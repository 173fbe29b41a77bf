package app

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/services/communities"
	"github.com/remnanthub/platform/internal/config"
	"github.com/remnanthub/platform/pkg/logger"
)

func TestNewDefaults(t *testing.T) {
	application, err := New(Options{DisableReminder: true}, logger.NewDiscard())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, application.Start(ctx))
	t.Cleanup(func() { _ = application.Stop(ctx) })

	sess, err := application.Auth.SignUp(ctx, "leader@example.org", "correct-horse")
	require.NoError(t, err)

	c, err := application.Communities.Create(ctx, sess.UserID, communities.Draft{Name: "Grace House"})
	require.NoError(t, err)

	ok, err := application.Memberships.IsLeader(ctx, c.ID, sess.UserID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "local", application.Auth.Provider())
}

func TestBuildInMemory(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`resources:
  - id: "starter-guide"
    title: "Starting a house church"
    category: "guides"
    url: "https://example.org/guide"
`), 0o600))

	cfg := &config.Config{}
	cfg.Auth.Provider = config.AuthProviderLocal
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Scheduler.Disabled = true
	cfg.Resources.SeedFile = seed

	rt, err := Build(context.Background(), cfg, logger.NewDiscard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Nil(t, rt.DB())
	list, err := rt.Resources.List(context.Background(), "house church", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "guides", list[0].Category)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://remnant.example"})

	req := httptest.NewRequest("GET", "/api/v1/communities/1/chat/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://remnant.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://other.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

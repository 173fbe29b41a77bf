package resources

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/domain/resource"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func newService() *Service {
	store := memory.New()
	return New(store, access.New(store, store, map[string]struct{}{"staff": {}}), logger.NewDiscard())
}

func TestService_CreateAndList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "member", resource.Resource{Title: "x", Category: "guide"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.Create(ctx, "staff", resource.Resource{Title: "x", Category: "guide", URL: "ftp://files"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Create(ctx, "staff", resource.Resource{Title: "Leading a House Church", Category: "Guide", Tags: []string{"Leadership"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "staff", resource.Resource{Title: "Hospitality", Description: "Opening your home", Category: "study", URL: "https://example.org/h"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "LEADER", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "guide", list[0].Category)

	list, err = svc.List(ctx, "home", "study")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestService_SeedFromFile(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
resources:
  - id: getting-started
    title: Getting Started
    category: guide
    url: https://example.org/start
    tags: [basics]
  - id: prayer-guide
    title: A Guide to Prayer
    category: study
`), 0o600))

	created, skipped, err := svc.SeedFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Zero(t, skipped)

	created, skipped, err = svc.SeedFromFile(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 2, skipped)

	r, err := svc.Get(ctx, "getting-started")
	require.NoError(t, err)
	assert.Equal(t, []string{"basics"}, r.Tags)

	_, _, err = svc.SeedFromFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package profiles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestService_Upsert(t *testing.T) {
	svc := New(memory.New(), nil, logger.NewDiscard())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "u1", "  ", "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	p, err := svc.Upsert(ctx, "u1", " Phoebe ", "deacon", "Cenchreae")
	require.NoError(t, err)
	assert.Equal(t, "Phoebe", p.DisplayName)

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Cenchreae", got.City)

	_, err = svc.Get(ctx, "nobody")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestService_UploadAvatar(t *testing.T) {
	avatars := NewMemoryAvatars("http://localhost:8080/avatars")
	svc := New(memory.New(), avatars, logger.NewDiscard())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	_, err := svc.UploadAvatar(ctx, "u1", "me.png", "image/png", pngHeader)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "profile must exist first")

	_, err = svc.Upsert(ctx, "u1", "Phoebe", "", "")
	require.NoError(t, err)

	p, err := svc.UploadAvatar(ctx, "u1", "me.png", "image/png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/avatars/u1/avatar-1700000000.png", p.AvatarURL)

	rec := httptest.NewRecorder()
	avatars.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/u1/avatar-1700000000.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	svc.now = func() time.Time { return time.Unix(1700000100, 0) }
	p, err = svc.UploadAvatar(ctx, "u1", "me.jpg", "image/jpg", []byte("\xff\xd8\xff\xe0jpeg"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p.AvatarURL, "avatar-1700000100.jpg"))

	rec = httptest.NewRecorder()
	avatars.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/u1/avatar-1700000000.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "previous avatar is removed")
}

func TestService_UploadAvatarRejects(t *testing.T) {
	svc := New(memory.New(), NewMemoryAvatars("/avatars"), logger.NewDiscard())
	ctx := context.Background()
	_, err := svc.Upsert(ctx, "u1", "Phoebe", "", "")
	require.NoError(t, err)

	_, err = svc.UploadAvatar(ctx, "u1", "doc.pdf", "application/pdf", []byte("%PDF-1.4"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	big := make([]byte, MaxAvatarBytes+1)
	_, err = svc.UploadAvatar(ctx, "u1", "big.png", "image/png", big)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.UploadAvatar(ctx, "u1", "fake.png", "image/png", []byte("<html><script>alert(1)</script></html>"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)

	_, err = svc.UploadAvatar(ctx, "u1", "me.gif", "image/gif", pngHeader)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)

	p, err := svc.UploadAvatar(ctx, "u1", "sniffed", "", pngHeader)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p.AvatarURL, ".png"))

	unconfigured := New(memory.New(), nil, logger.NewDiscard())
	_, err = unconfigured.UploadAvatar(ctx, "u1", "me.png", "image/png", pngHeader)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnsupported))
}

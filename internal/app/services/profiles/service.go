package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/remnanthub/platform/internal/app/domain/profile"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// MaxAvatarBytes caps avatar uploads at 2 MiB.
const MaxAvatarBytes = 2 << 20

const (
	maxDisplayNameLength = 80
	maxBioLength         = 1000
)

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Service manages user profiles and avatars.
type Service struct {
	store   storage.ProfileStore
	avatars AvatarStore
	log     *logger.Logger
	now     func() time.Time
}

// New constructs a profile service. avatars may be nil, in which case uploads
// are rejected as unsupported.
func New(store storage.ProfileStore, avatars AvatarStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("profiles")
	}
	return &Service{store: store, avatars: avatars, log: log, now: time.Now}
}

// Upsert creates or updates the caller's profile.
func (s *Service) Upsert(ctx context.Context, userID, displayName, bio, city string) (profile.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return profile.Profile{}, apperrors.Required("user_id")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return profile.Profile{}, apperrors.Required("display_name")
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return profile.Profile{}, apperrors.Validation("display_name must be at most %d characters", maxDisplayNameLength)
	}
	bio = strings.TrimSpace(bio)
	if utf8.RuneCountInString(bio) > maxBioLength {
		return profile.Profile{}, apperrors.Validation("bio must be at most %d characters", maxBioLength)
	}

	p := profile.Profile{UserID: userID, DisplayName: displayName, Bio: bio, City: strings.TrimSpace(city)}
	existing, err := s.store.GetProfile(ctx, userID)
	switch {
	case err == nil:
		p.AvatarURL = existing.AvatarURL
	case !errors.Is(err, storage.ErrNotFound):
		return profile.Profile{}, err
	}

	p, err = s.store.UpsertProfile(ctx, p)
	if err != nil {
		return profile.Profile{}, err
	}
	s.log.WithField("user_id", userID).Info("profile saved")
	return p, nil
}

// Get returns a profile.
func (s *Service) Get(ctx context.Context, userID string) (profile.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return profile.Profile{}, apperrors.NotFound("profile", userID)
	}
	return p, err
}

// UploadAvatar stores an image in the avatar bucket and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, userID, filename, contentType string, data []byte) (profile.Profile, error) {
	if s.avatars == nil {
		return profile.Profile{}, apperrors.Unsupported("avatar storage is not configured")
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}
	if len(data) == 0 {
		return profile.Profile{}, apperrors.Required("file")
	}
	if len(data) > MaxAvatarBytes {
		return profile.Profile{}, apperrors.Validation("avatar must be at most %d bytes", MaxAvatarBytes)
	}

	declared := normalizeContentType(contentType)
	contentType = normalizeContentType(http.DetectContentType(data))
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return profile.Profile{}, apperrors.Validation("unsupported avatar type %q", contentType).
			WithDetails("filename", filename)
	}
	if declared != "" && declared != "application/octet-stream" && declared != contentType {
		return profile.Profile{}, apperrors.Validation("avatar declared as %q but contains %q", declared, contentType).
			WithDetails("filename", filename)
	}

	path := fmt.Sprintf("%s/avatar-%d.%s", p.UserID, s.now().Unix(), ext)
	if err := s.avatars.Upload(ctx, path, data, contentType); err != nil {
		return profile.Profile{}, fmt.Errorf("upload avatar: %w", err)
	}

	previous := p.AvatarURL
	p.AvatarURL = s.avatars.PublicURL(path)
	p, err = s.store.UpsertProfile(ctx, p)
	if err != nil {
		return profile.Profile{}, err
	}

	if old := s.objectPath(previous); old != "" && old != path {
		if err := s.avatars.Delete(ctx, old); err != nil {
			s.log.WithError(err).WithField("path", old).Warn("old avatar not deleted")
		}
	}

	s.log.WithField("user_id", p.UserID).
		WithField("path", path).
		WithField("bytes", len(data)).
		Info("avatar uploaded")
	return p, nil
}

// objectPath recovers the bucket path from a public URL produced by the bucket.
func (s *Service) objectPath(url string) string {
	if url == "" {
		return ""
	}
	prefix := s.avatars.PublicURL("")
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}

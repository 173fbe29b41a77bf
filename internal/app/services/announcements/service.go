package announcements

import (
	"context"
	"errors"
	"strings"

	"github.com/remnanthub/platform/internal/app/domain/announcement"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/services/notifications"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// Service manages a community's announcement board.
type Service struct {
	store    storage.AnnouncementStore
	members  storage.MemberStore
	access   *access.Checker
	notifier *notifications.Service
	log      *logger.Logger
}

// New constructs an announcement service. notifier may be nil.
func New(store storage.AnnouncementStore, members storage.MemberStore, checker *access.Checker, notifier *notifications.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("announcements")
	}
	return &Service{store: store, members: members, access: checker, notifier: notifier, log: log}
}

// Create posts an announcement and notifies the active members.
func (s *Service) Create(ctx context.Context, authorID, communityID, title, body string, pinned bool) (announcement.Announcement, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return announcement.Announcement{}, apperrors.Required("title")
	}
	if body == "" {
		return announcement.Announcement{}, apperrors.Required("body")
	}
	if err := s.access.RequireManager(ctx, communityID, authorID); err != nil {
		return announcement.Announcement{}, err
	}

	a, err := s.store.CreateAnnouncement(ctx, announcement.Announcement{
		CommunityID: communityID,
		AuthorID:    authorID,
		Title:       title,
		Body:        body,
		Pinned:      pinned,
	})
	if err != nil {
		return announcement.Announcement{}, err
	}

	notified := 0
	if s.notifier != nil {
		ids, err := s.activeMembers(ctx, communityID)
		if err != nil {
			s.log.WithError(err).WithField("community_id", communityID).Warn("announcement recipients not loaded")
		} else {
			notified = s.notifier.NotifyMany(ctx, ids, authorID, notification.KindAnnouncement, title, "/communities/"+communityID+"/announcements")
		}
	}

	s.log.WithField("announcement_id", a.ID).
		WithField("community_id", communityID).
		WithField("notified", notified).
		Info("announcement created")
	return a, nil
}

// List returns the board with pinned posts first, then newest.
func (s *Service) List(ctx context.Context, viewerID, communityID string) ([]announcement.Announcement, error) {
	if !s.access.IsAdmin(viewerID) {
		if err := s.access.RequireActiveMember(ctx, communityID, viewerID); err != nil {
			return nil, err
		}
	}
	return s.store.ListAnnouncements(ctx, communityID)
}

// SetPinned pins or unpins an announcement.
func (s *Service) SetPinned(ctx context.Context, actorID, id string, pinned bool) (announcement.Announcement, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return announcement.Announcement{}, err
	}
	if err := s.access.RequireManager(ctx, a.CommunityID, actorID); err != nil {
		return announcement.Announcement{}, err
	}
	if a.Pinned == pinned {
		return a, nil
	}
	a.Pinned = pinned
	a, err = s.store.UpdateAnnouncement(ctx, a)
	if err != nil {
		return announcement.Announcement{}, access.Translate(err, "announcement", id)
	}
	s.log.WithField("announcement_id", id).
		WithField("pinned", pinned).
		Info("announcement pin changed")
	return a, nil
}

// Delete removes an announcement.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.RequireManager(ctx, a.CommunityID, actorID); err != nil {
		return err
	}
	if err := s.store.DeleteAnnouncement(ctx, id); err != nil {
		return access.Translate(err, "announcement", id)
	}
	s.log.WithField("announcement_id", id).
		WithField("actor_id", actorID).
		Info("announcement deleted")
	return nil
}

func (s *Service) activeMembers(ctx context.Context, communityID string) ([]string, error) {
	list, err := s.members.ListMembers(ctx, communityID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, m := range list {
		if m.Status == member.StatusActive {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (s *Service) get(ctx context.Context, id string) (announcement.Announcement, error) {
	a, err := s.store.GetAnnouncement(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return announcement.Announcement{}, apperrors.NotFound("announcement", id)
	}
	return a, err
}

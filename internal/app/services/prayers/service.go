package prayers

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/remnanthub/platform/internal/app/domain/prayer"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 5000
)

// Service manages prayer requests.
type Service struct {
	store  storage.PrayerStore
	access *access.Checker
	log    *logger.Logger
}

// New constructs a prayer service.
func New(store storage.PrayerStore, checker *access.Checker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("prayers")
	}
	return &Service{store: store, access: checker, log: log}
}

// Create shares a new request with the community.
func (s *Service) Create(ctx context.Context, authorID, communityID, title, body string, anonymous bool) (prayer.Request, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return prayer.Request{}, apperrors.Required("title")
	}
	if body == "" {
		return prayer.Request{}, apperrors.Required("body")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return prayer.Request{}, apperrors.Validation("title must be at most %d characters", maxTitleLength)
	}
	if utf8.RuneCountInString(body) > maxBodyLength {
		return prayer.Request{}, apperrors.Validation("body must be at most %d characters", maxBodyLength)
	}
	if err := s.access.RequireActiveMember(ctx, communityID, authorID); err != nil {
		return prayer.Request{}, err
	}

	req, err := s.store.CreatePrayer(ctx, prayer.Request{
		CommunityID: communityID,
		AuthorID:    authorID,
		Title:       title,
		Body:        body,
		IsAnonymous: anonymous,
	})
	if err != nil {
		return prayer.Request{}, err
	}
	s.log.WithField("prayer_id", req.ID).
		WithField("community_id", communityID).
		WithField("anonymous", anonymous).
		Info("prayer request created")
	return req, nil
}

// List returns the community's requests, newest first. Authors of anonymous
// requests are hidden from everyone but themselves.
func (s *Service) List(ctx context.Context, viewerID, communityID string) ([]prayer.Request, error) {
	if err := s.access.RequireActiveMember(ctx, communityID, viewerID); err != nil {
		return nil, err
	}
	list, err := s.store.ListPrayers(ctx, communityID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = redact(list[i], viewerID)
	}
	return list, nil
}

// Pray records that the caller prayed for a request.
func (s *Service) Pray(ctx context.Context, userID, requestID string) (prayer.Request, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return prayer.Request{}, err
	}
	if err := s.access.RequireActiveMember(ctx, req.CommunityID, userID); err != nil {
		return prayer.Request{}, err
	}
	req, err = s.store.IncrementPrayerCount(ctx, requestID)
	if err != nil {
		return prayer.Request{}, access.Translate(err, "prayer request", requestID)
	}
	return redact(req, userID), nil
}

// MarkAnswered records an answered prayer with an optional testimony.
func (s *Service) MarkAnswered(ctx context.Context, actorID, requestID, note string) (prayer.Request, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return prayer.Request{}, err
	}
	if err := s.authorOrManager(ctx, req, actorID); err != nil {
		return prayer.Request{}, err
	}

	req.IsAnswered = true
	req.AnsweredNote = strings.TrimSpace(note)
	req, err = s.store.UpdatePrayer(ctx, req)
	if err != nil {
		return prayer.Request{}, access.Translate(err, "prayer request", requestID)
	}
	s.log.WithField("prayer_id", req.ID).
		WithField("actor_id", actorID).
		Info("prayer request answered")
	return redact(req, actorID), nil
}

// Delete removes a request.
func (s *Service) Delete(ctx context.Context, actorID, requestID string) error {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.authorOrManager(ctx, req, actorID); err != nil {
		return err
	}
	if err := s.store.DeletePrayer(ctx, requestID); err != nil {
		return access.Translate(err, "prayer request", requestID)
	}
	s.log.WithField("prayer_id", requestID).
		WithField("actor_id", actorID).
		Info("prayer request deleted")
	return nil
}

func (s *Service) authorOrManager(ctx context.Context, req prayer.Request, actorID string) error {
	if req.AuthorID == actorID {
		return nil
	}
	return s.access.RequireManager(ctx, req.CommunityID, actorID)
}

func (s *Service) get(ctx context.Context, id string) (prayer.Request, error) {
	req, err := s.store.GetPrayer(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return prayer.Request{}, apperrors.NotFound("prayer request", id)
	}
	return req, err
}

func redact(req prayer.Request, viewerID string) prayer.Request {
	if req.IsAnonymous && req.AuthorID != viewerID {
		req.AuthorID = ""
	}
	return req
}

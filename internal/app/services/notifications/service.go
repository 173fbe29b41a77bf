package notifications

import (
	"context"
	"strings"

	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// Service records and lists in-app notifications.
type Service struct {
	store storage.NotificationStore
	log   *logger.Logger
}

// New constructs a notification service.
func New(store storage.NotificationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("notifications")
	}
	return &Service{store: store, log: log}
}

// Notify stores a notification for one user. Delivery failures are logged and
// swallowed so the triggering action still succeeds.
func (s *Service) Notify(ctx context.Context, userID string, kind notification.Kind, message, link string) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return
	}
	n, err := s.store.CreateNotification(ctx, notification.Notification{
		UserID:  userID,
		Kind:    kind,
		Message: message,
		Link:    link,
	})
	if err != nil {
		s.log.WithError(err).
			WithField("user_id", userID).
			WithField("kind", kind).
			Warn("notification not stored")
		return
	}
	s.log.WithField("notification_id", n.ID).
		WithField("user_id", userID).
		WithField("kind", kind).
		Debug("notification stored")
}

// NotifyMany fans a notification out to several users, skipping skipID.
func (s *Service) NotifyMany(ctx context.Context, userIDs []string, skipID string, kind notification.Kind, message, link string) int {
	sent := 0
	for _, id := range userIDs {
		if id == skipID {
			continue
		}
		s.Notify(ctx, id, kind, message, link)
		sent++
	}
	return sent
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Required("user_id")
	}
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead flags one of the caller's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) (notification.Notification, error) {
	n, err := s.store.MarkNotificationRead(ctx, userID, id)
	if err != nil {
		return notification.Notification{}, access.Translate(err, "notification", id)
	}
	return n, nil
}

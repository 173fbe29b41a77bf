package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/domain/resource"
)

// ResourceStore implementation ------------------------------------------------

func (s *Store) CreateResource(_ context.Context, r resource.Resource) (resource.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = s.nextIDLocked()
	} else if _, exists := s.resources[r.ID]; exists {
		return resource.Resource{}, duplicate("resource", r.ID)
	}
	r.CreatedAt = time.Now().UTC()
	r.Tags = cloneStrings(r.Tags)

	s.resources[r.ID] = r
	r.Tags = cloneStrings(r.Tags)
	return r, nil
}

func (s *Store) GetResource(_ context.Context, id string) (resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resources[id]
	if !ok {
		return resource.Resource{}, notFound("resource", id)
	}
	r.Tags = cloneStrings(r.Tags)
	return r, nil
}

func (s *Store) ListResources(_ context.Context) ([]resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]resource.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		r.Tags = cloneStrings(r.Tags)
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Title) < strings.ToLower(result[j].Title)
	})
	return result, nil
}

// NotificationStore implementation --------------------------------------------

func (s *Store) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = s.nextIDLocked()
	}
	n.CreatedAt = time.Now().UTC()

	s.notifications[n.ID] = n
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []notification.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		result = append(result, n)
	}
	sortNewestFirst(result, func(n notification.Notification) (int64, string) { return n.CreatedAt.UnixNano(), n.ID })
	return result, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id string) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return notification.Notification{}, notFound("notification", id)
	}
	n.Read = true
	s.notifications[id] = n
	return n, nil
}

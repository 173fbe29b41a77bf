package memory

import (
	"context"
	"sort"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/announcement"
	"github.com/remnanthub/platform/internal/app/domain/chat"
	"github.com/remnanthub/platform/internal/app/domain/prayer"
	"github.com/remnanthub/platform/internal/app/domain/profile"
)

// ProfileStore implementation -------------------------------------------------

func (s *Store) UpsertProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	s.profiles[p.UserID] = p
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return profile.Profile{}, notFound("profile", userID)
	}
	return p, nil
}

// PrayerStore implementation --------------------------------------------------

func (s *Store) CreatePrayer(_ context.Context, req prayer.Request) (prayer.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	s.prayers[req.ID] = req
	return req, nil
}

func (s *Store) UpdatePrayer(_ context.Context, req prayer.Request) (prayer.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.prayers[req.ID]
	if !ok {
		return prayer.Request{}, notFound("prayer request", req.ID)
	}
	req.CreatedAt = original.CreatedAt
	req.UpdatedAt = time.Now().UTC()

	s.prayers[req.ID] = req
	return req, nil
}

func (s *Store) GetPrayer(_ context.Context, id string) (prayer.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.prayers[id]
	if !ok {
		return prayer.Request{}, notFound("prayer request", id)
	}
	return req, nil
}

func (s *Store) ListPrayers(_ context.Context, communityID string) ([]prayer.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []prayer.Request
	for _, req := range s.prayers {
		if req.CommunityID == communityID {
			result = append(result, req)
		}
	}
	sortNewestFirst(result, func(r prayer.Request) (int64, string) { return r.CreatedAt.UnixNano(), r.ID })
	return result, nil
}

func (s *Store) IncrementPrayerCount(_ context.Context, id string) (prayer.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.prayers[id]
	if !ok {
		return prayer.Request{}, notFound("prayer request", id)
	}
	req.PrayerCount++
	req.UpdatedAt = time.Now().UTC()
	s.prayers[id] = req
	return req, nil
}

func (s *Store) DeletePrayer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prayers[id]; !ok {
		return notFound("prayer request", id)
	}
	delete(s.prayers, id)
	return nil
}

// AnnouncementStore implementation --------------------------------------------

func (s *Store) CreateAnnouncement(_ context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	s.announcements[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAnnouncement(_ context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.announcements[a.ID]
	if !ok {
		return announcement.Announcement{}, notFound("announcement", a.ID)
	}
	a.CreatedAt = original.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	s.announcements[a.ID] = a
	return a, nil
}

func (s *Store) GetAnnouncement(_ context.Context, id string) (announcement.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.announcements[id]
	if !ok {
		return announcement.Announcement{}, notFound("announcement", id)
	}
	return a, nil
}

// ListAnnouncements returns pinned announcements first, each group newest first.
func (s *Store) ListAnnouncements(_ context.Context, communityID string) ([]announcement.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []announcement.Announcement
	for _, a := range s.announcements {
		if a.CommunityID == communityID {
			result = append(result, a)
		}
	}
	sortNewestFirst(result, func(a announcement.Announcement) (int64, string) { return a.CreatedAt.UnixNano(), a.ID })
	sort.SliceStable(result, func(i, j int) bool { return result[i].Pinned && !result[j].Pinned })
	return result, nil
}

func (s *Store) DeleteAnnouncement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.announcements[id]; !ok {
		return notFound("announcement", id)
	}
	delete(s.announcements, id)
	return nil
}

// ChatStore implementation ----------------------------------------------------

func (s *Store) CreateMessage(_ context.Context, msg chat.Message) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = s.nextIDLocked()
	}
	msg.CreatedAt = time.Now().UTC()
	if !msg.CreatedAt.After(s.lastMessageAt) {
		msg.CreatedAt = s.lastMessageAt.Add(time.Microsecond)
	}
	s.lastMessageAt = msg.CreatedAt

	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *Store) ListMessages(_ context.Context, communityID string, since time.Time, limit int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []chat.Message
	for _, msg := range s.messages {
		if msg.CommunityID != communityID {
			continue
		}
		if !since.IsZero() && !msg.CreatedAt.After(since) {
			continue
		}
		result = append(result, msg)
	}
	sortOldestFirst(result, func(m chat.Message) (int64, string) { return m.CreatedAt.UnixNano(), m.ID })
	if limit <= 0 || len(result) <= limit {
		return result, nil
	}
	// Without a cursor the caller wants the latest page; with one, the next
	// unseen messages in order.
	if since.IsZero() {
		return result[len(result)-limit:], nil
	}
	return result[:limit], nil
}

package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/remnanthub/platform/internal/app/domain/announcement"
	"github.com/remnanthub/platform/internal/app/domain/chat"
	"github.com/remnanthub/platform/internal/app/domain/prayer"
	"github.com/remnanthub/platform/internal/app/domain/profile"
)

// --- ProfileStore -----------------------------------------------------------

func (s *Store) UpsertProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	ts := now()
	err := s.db.GetContext(ctx, &p, `
		INSERT INTO profiles (user_id, display_name, bio, city, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			city = EXCLUDED.city,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
		RETURNING user_id, display_name, bio, city, avatar_url, created_at, updated_at
	`, p.UserID, p.DisplayName, p.Bio, p.City, p.AvatarURL, ts)
	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	var p profile.Profile
	err := s.db.GetContext(ctx, &p, `
		SELECT user_id, display_name, bio, city, avatar_url, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return profile.Profile{}, mapErr("profile", userID, err)
	}
	return p, nil
}

// --- PrayerStore ------------------------------------------------------------

const prayerColumns = `id, community_id, author_id, title, body, is_anonymous, is_answered,
	answered_note, prayer_count, created_at, updated_at`

func (s *Store) CreatePrayer(ctx context.Context, req prayer.Request) (prayer.Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.CreatedAt = now()
	req.UpdatedAt = req.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prayer_requests (id, community_id, author_id, title, body, is_anonymous,
			is_answered, answered_note, prayer_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, req.ID, req.CommunityID, req.AuthorID, req.Title, req.Body, req.IsAnonymous,
		req.IsAnswered, req.AnsweredNote, req.PrayerCount, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return prayer.Request{}, mapErr("prayer request", req.ID, err)
	}
	return req, nil
}

func (s *Store) UpdatePrayer(ctx context.Context, req prayer.Request) (prayer.Request, error) {
	existing, err := s.GetPrayer(ctx, req.ID)
	if err != nil {
		return prayer.Request{}, err
	}
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE prayer_requests
		SET title = $2, body = $3, is_anonymous = $4, is_answered = $5,
			answered_note = $6, updated_at = $7
		WHERE id = $1
	`, req.ID, req.Title, req.Body, req.IsAnonymous, req.IsAnswered, req.AnsweredNote, req.UpdatedAt)
	if err != nil {
		return prayer.Request{}, err
	}
	if err := expectRow("prayer request", req.ID, result); err != nil {
		return prayer.Request{}, err
	}
	req.PrayerCount = existing.PrayerCount
	return req, nil
}

func (s *Store) GetPrayer(ctx context.Context, id string) (prayer.Request, error) {
	var req prayer.Request
	err := s.db.GetContext(ctx, &req, `SELECT `+prayerColumns+` FROM prayer_requests WHERE id = $1`, id)
	if err != nil {
		return prayer.Request{}, mapErr("prayer request", id, err)
	}
	return req, nil
}

func (s *Store) ListPrayers(ctx context.Context, communityID string) ([]prayer.Request, error) {
	var result []prayer.Request
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+prayerColumns+` FROM prayer_requests
		WHERE community_id = $1
		ORDER BY created_at DESC, id DESC
	`, communityID)
	return result, err
}

func (s *Store) IncrementPrayerCount(ctx context.Context, id string) (prayer.Request, error) {
	var req prayer.Request
	err := s.db.GetContext(ctx, &req, `
		UPDATE prayer_requests
		SET prayer_count = prayer_count + 1, updated_at = $2
		WHERE id = $1
		RETURNING `+prayerColumns, id, now())
	if err != nil {
		return prayer.Request{}, mapErr("prayer request", id, err)
	}
	return req, nil
}

func (s *Store) DeletePrayer(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM prayer_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow("prayer request", id, result)
}

// --- AnnouncementStore ------------------------------------------------------

const announcementColumns = `id, community_id, author_id, title, body, pinned, created_at, updated_at`

func (s *Store) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO announcements (id, community_id, author_id, title, body, pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.CommunityID, a.AuthorID, a.Title, a.Body, a.Pinned, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return announcement.Announcement{}, mapErr("announcement", a.ID, err)
	}
	return a, nil
}

func (s *Store) UpdateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	existing, err := s.GetAnnouncement(ctx, a.ID)
	if err != nil {
		return announcement.Announcement{}, err
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE announcements
		SET title = $2, body = $3, pinned = $4, updated_at = $5
		WHERE id = $1
	`, a.ID, a.Title, a.Body, a.Pinned, a.UpdatedAt)
	if err != nil {
		return announcement.Announcement{}, err
	}
	if err := expectRow("announcement", a.ID, result); err != nil {
		return announcement.Announcement{}, err
	}
	return a, nil
}

func (s *Store) GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error) {
	var a announcement.Announcement
	err := s.db.GetContext(ctx, &a, `SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id)
	if err != nil {
		return announcement.Announcement{}, mapErr("announcement", id, err)
	}
	return a, nil
}

func (s *Store) ListAnnouncements(ctx context.Context, communityID string) ([]announcement.Announcement, error) {
	var result []announcement.Announcement
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+announcementColumns+` FROM announcements
		WHERE community_id = $1
		ORDER BY pinned DESC, created_at DESC, id DESC
	`, communityID)
	return result, err
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow("announcement", id, result)
}

// --- ChatStore --------------------------------------------------------------

func (s *Store) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, community_id, sender_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.CommunityID, msg.SenderID, msg.Body, msg.CreatedAt)
	if err != nil {
		return chat.Message{}, mapErr("chat message", msg.ID, err)
	}
	return msg, nil
}

// ListMessages returns messages oldest first. Without a cursor it selects the
// newest rows and flips them back to chronological order; with one it pages
// forward from the cursor.
func (s *Store) ListMessages(ctx context.Context, communityID string, since time.Time, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 1000
	}
	var result []chat.Message
	if since.IsZero() {
		err := s.db.SelectContext(ctx, &result, `
			SELECT id, community_id, sender_id, body, created_at FROM (
				SELECT id, community_id, sender_id, body, created_at
				FROM chat_messages
				WHERE community_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			) recent
			ORDER BY created_at, id
		`, communityID, limit)
		return result, err
	}
	err := s.db.SelectContext(ctx, &result, `
		SELECT id, community_id, sender_id, body, created_at
		FROM chat_messages
		WHERE community_id = $1 AND created_at > $2
		ORDER BY created_at, id
		LIMIT $3
	`, communityID, since.UTC(), limit)
	return result, err
}

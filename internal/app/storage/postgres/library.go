package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/domain/resource"
)

type resourceRow struct {
	resource.Resource
	TagsRaw []byte `db:"tags"`
}

func (r resourceRow) toDomain() resource.Resource {
	res := r.Resource
	unmarshalJSON(r.TagsRaw, &res.Tags)
	return res
}

const resourceColumns = `id, title, description, category, url, tags, created_at`

// --- ResourceStore ----------------------------------------------------------

func (s *Store) CreateResource(ctx context.Context, r resource.Resource) (resource.Resource, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = now()

	tags, err := marshalJSON(r.Tags, "[]")
	if err != nil {
		return resource.Resource{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resources (id, title, description, category, url, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.Title, r.Description, r.Category, r.URL, tags, r.CreatedAt)
	if err != nil {
		return resource.Resource{}, mapErr("resource", r.ID, err)
	}
	return r, nil
}

func (s *Store) GetResource(ctx context.Context, id string) (resource.Resource, error) {
	var row resourceRow
	err := s.db.GetContext(ctx, &row, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id)
	if err != nil {
		return resource.Resource{}, mapErr("resource", id, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListResources(ctx context.Context) ([]resource.Resource, error) {
	var rows []resourceRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+resourceColumns+` FROM resources ORDER BY lower(title), id`); err != nil {
		return nil, err
	}
	result := make([]resource.Resource, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

// --- NotificationStore ------------------------------------------------------

const notificationColumns = `id, user_id, kind, message, link, read, created_at`

func (s *Store) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, message, link, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, string(n.Kind), n.Message, n.Link, n.Read, n.CreatedAt)
	if err != nil {
		return notification.Notification{}, mapErr("notification", n.ID, err)
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	var result []notification.Notification
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 AND (NOT $2::boolean OR NOT read)
		ORDER BY created_at DESC, id DESC
	`, userID, unreadOnly)
	return result, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) (notification.Notification, error) {
	var n notification.Notification
	err := s.db.GetContext(ctx, &n, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING `+notificationColumns, id, userID)
	if err != nil {
		return notification.Notification{}, mapErr("notification", id, err)
	}
	return n, nil
}

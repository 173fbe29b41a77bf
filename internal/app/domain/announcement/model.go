package announcement

import "time"

// Announcement is a leader post pinned to a community board.
type Announcement struct {
	ID          string    `json:"id" db:"id"`
	CommunityID string    `json:"community_id" db:"community_id"`
	AuthorID    string    `json:"author_id" db:"author_id"`
	Title       string    `json:"title" db:"title"`
	Body        string    `json:"body" db:"body"`
	Pinned      bool      `json:"pinned" db:"pinned"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

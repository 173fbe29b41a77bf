package prayer

import "time"

// Request is a prayer request shared with a community.
type Request struct {
	ID           string    `json:"id" db:"id"`
	CommunityID  string    `json:"community_id" db:"community_id"`
	AuthorID     string    `json:"author_id,omitempty" db:"author_id"`
	Title        string    `json:"title" db:"title"`
	Body         string    `json:"body" db:"body"`
	IsAnonymous  bool      `json:"is_anonymous" db:"is_anonymous"`
	IsAnswered   bool      `json:"is_answered" db:"is_answered"`
	AnsweredNote string    `json:"answered_note,omitempty" db:"answered_note"`
	PrayerCount  int       `json:"prayer_count" db:"prayer_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

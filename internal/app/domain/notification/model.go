package notification

import "time"

// Kind classifies notifications for client rendering.
type Kind string

const (
	KindJoinRequest     Kind = "join_request"
	KindJoinApproved    Kind = "join_approved"
	KindAnnouncement    Kind = "announcement"
	KindReadingReminder Kind = "reading_reminder"
	KindPartnerRequest  Kind = "partner_request"
)

// Notification is an in-app message for a single user.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Kind      Kind      `json:"kind" db:"kind"`
	Message   string    `json:"message" db:"message"`
	Link      string    `json:"link,omitempty" db:"link"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

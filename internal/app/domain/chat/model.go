package chat

import "time"

// MaxBodyLength bounds a single chat message.
const MaxBodyLength = 2000

// Message is a single community chat line.
type Message struct {
	ID          string    `json:"id" db:"id"`
	CommunityID string    `json:"community_id" db:"community_id"`
	SenderID    string    `json:"sender_id" db:"sender_id"`
	Body        string    `json:"body" db:"body"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

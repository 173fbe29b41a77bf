package verification

import "time"

// MinReferences is the number of references a submission needs.
const MinReferences = 2

// Status is the review state of a submission.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Reference vouches for a prospective leader.
type Reference struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Relationship string `json:"relationship"`
}

// Submission is a leader verification form.
type Submission struct {
	ID          string      `json:"id" db:"id"`
	UserID      string      `json:"user_id" db:"user_id"`
	CommunityID string      `json:"community_id,omitempty" db:"community_id"`
	FullName    string      `json:"full_name" db:"full_name"`
	Statement   string      `json:"statement" db:"statement"`
	References  []Reference `json:"references" db:"-"`
	Status      Status      `json:"status" db:"status"`
	ReviewerID  string      `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewNote  string      `json:"review_note,omitempty" db:"review_note"`
	SubmittedAt time.Time   `json:"submitted_at" db:"submitted_at"`
	ReviewedAt  *time.Time  `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

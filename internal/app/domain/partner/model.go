package partner

import "time"

// Status tracks an accountability partnership.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusEnded    Status = "ended"
)

// Open reports whether the partnership still blocks a new request between the same pair.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusAccepted
}

// Frequency is the agreed check-in cadence.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Valid reports whether the frequency is known.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// Partnership pairs two members of a community.
type Partnership struct {
	ID          string    `json:"id" db:"id"`
	CommunityID string    `json:"community_id" db:"community_id"`
	RequesterID string    `json:"requester_id" db:"requester_id"`
	PartnerID   string    `json:"partner_id" db:"partner_id"`
	Status      Status    `json:"status" db:"status"`
	Frequency   Frequency `json:"frequency" db:"frequency"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Involves reports whether userID is either side of the partnership.
func (p Partnership) Involves(userID string) bool {
	return p.RequesterID == userID || p.PartnerID == userID
}

// CheckIn is a note left by one partner.
type CheckIn struct {
	ID            string    `json:"id" db:"id"`
	PartnershipID string    `json:"partnership_id" db:"partnership_id"`
	AuthorID      string    `json:"author_id" db:"author_id"`
	Note          string    `json:"note" db:"note"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

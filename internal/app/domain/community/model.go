package community

import (
	"strings"
	"time"
)

// TrustLevel is a staff-assigned label. It is never computed.
type TrustLevel string

const (
	TrustNew         TrustLevel = "New"
	TrustEstablished TrustLevel = "Established"
	TrustVerified    TrustLevel = "Verified"
	TrustEndorsed    TrustLevel = "Endorsed"
)

// Valid reports whether the label is one of the known levels.
func (t TrustLevel) Valid() bool {
	switch t {
	case TrustNew, TrustEstablished, TrustVerified, TrustEndorsed:
		return true
	}
	return false
}

// Community is a house church listed on the platform.
type Community struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	LeaderID    string     `json:"leader_id" db:"leader_id"`
	Address     string     `json:"address" db:"address"`
	City        string     `json:"city" db:"city"`
	Region      string     `json:"region" db:"region"`
	Country     string     `json:"country" db:"country"`
	Latitude    *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64   `json:"longitude,omitempty" db:"longitude"`
	MeetingDay  string     `json:"meeting_day" db:"meeting_day"`
	MeetingTime string     `json:"meeting_time" db:"meeting_time"`
	MaxMembers  int        `json:"max_members" db:"max_members"`
	IsPublic    bool       `json:"is_public" db:"is_public"`
	Tags        []string   `json:"tags" db:"-"`
	TrustLevel  TrustLevel `json:"trust_level" db:"trust_level"`
	ParentID    string     `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// HasLocation reports whether both coordinates are set.
func (c Community) HasLocation() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// Filter narrows community listings. Zero values match everything.
type Filter struct {
	Query      string
	City       string
	MeetingDay string
	TrustLevel TrustLevel
	Tag        string
	ParentID   string
	PublicOnly bool
}

// Nearby pairs a community with its distance from a search origin.
type Nearby struct {
	Community  Community `json:"community"`
	DistanceKm float64   `json:"distance_km"`
}

// Matches applies the filter to a single community. Query is a
// case-insensitive substring match over name, description, city and tags;
// every other field must match exactly.
func (f Filter) Matches(c Community) bool {
	if f.PublicOnly && !c.IsPublic {
		return false
	}
	if f.City != "" && !strings.EqualFold(f.City, c.City) {
		return false
	}
	if f.MeetingDay != "" && !strings.EqualFold(f.MeetingDay, c.MeetingDay) {
		return false
	}
	if f.TrustLevel != "" && f.TrustLevel != c.TrustLevel {
		return false
	}
	if f.ParentID != "" && f.ParentID != c.ParentID {
		return false
	}
	if f.Tag != "" && !hasTag(c.Tags, f.Tag) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Description, c.City} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

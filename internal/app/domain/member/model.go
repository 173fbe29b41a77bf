package member

import "time"

// Role is a member's function within a community.
type Role string

const (
	RoleLeader   Role = "leader"
	RoleCoLeader Role = "co_leader"
	RoleMember   Role = "member"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	return r == RoleLeader || r == RoleCoLeader || r == RoleMember
}

// CanManage reports whether the role may approve members and post for the community.
func (r Role) CanManage() bool {
	return r == RoleLeader || r == RoleCoLeader
}

// Status tracks a membership through join approval.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusRemoved Status = "removed"
)

// Member links a user to a community.
type Member struct {
	ID          string    `json:"id" db:"id"`
	CommunityID string    `json:"community_id" db:"community_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Role        Role      `json:"role" db:"role"`
	Status      Status    `json:"status" db:"status"`
	JoinedAt    time.Time `json:"joined_at" db:"joined_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

package multiplication

import "time"

// Stage is where a planned multiplication stands.
type Stage string

const (
	StagePlanning Stage = "planning"
	StageTraining Stage = "training"
	StageLaunched Stage = "launched"
)

// Valid reports whether the stage is known.
func (s Stage) Valid() bool {
	return s == StagePlanning || s == StageTraining || s == StageLaunched
}

// Multiplication tracks a parent community raising up a new one.
type Multiplication struct {
	ID                 string     `json:"id" db:"id"`
	ParentCommunityID  string     `json:"parent_community_id" db:"parent_community_id"`
	ChildCommunityID   string     `json:"child_community_id,omitempty" db:"child_community_id"`
	ApprenticeLeaderID string     `json:"apprentice_leader_id" db:"apprentice_leader_id"`
	Stage              Stage      `json:"stage" db:"stage"`
	TargetDate         *time.Time `json:"target_date,omitempty" db:"target_date"`
	Notes              string     `json:"notes" db:"notes"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Lineage summarises a community's place in its family tree.
type Lineage struct {
	CommunityID string   `json:"community_id"`
	Generation  int      `json:"generation"`
	Ancestors   []string `json:"ancestors"`
	Children    []string `json:"children"`
	Descendants int      `json:"descendants"`
}

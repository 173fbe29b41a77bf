package report

import "time"

// Step is a stage of the three-step conflict resolution process.
type Step int

const (
	StepPrivateConversation Step = 1
	StepWitnesses           Step = 2
	StepChurchLeadership    Step = 3
)

// FinalStep is the last step a report can reach.
const FinalStep = StepChurchLeadership

func (s Step) String() string {
	switch s {
	case StepPrivateConversation:
		return "private_conversation"
	case StepWitnesses:
		return "witnesses"
	case StepChurchLeadership:
		return "church_leadership"
	}
	return "unknown"
}

// Status is whether the report is still being worked.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

// Note is a free-text entry recorded when the report moves.
type Note struct {
	AuthorID  string    `json:"author_id"`
	Step      Step      `json:"step"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is a conflict raised within a community.
type Report struct {
	ID          string    `json:"id" db:"id"`
	CommunityID string    `json:"community_id" db:"community_id"`
	ReporterID  string    `json:"reporter_id" db:"reporter_id"`
	SubjectID   string    `json:"subject_id,omitempty" db:"subject_id"`
	Description string    `json:"description" db:"description"`
	Step        Step      `json:"step" db:"step"`
	StepName    string    `json:"step_name" db:"-"`
	Status      Status    `json:"status" db:"status"`
	Notes       []Note    `json:"notes" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

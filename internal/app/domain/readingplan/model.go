package readingplan

import (
	"math"
	"time"
)

// Reading is one day's assignment.
type Reading struct {
	Day       int    `json:"day"`
	Reference string `json:"reference"`
}

// Plan is a community Bible reading plan.
type Plan struct {
	ID          string    `json:"id" db:"id"`
	CommunityID string    `json:"community_id" db:"community_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	Readings    []Reading `json:"readings" db:"-"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ReadingForDay returns the reading scheduled for the given day.
func (p Plan) ReadingForDay(day int) (Reading, bool) {
	for _, r := range p.Readings {
		if r.Day == day {
			return r, true
		}
	}
	return Reading{}, false
}

// DayAt returns the 1-based plan day for the given instant. Days before the
// start date are reported as values below 1.
func (p Plan) DayAt(now time.Time) int {
	start := truncateDay(p.StartDate)
	today := truncateDay(now.In(p.StartDate.Location()))
	return int(math.Round(today.Sub(start).Hours()/24)) + 1
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Progress is a user's completion state for a plan.
type Progress struct {
	PlanID        string    `json:"plan_id" db:"plan_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	CompletedDays []int     `json:"completed_days" db:"-"`
	Percent       float64   `json:"percent" db:"-"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Completed reports whether day is marked done.
func (p Progress) Completed(day int) bool {
	for _, d := range p.CompletedDays {
		if d == day {
			return true
		}
	}
	return false
}

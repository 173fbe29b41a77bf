package memory

import (
	"context"
	"sort"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/readingplan"
)

// ReadingPlanStore implementation ---------------------------------------------

func (s *Store) CreatePlan(_ context.Context, plan readingplan.Plan) (readingplan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == "" {
		plan.ID = s.nextIDLocked()
	}
	plan.CreatedAt = time.Now().UTC()

	s.plans[plan.ID] = clonePlan(plan)
	return clonePlan(plan), nil
}

func (s *Store) GetPlan(_ context.Context, id string) (readingplan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return readingplan.Plan{}, notFound("reading plan", id)
	}
	return clonePlan(plan), nil
}

func (s *Store) ListPlans(_ context.Context, communityID string) ([]readingplan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []readingplan.Plan
	for _, plan := range s.plans {
		if communityID == "" || plan.CommunityID == communityID {
			result = append(result, clonePlan(plan))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.After(result[j].StartDate)
		}
		return idLess(result[i].ID, result[j].ID)
	})
	return result, nil
}

func (s *Store) GetProgress(_ context.Context, planID, userID string) (readingplan.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prog, ok := s.progress[progressKey(planID, userID)]
	if !ok {
		return readingplan.Progress{}, notFound("reading progress", planID+"/"+userID)
	}
	prog.CompletedDays = cloneInts(prog.CompletedDays)
	return prog, nil
}

func (s *Store) SaveProgress(_ context.Context, prog readingplan.Progress) (readingplan.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[prog.PlanID]; !ok {
		return readingplan.Progress{}, notFound("reading plan", prog.PlanID)
	}
	prog.CompletedDays = cloneInts(prog.CompletedDays)
	sort.Ints(prog.CompletedDays)
	prog.UpdatedAt = time.Now().UTC()

	s.progress[progressKey(prog.PlanID, prog.UserID)] = prog
	prog.CompletedDays = cloneInts(prog.CompletedDays)
	return prog, nil
}

func progressKey(planID, userID string) string {
	return planID + "|" + userID
}

func clonePlan(plan readingplan.Plan) readingplan.Plan {
	if plan.Readings != nil {
		readings := make([]readingplan.Reading, len(plan.Readings))
		copy(readings, plan.Readings)
		plan.Readings = readings
	}
	return plan
}

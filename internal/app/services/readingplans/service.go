package readingplans

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/readingplan"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// Service manages community reading plans and member progress.
type Service struct {
	store  storage.ReadingPlanStore
	access *access.Checker
	log    *logger.Logger
}

// New constructs a reading plan service.
func New(store storage.ReadingPlanStore, checker *access.Checker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("readingplans")
	}
	return &Service{store: store, access: checker, log: log}
}

// CreatePlan adds a plan. Leaders and co-leaders only.
func (s *Service) CreatePlan(ctx context.Context, actorID string, plan readingplan.Plan) (readingplan.Plan, error) {
	plan.Title = strings.TrimSpace(plan.Title)
	plan.Description = strings.TrimSpace(plan.Description)
	if plan.Title == "" {
		return readingplan.Plan{}, apperrors.Required("title")
	}
	if plan.StartDate.IsZero() {
		return readingplan.Plan{}, apperrors.Required("start_date")
	}
	readings, err := normalizeReadings(plan.Readings)
	if err != nil {
		return readingplan.Plan{}, err
	}
	if err := s.access.RequireManager(ctx, plan.CommunityID, actorID); err != nil {
		return readingplan.Plan{}, err
	}

	plan.ID = ""
	plan.Readings = readings
	plan.CreatedBy = actorID
	plan.StartDate = plan.StartDate.UTC()
	plan, err = s.store.CreatePlan(ctx, plan)
	if err != nil {
		return readingplan.Plan{}, err
	}
	s.log.WithField("plan_id", plan.ID).
		WithField("community_id", plan.CommunityID).
		WithField("days", len(plan.Readings)).
		Info("reading plan created")
	return plan, nil
}

// ListPlans returns a community's plans.
func (s *Service) ListPlans(ctx context.Context, communityID string) ([]readingplan.Plan, error) {
	if _, err := s.access.Community(ctx, communityID); err != nil {
		return nil, err
	}
	return s.store.ListPlans(ctx, communityID)
}

// GetPlan returns a plan by id.
func (s *Service) GetPlan(ctx context.Context, id string) (readingplan.Plan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return readingplan.Plan{}, apperrors.NotFound("reading plan", id)
	}
	return plan, err
}

// MarkDay records (or clears) completion of one plan day for the caller.
func (s *Service) MarkDay(ctx context.Context, userID, planID string, day int, done bool) (readingplan.Progress, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return readingplan.Progress{}, err
	}
	if _, ok := plan.ReadingForDay(day); !ok {
		return readingplan.Progress{}, apperrors.Validation("day %d is not part of this plan", day)
	}
	if err := s.access.RequireActiveMember(ctx, plan.CommunityID, userID); err != nil {
		return readingplan.Progress{}, err
	}

	prog, err := s.loadProgress(ctx, planID, userID)
	if err != nil {
		return readingplan.Progress{}, err
	}
	prog.CompletedDays = setDay(prog.CompletedDays, day, done)
	prog, err = s.store.SaveProgress(ctx, prog)
	if err != nil {
		return readingplan.Progress{}, err
	}
	prog.Percent = percent(plan, prog)
	return prog, nil
}

// Progress returns the caller's completed days and percentage.
func (s *Service) Progress(ctx context.Context, userID, planID string) (readingplan.Progress, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return readingplan.Progress{}, err
	}
	prog, err := s.loadProgress(ctx, planID, userID)
	if err != nil {
		return readingplan.Progress{}, err
	}
	prog.Percent = percent(plan, prog)
	return prog, nil
}

// TodaysReading returns the reading whose day equals the days elapsed since
// the plan started plus one.
func TodaysReading(plan readingplan.Plan, now time.Time) (readingplan.Reading, bool) {
	day := plan.DayAt(now)
	if day < 1 {
		return readingplan.Reading{}, false
	}
	return plan.ReadingForDay(day)
}

func (s *Service) loadProgress(ctx context.Context, planID, userID string) (readingplan.Progress, error) {
	prog, err := s.store.GetProgress(ctx, planID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return readingplan.Progress{PlanID: planID, UserID: userID, CompletedDays: []int{}}, nil
	}
	return prog, err
}

func normalizeReadings(in []readingplan.Reading) ([]readingplan.Reading, error) {
	if len(in) == 0 {
		return nil, apperrors.Validation("a plan needs at least one reading")
	}
	seen := make(map[int]struct{}, len(in))
	out := make([]readingplan.Reading, 0, len(in))
	for _, r := range in {
		if r.Day < 1 {
			return nil, apperrors.Validation("reading days start at 1")
		}
		if _, dup := seen[r.Day]; dup {
			return nil, apperrors.Validation("day %d appears more than once", r.Day)
		}
		r.Reference = strings.TrimSpace(r.Reference)
		if r.Reference == "" {
			return nil, apperrors.Validation("day %d needs a reference", r.Day)
		}
		seen[r.Day] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func setDay(days []int, day int, done bool) []int {
	out := make([]int, 0, len(days)+1)
	for _, d := range days {
		if d != day {
			out = append(out, d)
		}
	}
	if done {
		out = append(out, day)
	}
	sort.Ints(out)
	return out
}

func percent(plan readingplan.Plan, prog readingplan.Progress) float64 {
	if len(plan.Readings) == 0 {
		return 0
	}
	done := 0
	for _, r := range plan.Readings {
		if prog.Completed(r.Day) {
			done++
		}
	}
	return math.Round(float64(done)*1000/float64(len(plan.Readings))) / 10
}

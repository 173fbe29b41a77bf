package postgres

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/remnanthub/platform/internal/app/domain/readingplan"
)

type planRow struct {
	readingplan.Plan
	ReadingsRaw []byte `db:"readings"`
}

func (r planRow) toDomain() readingplan.Plan {
	plan := r.Plan
	unmarshalJSON(r.ReadingsRaw, &plan.Readings)
	return plan
}

type progressRow struct {
	readingplan.Progress
	DaysRaw []byte `db:"completed_days"`
}

const planColumns = `id, community_id, title, description, start_date, readings, created_by, created_at`

// --- ReadingPlanStore -------------------------------------------------------

func (s *Store) CreatePlan(ctx context.Context, plan readingplan.Plan) (readingplan.Plan, error) {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.CreatedAt = now()

	readings, err := marshalJSON(plan.Readings, "[]")
	if err != nil {
		return readingplan.Plan{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reading_plans (id, community_id, title, description, start_date, readings, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, plan.ID, plan.CommunityID, plan.Title, plan.Description, plan.StartDate.UTC(), readings, plan.CreatedBy, plan.CreatedAt)
	if err != nil {
		return readingplan.Plan{}, mapErr("reading plan", plan.ID, err)
	}
	return plan, nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (readingplan.Plan, error) {
	var row planRow
	err := s.db.GetContext(ctx, &row, `SELECT `+planColumns+` FROM reading_plans WHERE id = $1`, id)
	if err != nil {
		return readingplan.Plan{}, mapErr("reading plan", id, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListPlans(ctx context.Context, communityID string) ([]readingplan.Plan, error) {
	var rows []planRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+planColumns+` FROM reading_plans
		WHERE $1::text = '' OR community_id = $1
		ORDER BY start_date DESC, id
	`, communityID)
	if err != nil {
		return nil, err
	}
	result := make([]readingplan.Plan, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) GetProgress(ctx context.Context, planID, userID string) (readingplan.Progress, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row, `
		SELECT plan_id, user_id, completed_days, updated_at
		FROM reading_progress
		WHERE plan_id = $1 AND user_id = $2
	`, planID, userID)
	if err != nil {
		return readingplan.Progress{}, mapErr("reading progress", planID+"/"+userID, err)
	}
	prog := row.Progress
	unmarshalJSON(row.DaysRaw, &prog.CompletedDays)
	return prog, nil
}

func (s *Store) SaveProgress(ctx context.Context, prog readingplan.Progress) (readingplan.Progress, error) {
	days := append([]int(nil), prog.CompletedDays...)
	sort.Ints(days)
	prog.CompletedDays = days
	prog.UpdatedAt = now()

	raw, err := marshalJSON(days, "[]")
	if err != nil {
		return readingplan.Progress{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reading_progress (plan_id, user_id, completed_days, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (plan_id, user_id) DO UPDATE
		SET completed_days = EXCLUDED.completed_days, updated_at = EXCLUDED.updated_at
	`, prog.PlanID, prog.UserID, raw, prog.UpdatedAt)
	if err != nil {
		return readingplan.Progress{}, mapErr("reading progress", prog.PlanID+"/"+prog.UserID, err)
	}
	return prog, nil
}

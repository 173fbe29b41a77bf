package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/remnanthub/platform/internal/app/domain/report"
	"github.com/remnanthub/platform/internal/app/domain/verification"
	"github.com/remnanthub/platform/internal/app/storage"
)

type submissionRow struct {
	verification.Submission
	ReferencesRaw []byte `db:"references"`
}

func (r submissionRow) toDomain() verification.Submission {
	sub := r.Submission
	unmarshalJSON(r.ReferencesRaw, &sub.References)
	return sub
}

type reportRow struct {
	report.Report
	NotesRaw []byte `db:"notes"`
}

func (r reportRow) toDomain() report.Report {
	rep := r.Report
	unmarshalJSON(r.NotesRaw, &rep.Notes)
	rep.StepName = rep.Step.String()
	return rep
}

const submissionColumns = `id, user_id, COALESCE(community_id, '') AS community_id, full_name, statement,
	"references", status, reviewer_id, review_note, submitted_at, reviewed_at`

// --- VerificationStore ------------------------------------------------------

func (s *Store) CreateSubmission(ctx context.Context, sub verification.Submission) (verification.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.SubmittedAt = now()

	refs, err := marshalJSON(sub.References, "[]")
	if err != nil {
		return verification.Submission{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_submissions (id, user_id, community_id, full_name, statement,
			"references", status, reviewer_id, review_note, submitted_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, sub.ID, sub.UserID, nullString(sub.CommunityID), sub.FullName, sub.Statement,
		refs, string(sub.Status), sub.ReviewerID, sub.ReviewNote, sub.SubmittedAt, sub.ReviewedAt)
	if err != nil {
		return verification.Submission{}, mapErr("verification", sub.ID, err)
	}
	return sub, nil
}

func (s *Store) UpdateSubmission(ctx context.Context, sub verification.Submission) (verification.Submission, error) {
	existing, err := s.GetSubmission(ctx, sub.ID)
	if err != nil {
		return verification.Submission{}, err
	}
	sub.SubmittedAt = existing.SubmittedAt

	result, err := s.db.ExecContext(ctx, `
		UPDATE verification_submissions
		SET status = $2, reviewer_id = $3, review_note = $4, reviewed_at = $5
		WHERE id = $1
	`, sub.ID, string(sub.Status), sub.ReviewerID, sub.ReviewNote, sub.ReviewedAt)
	if err != nil {
		return verification.Submission{}, err
	}
	if err := expectRow("verification", sub.ID, result); err != nil {
		return verification.Submission{}, err
	}
	return sub, nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (verification.Submission, error) {
	var row submissionRow
	err := s.db.GetContext(ctx, &row, `SELECT `+submissionColumns+` FROM verification_submissions WHERE id = $1`, id)
	if err != nil {
		return verification.Submission{}, mapErr("verification", id, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListSubmissions(ctx context.Context, filter storage.VerificationFilter) ([]verification.Submission, error) {
	var rows []submissionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+submissionColumns+` FROM verification_submissions
		WHERE ($1::text = '' OR user_id = $1) AND ($2::text = '' OR status = $2)
		ORDER BY submitted_at DESC, id DESC
	`, filter.UserID, string(filter.Status))
	if err != nil {
		return nil, err
	}
	result := make([]verification.Submission, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

// --- ReportStore ------------------------------------------------------------

const reportColumns = `id, community_id, reporter_id, subject_id, description, step, status, notes, created_at, updated_at`

func (s *Store) CreateReport(ctx context.Context, r report.Report) (report.Report, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt

	notes, err := marshalJSON(r.Notes, "[]")
	if err != nil {
		return report.Report{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, community_id, reporter_id, subject_id, description, step, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, r.CommunityID, r.ReporterID, r.SubjectID, r.Description, int(r.Step), string(r.Status), notes, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return report.Report{}, mapErr("report", r.ID, err)
	}
	return r, nil
}

func (s *Store) UpdateReport(ctx context.Context, r report.Report) (report.Report, error) {
	existing, err := s.GetReport(ctx, r.ID)
	if err != nil {
		return report.Report{}, err
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = now()

	notes, err := marshalJSON(r.Notes, "[]")
	if err != nil {
		return report.Report{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET step = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $1
	`, r.ID, int(r.Step), string(r.Status), notes, r.UpdatedAt)
	if err != nil {
		return report.Report{}, err
	}
	if err := expectRow("report", r.ID, result); err != nil {
		return report.Report{}, err
	}
	return r, nil
}

func (s *Store) GetReport(ctx context.Context, id string) (report.Report, error) {
	var row reportRow
	err := s.db.GetContext(ctx, &row, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if err != nil {
		return report.Report{}, mapErr("report", id, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListReports(ctx context.Context, filter storage.ReportFilter) ([]report.Report, error) {
	var rows []reportRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+reportColumns+` FROM reports
		WHERE ($1::text = '' OR community_id = $1) AND ($2::text = '' OR reporter_id = $2)
		ORDER BY created_at DESC, id DESC
	`, filter.CommunityID, filter.ReporterID)
	if err != nil {
		return nil, err
	}
	result := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

package memory

import (
	"context"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/report"
	"github.com/remnanthub/platform/internal/app/domain/verification"
	"github.com/remnanthub/platform/internal/app/storage"
)

// VerificationStore implementation --------------------------------------------

func (s *Store) CreateSubmission(_ context.Context, sub verification.Submission) (verification.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == "" {
		sub.ID = s.nextIDLocked()
	}
	sub.SubmittedAt = time.Now().UTC()

	s.submissions[sub.ID] = cloneSubmission(sub)
	return cloneSubmission(sub), nil
}

func (s *Store) UpdateSubmission(_ context.Context, sub verification.Submission) (verification.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.submissions[sub.ID]
	if !ok {
		return verification.Submission{}, notFound("verification", sub.ID)
	}
	sub.SubmittedAt = original.SubmittedAt

	s.submissions[sub.ID] = cloneSubmission(sub)
	return cloneSubmission(sub), nil
}

func (s *Store) GetSubmission(_ context.Context, id string) (verification.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return verification.Submission{}, notFound("verification", id)
	}
	return cloneSubmission(sub), nil
}

func (s *Store) ListSubmissions(_ context.Context, filter storage.VerificationFilter) ([]verification.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []verification.Submission
	for _, sub := range s.submissions {
		if filter.UserID != "" && sub.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		result = append(result, cloneSubmission(sub))
	}
	sortNewestFirst(result, func(v verification.Submission) (int64, string) { return v.SubmittedAt.UnixNano(), v.ID })
	return result, nil
}

// ReportStore implementation --------------------------------------------------

func (s *Store) CreateReport(_ context.Context, r report.Report) (report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	s.reports[r.ID] = cloneReport(r)
	return cloneReport(r), nil
}

func (s *Store) UpdateReport(_ context.Context, r report.Report) (report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.reports[r.ID]
	if !ok {
		return report.Report{}, notFound("report", r.ID)
	}
	r.CreatedAt = original.CreatedAt
	r.UpdatedAt = time.Now().UTC()

	s.reports[r.ID] = cloneReport(r)
	return cloneReport(r), nil
}

func (s *Store) GetReport(_ context.Context, id string) (report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return report.Report{}, notFound("report", id)
	}
	return cloneReport(r), nil
}

func (s *Store) ListReports(_ context.Context, filter storage.ReportFilter) ([]report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []report.Report
	for _, r := range s.reports {
		if filter.CommunityID != "" && r.CommunityID != filter.CommunityID {
			continue
		}
		if filter.ReporterID != "" && r.ReporterID != filter.ReporterID {
			continue
		}
		result = append(result, cloneReport(r))
	}
	sortNewestFirst(result, func(r report.Report) (int64, string) { return r.CreatedAt.UnixNano(), r.ID })
	return result, nil
}

func cloneSubmission(sub verification.Submission) verification.Submission {
	if sub.References != nil {
		refs := make([]verification.Reference, len(sub.References))
		copy(refs, sub.References)
		sub.References = refs
	}
	if sub.ReviewedAt != nil {
		t := *sub.ReviewedAt
		sub.ReviewedAt = &t
	}
	return sub
}

func cloneReport(r report.Report) report.Report {
	if r.Notes != nil {
		notes := make([]report.Note, len(r.Notes))
		copy(notes, r.Notes)
		r.Notes = notes
	}
	return r
}

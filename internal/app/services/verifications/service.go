package verifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/verification"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// Service accepts leader verification forms for staff review. Approval is a
// record only; trust levels are assigned separately.
type Service struct {
	store  storage.VerificationStore
	access *access.Checker
	log    *logger.Logger
	now    func() time.Time
}

// New constructs a verification service.
func New(store storage.VerificationStore, checker *access.Checker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("verifications")
	}
	return &Service{store: store, access: checker, log: log, now: time.Now}
}

// Submit files a verification request. A user may only have one submission
// awaiting review.
func (s *Service) Submit(ctx context.Context, userID string, sub verification.Submission) (verification.Submission, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return verification.Submission{}, apperrors.Required("user_id")
	}
	sub.FullName = strings.TrimSpace(sub.FullName)
	sub.Statement = strings.TrimSpace(sub.Statement)
	if sub.FullName == "" {
		return verification.Submission{}, apperrors.Required("full_name")
	}
	if sub.Statement == "" {
		return verification.Submission{}, apperrors.Required("statement")
	}
	refs, err := cleanReferences(sub.References)
	if err != nil {
		return verification.Submission{}, err
	}
	if sub.CommunityID != "" {
		if _, err := s.access.Community(ctx, sub.CommunityID); err != nil {
			return verification.Submission{}, err
		}
	}

	open, err := s.store.ListSubmissions(ctx, storage.VerificationFilter{UserID: userID, Status: verification.StatusSubmitted})
	if err != nil {
		return verification.Submission{}, err
	}
	if len(open) > 0 {
		return verification.Submission{}, apperrors.Conflict("a submission is already awaiting review")
	}

	sub = verification.Submission{
		UserID:      userID,
		CommunityID: sub.CommunityID,
		FullName:    sub.FullName,
		Statement:   sub.Statement,
		References:  refs,
		Status:      verification.StatusSubmitted,
	}
	sub, err = s.store.CreateSubmission(ctx, sub)
	if err != nil {
		return verification.Submission{}, err
	}
	s.log.WithField("submission_id", sub.ID).
		WithField("user_id", userID).
		WithField("references", len(refs)).
		Info("leader verification submitted")
	return sub, nil
}

// Review records a staff decision on a pending submission.
func (s *Service) Review(ctx context.Context, adminID, id string, approve bool, note string) (verification.Submission, error) {
	if err := s.access.RequireAdmin(adminID); err != nil {
		return verification.Submission{}, err
	}
	sub, err := s.get(ctx, id)
	if err != nil {
		return verification.Submission{}, err
	}
	if sub.Status != verification.StatusSubmitted {
		return verification.Submission{}, apperrors.Conflict("submission was already %s", sub.Status)
	}

	reviewedAt := s.now().UTC()
	sub.Status = verification.StatusRejected
	if approve {
		sub.Status = verification.StatusApproved
	}
	sub.ReviewerID = adminID
	sub.ReviewNote = strings.TrimSpace(note)
	sub.ReviewedAt = &reviewedAt

	sub, err = s.store.UpdateSubmission(ctx, sub)
	if err != nil {
		return verification.Submission{}, access.Translate(err, "verification submission", id)
	}
	s.log.WithField("submission_id", sub.ID).
		WithField("status", sub.Status).
		WithField("reviewer_id", adminID).
		Info("leader verification reviewed")
	return sub, nil
}

// Get returns a submission to its owner or to staff.
func (s *Service) Get(ctx context.Context, actorID, id string) (verification.Submission, error) {
	sub, err := s.get(ctx, id)
	if err != nil {
		return verification.Submission{}, err
	}
	if sub.UserID != actorID && !s.access.IsAdmin(actorID) {
		return verification.Submission{}, apperrors.NotFound("verification submission", id)
	}
	return sub, nil
}

// ListByStatus lists submissions for staff. An empty status lists everything.
func (s *Service) ListByStatus(ctx context.Context, adminID string, status verification.Status) ([]verification.Submission, error) {
	if err := s.access.RequireAdmin(adminID); err != nil {
		return nil, err
	}
	switch status {
	case "", verification.StatusSubmitted, verification.StatusApproved, verification.StatusRejected:
	default:
		return nil, apperrors.Validation("unknown status %q", status)
	}
	return s.store.ListSubmissions(ctx, storage.VerificationFilter{Status: status})
}

// ListMine lists the caller's own submissions.
func (s *Service) ListMine(ctx context.Context, userID string) ([]verification.Submission, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Required("user_id")
	}
	return s.store.ListSubmissions(ctx, storage.VerificationFilter{UserID: userID})
}

func (s *Service) get(ctx context.Context, id string) (verification.Submission, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return verification.Submission{}, apperrors.NotFound("verification submission", id)
	}
	return sub, err
}

func cleanReferences(in []verification.Reference) ([]verification.Reference, error) {
	out := make([]verification.Reference, 0, len(in))
	for i, ref := range in {
		ref.Name = strings.TrimSpace(ref.Name)
		ref.Contact = strings.TrimSpace(ref.Contact)
		ref.Relationship = strings.TrimSpace(ref.Relationship)
		if ref.Name == "" && ref.Contact == "" && ref.Relationship == "" {
			continue
		}
		if ref.Name == "" || ref.Contact == "" {
			return nil, apperrors.Validation("reference %d needs a name and contact", i+1)
		}
		out = append(out, ref)
	}
	if len(out) < verification.MinReferences {
		return nil, apperrors.Validation("at least %d references are required", verification.MinReferences).
			WithDetails("references", len(out))
	}
	return out, nil
}

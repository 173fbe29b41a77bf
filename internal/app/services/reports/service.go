package reports

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/report"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// Service runs the three-step conflict reporting workflow. Steps only move
// forward, one button click at a time.
type Service struct {
	store  storage.ReportStore
	access *access.Checker
	log    *logger.Logger
	now    func() time.Time
}

// New constructs a report service.
func New(store storage.ReportStore, checker *access.Checker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reports")
	}
	return &Service{store: store, access: checker, log: log, now: time.Now}
}

// File opens a report at the private conversation step.
func (s *Service) File(ctx context.Context, reporterID, communityID, subjectID, description string) (report.Report, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return report.Report{}, apperrors.Required("description")
	}
	if err := s.access.RequireActiveMember(ctx, communityID, reporterID); err != nil {
		return report.Report{}, err
	}

	r, err := s.store.CreateReport(ctx, report.Report{
		CommunityID: communityID,
		ReporterID:  reporterID,
		SubjectID:   strings.TrimSpace(subjectID),
		Description: description,
		Step:        report.StepPrivateConversation,
		Status:      report.StatusOpen,
		Notes:       []report.Note{},
	})
	if err != nil {
		return report.Report{}, err
	}
	s.log.WithField("report_id", r.ID).
		WithField("community_id", communityID).
		Info("report filed")
	return withStepName(r), nil
}

// Advance moves an open report to the next step.
func (s *Service) Advance(ctx context.Context, actorID, id, note string) (report.Report, error) {
	r, err := s.editable(ctx, actorID, id)
	if err != nil {
		return report.Report{}, err
	}
	if r.Step >= report.FinalStep {
		return report.Report{}, apperrors.Conflict("report is already at the final step")
	}
	r.Step++
	s.addNote(&r, actorID, note)
	return s.save(ctx, r, "report advanced")
}

// Resolve closes an open report.
func (s *Service) Resolve(ctx context.Context, actorID, id, note string) (report.Report, error) {
	r, err := s.editable(ctx, actorID, id)
	if err != nil {
		return report.Report{}, err
	}
	r.Status = report.StatusResolved
	s.addNote(&r, actorID, note)
	return s.save(ctx, r, "report resolved")
}

// Get returns a report to its reporter or the community's leaders.
func (s *Service) Get(ctx context.Context, actorID, id string) (report.Report, error) {
	r, err := s.get(ctx, id)
	if err != nil {
		return report.Report{}, err
	}
	if err := s.canEdit(ctx, r, actorID); err != nil {
		return report.Report{}, err
	}
	return withStepName(r), nil
}

// ListForCommunity lists a community's reports for its leaders.
func (s *Service) ListForCommunity(ctx context.Context, actorID, communityID string) ([]report.Report, error) {
	if err := s.access.RequireManager(ctx, communityID, actorID); err != nil {
		return nil, err
	}
	list, err := s.store.ListReports(ctx, storage.ReportFilter{CommunityID: communityID})
	if err != nil {
		return nil, err
	}
	return withStepNames(list), nil
}

// ListMine lists the reports the caller filed.
func (s *Service) ListMine(ctx context.Context, reporterID string) ([]report.Report, error) {
	if strings.TrimSpace(reporterID) == "" {
		return nil, apperrors.Required("reporter_id")
	}
	list, err := s.store.ListReports(ctx, storage.ReportFilter{ReporterID: reporterID})
	if err != nil {
		return nil, err
	}
	return withStepNames(list), nil
}

func (s *Service) editable(ctx context.Context, actorID, id string) (report.Report, error) {
	r, err := s.get(ctx, id)
	if err != nil {
		return report.Report{}, err
	}
	if err := s.canEdit(ctx, r, actorID); err != nil {
		return report.Report{}, err
	}
	if r.Status != report.StatusOpen {
		return report.Report{}, apperrors.Conflict("report is %s", r.Status)
	}
	return r, nil
}

func (s *Service) canEdit(ctx context.Context, r report.Report, actorID string) error {
	if r.ReporterID == actorID {
		return nil
	}
	return s.access.RequireManager(ctx, r.CommunityID, actorID)
}

func (s *Service) addNote(r *report.Report, actorID, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.Notes = append(r.Notes, report.Note{
		AuthorID:  actorID,
		Step:      r.Step,
		Text:      text,
		CreatedAt: s.now().UTC(),
	})
}

func (s *Service) save(ctx context.Context, r report.Report, msg string) (report.Report, error) {
	r, err := s.store.UpdateReport(ctx, r)
	if err != nil {
		return report.Report{}, access.Translate(err, "report", r.ID)
	}
	s.log.WithField("report_id", r.ID).
		WithField("step", r.Step.String()).
		WithField("status", r.Status).
		Info(msg)
	return withStepName(r), nil
}

func (s *Service) get(ctx context.Context, id string) (report.Report, error) {
	r, err := s.store.GetReport(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return report.Report{}, apperrors.NotFound("report", id)
	}
	return r, err
}

func withStepName(r report.Report) report.Report {
	r.StepName = r.Step.String()
	return r
}

func withStepNames(list []report.Report) []report.Report {
	for i := range list {
		list[i] = withStepName(list[i])
	}
	return list
}

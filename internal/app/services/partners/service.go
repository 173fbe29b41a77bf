package partners

import (
	"context"
	"errors"
	"strings"

	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/domain/partner"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/services/notifications"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// Service manages accountability partnerships.
type Service struct {
	store    storage.PartnerStore
	access   *access.Checker
	notifier *notifications.Service
	log      *logger.Logger
}

// New constructs a partner service. notifier may be nil.
func New(store storage.PartnerStore, checker *access.Checker, notifier *notifications.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("partners")
	}
	return &Service{store: store, access: checker, notifier: notifier, log: log}
}

// Request invites another member of the same community to partner up.
func (s *Service) Request(ctx context.Context, requesterID, partnerID, communityID string, freq partner.Frequency) (partner.Partnership, error) {
	requesterID = strings.TrimSpace(requesterID)
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return partner.Partnership{}, apperrors.Required("partner_id")
	}
	if requesterID == partnerID {
		return partner.Partnership{}, apperrors.Validation("cannot partner with yourself")
	}
	if freq == "" {
		freq = partner.FrequencyWeekly
	}
	if !freq.Valid() {
		return partner.Partnership{}, apperrors.Validation("unknown frequency %q", freq)
	}
	if err := s.access.RequireActiveMember(ctx, communityID, requesterID); err != nil {
		return partner.Partnership{}, err
	}
	active, err := s.access.IsActiveMember(ctx, communityID, partnerID)
	if err != nil {
		return partner.Partnership{}, err
	}
	if !active {
		return partner.Partnership{}, apperrors.Validation("partner must be an active member of the community")
	}

	existing, err := s.store.ListPartnershipsForUser(ctx, requesterID)
	if err != nil {
		return partner.Partnership{}, err
	}
	for _, p := range existing {
		if p.Involves(partnerID) && p.Status.Open() {
			return partner.Partnership{}, apperrors.Conflict("an open partnership already exists")
		}
	}

	p, err := s.store.CreatePartnership(ctx, partner.Partnership{
		CommunityID: communityID,
		RequesterID: requesterID,
		PartnerID:   partnerID,
		Status:      partner.StatusPending,
		Frequency:   freq,
	})
	if err != nil {
		return partner.Partnership{}, err
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, partnerID, notification.KindPartnerRequest,
			"You have a new accountability partner request", "/partners/"+p.ID)
	}
	s.log.WithField("partnership_id", p.ID).
		WithField("community_id", communityID).
		Info("partnership requested")
	return p, nil
}

// Respond accepts or declines a pending invitation. Only the invited partner may answer.
func (s *Service) Respond(ctx context.Context, partnerID, id string, accept bool) (partner.Partnership, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return partner.Partnership{}, err
	}
	if p.PartnerID != partnerID {
		return partner.Partnership{}, apperrors.Forbidden("only the invited partner can respond")
	}
	if p.Status != partner.StatusPending {
		return partner.Partnership{}, apperrors.Conflict("partnership is already %s", p.Status)
	}
	p.Status = partner.StatusDeclined
	if accept {
		p.Status = partner.StatusAccepted
	}
	return s.save(ctx, p, "partnership answered")
}

// End closes a partnership. Either party may end it.
func (s *Service) End(ctx context.Context, actorID, id string) (partner.Partnership, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return partner.Partnership{}, err
	}
	if !p.Involves(actorID) {
		return partner.Partnership{}, apperrors.Forbidden("not part of this partnership")
	}
	if !p.Status.Open() {
		return partner.Partnership{}, apperrors.Conflict("partnership is already %s", p.Status)
	}
	p.Status = partner.StatusEnded
	return s.save(ctx, p, "partnership ended")
}

// CheckIn records a note on an accepted partnership.
func (s *Service) CheckIn(ctx context.Context, authorID, id, note string) (partner.CheckIn, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return partner.CheckIn{}, apperrors.Required("note")
	}
	p, err := s.get(ctx, id)
	if err != nil {
		return partner.CheckIn{}, err
	}
	if !p.Involves(authorID) {
		return partner.CheckIn{}, apperrors.Forbidden("not part of this partnership")
	}
	if p.Status != partner.StatusAccepted {
		return partner.CheckIn{}, apperrors.Conflict("check-ins require an accepted partnership")
	}
	c, err := s.store.CreateCheckIn(ctx, partner.CheckIn{PartnershipID: id, AuthorID: authorID, Note: note})
	if err != nil {
		return partner.CheckIn{}, err
	}
	s.log.WithField("partnership_id", id).
		WithField("check_in_id", c.ID).
		Info("partner check-in recorded")
	return c, nil
}

// ListForUser returns every partnership the user takes part in.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]partner.Partnership, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Required("user_id")
	}
	return s.store.ListPartnershipsForUser(ctx, userID)
}

// ListCheckIns returns a partnership's check-ins. Only the partners may read them.
func (s *Service) ListCheckIns(ctx context.Context, userID, id string) ([]partner.CheckIn, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Involves(userID) {
		return nil, apperrors.Forbidden("not part of this partnership")
	}
	return s.store.ListCheckIns(ctx, id)
}

func (s *Service) save(ctx context.Context, p partner.Partnership, msg string) (partner.Partnership, error) {
	p, err := s.store.UpdatePartnership(ctx, p)
	if err != nil {
		return partner.Partnership{}, access.Translate(err, "partnership", p.ID)
	}
	s.log.WithField("partnership_id", p.ID).
		WithField("status", p.Status).
		Info(msg)
	return p, nil
}

func (s *Service) get(ctx context.Context, id string) (partner.Partnership, error) {
	p, err := s.store.GetPartnership(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return partner.Partnership{}, apperrors.NotFound("partnership", id)
	}
	return p, err
}

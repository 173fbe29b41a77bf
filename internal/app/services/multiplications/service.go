package multiplications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/multiplication"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// maxDepth bounds lineage walks in case of corrupt parent links.
const maxDepth = 64

// ParentLinker records that a community was multiplied from another.
type ParentLinker interface {
	SetParent(ctx context.Context, id, parentID string) (community.Community, error)
}

// Service tracks communities planting new communities.
type Service struct {
	store       storage.MultiplicationStore
	communities storage.CommunityStore
	linker      ParentLinker
	access      *access.Checker
	log         *logger.Logger
}

// New constructs a multiplication service.
func New(store storage.MultiplicationStore, communities storage.CommunityStore, linker ParentLinker, checker *access.Checker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("multiplications")
	}
	return &Service{store: store, communities: communities, linker: linker, access: checker, log: log}
}

// Plan starts tracking a new multiplication of parentID.
func (s *Service) Plan(ctx context.Context, actorID, parentID, apprenticeID string, targetDate *time.Time, notes string) (multiplication.Multiplication, error) {
	apprenticeID = strings.TrimSpace(apprenticeID)
	if apprenticeID == "" {
		return multiplication.Multiplication{}, apperrors.Required("apprentice_leader_id")
	}
	if _, err := s.access.RequireLeader(ctx, parentID, actorID); err != nil {
		return multiplication.Multiplication{}, err
	}
	active, err := s.access.IsActiveMember(ctx, parentID, apprenticeID)
	if err != nil {
		return multiplication.Multiplication{}, err
	}
	if !active {
		return multiplication.Multiplication{}, apperrors.Validation("apprentice must be an active member of the community")
	}

	m, err := s.store.CreateMultiplication(ctx, multiplication.Multiplication{
		ParentCommunityID:  parentID,
		ApprenticeLeaderID: apprenticeID,
		Stage:              multiplication.StagePlanning,
		TargetDate:         targetDate,
		Notes:              strings.TrimSpace(notes),
	})
	if err != nil {
		return multiplication.Multiplication{}, err
	}
	s.log.WithField("multiplication_id", m.ID).
		WithField("parent_id", parentID).
		Info("multiplication planned")
	return m, nil
}

// SetStage moves a multiplication along. Launching requires the child
// community, which is then linked to the parent.
func (s *Service) SetStage(ctx context.Context, actorID, id string, stage multiplication.Stage, childID string) (multiplication.Multiplication, error) {
	if !stage.Valid() {
		return multiplication.Multiplication{}, apperrors.Validation("unknown stage %q", stage)
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return multiplication.Multiplication{}, err
	}
	if _, err := s.access.RequireLeader(ctx, m.ParentCommunityID, actorID); err != nil {
		return multiplication.Multiplication{}, err
	}
	if m.Stage == multiplication.StageLaunched {
		return multiplication.Multiplication{}, apperrors.Conflict("multiplication already launched")
	}

	if stage == multiplication.StageLaunched {
		childID = strings.TrimSpace(childID)
		if childID == "" {
			return multiplication.Multiplication{}, apperrors.Required("child_community_id")
		}
		if childID == m.ParentCommunityID {
			return multiplication.Multiplication{}, apperrors.Validation("child community must differ from the parent")
		}
		child, err := s.access.Community(ctx, childID)
		if err != nil {
			return multiplication.Multiplication{}, err
		}
		if child.LeaderID != m.ApprenticeLeaderID && child.LeaderID != actorID && !s.access.IsAdmin(actorID) {
			return multiplication.Multiplication{}, apperrors.Forbidden("child community must be led by the apprentice")
		}
		if err := s.rejectAncestor(ctx, m.ParentCommunityID, childID); err != nil {
			return multiplication.Multiplication{}, err
		}
		if _, err := s.linker.SetParent(ctx, childID, m.ParentCommunityID); err != nil {
			return multiplication.Multiplication{}, err
		}
		m.ChildCommunityID = childID
	}

	m.Stage = stage
	m, err = s.store.UpdateMultiplication(ctx, m)
	if err != nil {
		return multiplication.Multiplication{}, access.Translate(err, "multiplication", id)
	}
	s.log.WithField("multiplication_id", m.ID).
		WithField("stage", stage).
		Info("multiplication stage changed")
	return m, nil
}

// rejectAncestor fails when candidateID already sits on the parent chain of
// communityID, since linking it as a child would close a loop.
func (s *Service) rejectAncestor(ctx context.Context, communityID, candidateID string) error {
	id := communityID
	for depth := 0; id != "" && depth < maxDepth; depth++ {
		c, err := s.communities.GetCommunity(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if c.ParentID == candidateID {
			return apperrors.Validation("community %s is an ancestor of %s", candidateID, communityID)
		}
		id = c.ParentID
	}
	return nil
}

// Get returns a multiplication by id.
func (s *Service) Get(ctx context.Context, id string) (multiplication.Multiplication, error) {
	m, err := s.store.GetMultiplication(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return multiplication.Multiplication{}, apperrors.NotFound("multiplication", id)
	}
	return m, err
}

// List returns the multiplications of a parent community.
func (s *Service) List(ctx context.Context, parentID string) ([]multiplication.Multiplication, error) {
	if _, err := s.access.Community(ctx, parentID); err != nil {
		return nil, err
	}
	return s.store.ListMultiplications(ctx, parentID)
}

// Lineage walks the parent chain upward and counts descendants downward.
// Ancestors and children the viewer may not see are counted but not named.
func (s *Service) Lineage(ctx context.Context, viewerID, communityID string) (multiplication.Lineage, error) {
	c, err := s.access.VisibleCommunity(ctx, communityID, viewerID)
	if err != nil {
		return multiplication.Lineage{}, err
	}

	lineage := multiplication.Lineage{CommunityID: c.ID, Ancestors: []string{}, Children: []string{}}
	seen := map[string]struct{}{c.ID: {}}
	parentID := c.ParentID
	generation := 1
	for parentID != "" && generation <= maxDepth {
		if _, loop := seen[parentID]; loop {
			break
		}
		seen[parentID] = struct{}{}
		parent, err := s.communities.GetCommunity(ctx, parentID)
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if err != nil {
			return multiplication.Lineage{}, err
		}
		generation++
		visible, err := s.access.CanView(ctx, parent, viewerID)
		if err != nil {
			return multiplication.Lineage{}, err
		}
		if visible {
			lineage.Ancestors = append(lineage.Ancestors, parent.ID)
		}
		parentID = parent.ParentID
	}
	lineage.Generation = generation

	visited := map[string]struct{}{c.ID: {}}
	queue := []string{c.ID}
	for depth := 0; len(queue) > 0 && depth < maxDepth; depth++ {
		var next []string
		for _, id := range queue {
			children, err := s.communities.ListCommunities(ctx, community.Filter{ParentID: id})
			if err != nil {
				return multiplication.Lineage{}, err
			}
			for _, child := range children {
				if _, dup := visited[child.ID]; dup {
					continue
				}
				visited[child.ID] = struct{}{}
				if id == c.ID {
					visible, err := s.access.CanView(ctx, child, viewerID)
					if err != nil {
						return multiplication.Lineage{}, err
					}
					if visible {
						lineage.Children = append(lineage.Children, child.ID)
					}
				}
				lineage.Descendants++
				next = append(next, child.ID)
			}
		}
		queue = next
	}
	return lineage, nil
}

package memberships

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/services/notifications"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

// Service handles join requests and membership administration.
type Service struct {
	members  storage.MemberStore
	access   *access.Checker
	notifier *notifications.Service
	log      *logger.Logger
}

// New constructs a membership service. notifier may be nil.
func New(members storage.MemberStore, checker *access.Checker, notifier *notifications.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("memberships")
	}
	return &Service{members: members, access: checker, notifier: notifier, log: log}
}

// Join requests membership. A removed membership is reopened as pending.
func (s *Service) Join(ctx context.Context, userID, communityID string) (member.Member, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return member.Member{}, apperrors.Required("user_id")
	}
	c, err := s.access.Community(ctx, communityID)
	if err != nil {
		return member.Member{}, err
	}

	existing, ok, err := s.access.Membership(ctx, communityID, userID)
	if err != nil {
		return member.Member{}, err
	}

	var m member.Member
	switch {
	case ok && existing.Status != member.StatusRemoved:
		return member.Member{}, apperrors.Conflict("already a member or awaiting approval")
	case ok:
		existing.Status = member.StatusPending
		existing.Role = member.RoleMember
		m, err = s.members.UpdateMember(ctx, existing)
	default:
		m, err = s.members.CreateMember(ctx, member.Member{
			CommunityID: communityID,
			UserID:      userID,
			Role:        member.RoleMember,
			Status:      member.StatusPending,
		})
	}
	if err != nil {
		return member.Member{}, access.Translate(err, "membership", "")
	}

	s.notify(ctx, c.LeaderID, notification.KindJoinRequest,
		fmt.Sprintf("New join request for %s", c.Name), communityLink(communityID))
	s.log.WithField("community_id", communityID).
		WithField("user_id", userID).
		Info("membership requested")
	return m, nil
}

// Approve activates a pending membership, honouring the community capacity.
func (s *Service) Approve(ctx context.Context, actorID, memberID string) (member.Member, error) {
	m, err := s.get(ctx, memberID)
	if err != nil {
		return member.Member{}, err
	}
	if err := s.access.RequireManager(ctx, m.CommunityID, actorID); err != nil {
		return member.Member{}, err
	}
	if m.Status != member.StatusPending {
		return member.Member{}, apperrors.Conflict("membership is %s, not pending", m.Status)
	}

	c, err := s.access.Community(ctx, m.CommunityID)
	if err != nil {
		return member.Member{}, err
	}
	if c.MaxMembers > 0 {
		active, err := s.members.CountActiveMembers(ctx, c.ID)
		if err != nil {
			return member.Member{}, err
		}
		if active >= c.MaxMembers {
			return member.Member{}, apperrors.Conflict("community is full (%d members)", c.MaxMembers)
		}
	}

	m.Status = member.StatusActive
	m, err = s.members.UpdateMember(ctx, m)
	if err != nil {
		return member.Member{}, access.Translate(err, "membership", memberID)
	}

	s.notify(ctx, m.UserID, notification.KindJoinApproved,
		fmt.Sprintf("You are now a member of %s", c.Name), communityLink(c.ID))
	s.log.WithField("community_id", c.ID).
		WithField("member_id", m.ID).
		WithField("actor_id", actorID).
		Info("membership approved")
	return m, nil
}

// Remove ends a membership. Managers may remove anyone except the leader;
// members may remove themselves.
func (s *Service) Remove(ctx context.Context, actorID, memberID string) (member.Member, error) {
	m, err := s.get(ctx, memberID)
	if err != nil {
		return member.Member{}, err
	}
	if m.Role == member.RoleLeader {
		return member.Member{}, apperrors.Forbidden("the leader cannot leave or be removed from their community")
	}
	if m.UserID != actorID {
		if err := s.access.RequireManager(ctx, m.CommunityID, actorID); err != nil {
			return member.Member{}, err
		}
	}
	if m.Status == member.StatusRemoved {
		return m, nil
	}

	m.Status = member.StatusRemoved
	m, err = s.members.UpdateMember(ctx, m)
	if err != nil {
		return member.Member{}, access.Translate(err, "membership", memberID)
	}
	s.log.WithField("community_id", m.CommunityID).
		WithField("member_id", m.ID).
		WithField("actor_id", actorID).
		Info("membership removed")
	return m, nil
}

// SetRole changes a member's role. Only the leader may do so, and the leader
// role itself is not transferable here.
func (s *Service) SetRole(ctx context.Context, actorID, memberID string, role member.Role) (member.Member, error) {
	if !role.Valid() {
		return member.Member{}, apperrors.Validation("unknown role %q", role)
	}
	if role == member.RoleLeader {
		return member.Member{}, apperrors.Validation("the leader role cannot be assigned")
	}
	m, err := s.get(ctx, memberID)
	if err != nil {
		return member.Member{}, err
	}
	if _, err := s.access.RequireLeader(ctx, m.CommunityID, actorID); err != nil {
		return member.Member{}, err
	}
	if m.Role == member.RoleLeader {
		return member.Member{}, apperrors.Forbidden("the leader cannot be demoted")
	}
	if m.Status != member.StatusActive {
		return member.Member{}, apperrors.Conflict("only active members can change role")
	}

	m.Role = role
	m, err = s.members.UpdateMember(ctx, m)
	if err != nil {
		return member.Member{}, access.Translate(err, "membership", memberID)
	}
	s.log.WithField("member_id", m.ID).
		WithField("role", role).
		Info("membership role changed")
	return m, nil
}

// ListByCommunity lists memberships of a community, optionally by status.
func (s *Service) ListByCommunity(ctx context.Context, communityID string, status member.Status) ([]member.Member, error) {
	if _, err := s.access.Community(ctx, communityID); err != nil {
		return nil, err
	}
	all, err := s.members.ListMembers(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	out := make([]member.Member, 0, len(all))
	for _, m := range all {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListByUser lists every membership held by a user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]member.Member, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Required("user_id")
	}
	return s.members.ListMembershipsByUser(ctx, userID)
}

// ActiveUserIDs returns the user ids of every active member.
func (s *Service) ActiveUserIDs(ctx context.Context, communityID string) ([]string, error) {
	list, err := s.members.ListMembers(ctx, communityID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, m := range list {
		if m.Status == member.StatusActive {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

// IsActiveMember reports whether userID is an active member.
func (s *Service) IsActiveMember(ctx context.Context, communityID, userID string) (bool, error) {
	return s.access.IsActiveMember(ctx, communityID, userID)
}

// IsLeader reports whether userID leads the community.
func (s *Service) IsLeader(ctx context.Context, communityID, userID string) (bool, error) {
	return s.access.IsLeader(ctx, communityID, userID)
}

func (s *Service) get(ctx context.Context, memberID string) (member.Member, error) {
	m, err := s.members.GetMember(ctx, memberID)
	if errors.Is(err, storage.ErrNotFound) {
		return member.Member{}, apperrors.NotFound("membership", memberID)
	}
	return m, err
}

func (s *Service) notify(ctx context.Context, userID string, kind notification.Kind, msg, link string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, kind, msg, link)
}

func communityLink(id string) string {
	return "/communities/" + id
}

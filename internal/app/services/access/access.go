// Package access centralises the community permission checks shared by the
// feature services.
package access

import (
	"context"
	"errors"
	"strings"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/storage"
	apperrors "github.com/remnanthub/platform/internal/errors"
)

// Checker answers "may this user do that" questions against the stores.
type Checker struct {
	communities storage.CommunityStore
	members     storage.MemberStore
	admins      map[string]struct{}
}

// New creates a checker. Admins is the allowlist of platform staff user ids.
func New(communities storage.CommunityStore, members storage.MemberStore, admins map[string]struct{}) *Checker {
	if admins == nil {
		admins = map[string]struct{}{}
	}
	return &Checker{communities: communities, members: members, admins: admins}
}

// IsAdmin reports whether userID is platform staff.
func (c *Checker) IsAdmin(userID string) bool {
	_, ok := c.admins[strings.TrimSpace(userID)]
	return ok
}

// RequireAdmin fails unless userID is platform staff.
func (c *Checker) RequireAdmin(userID string) error {
	if !c.IsAdmin(userID) {
		return apperrors.Forbidden("administrator role required")
	}
	return nil
}

// Community loads a community, mapping a missing row to a not-found error.
func (c *Checker) Community(ctx context.Context, id string) (community.Community, error) {
	comm, err := c.communities.GetCommunity(ctx, id)
	if err != nil {
		return community.Community{}, Translate(err, "community", id)
	}
	return comm, nil
}

// Membership returns the caller's membership, or a zero value when none exists.
func (c *Checker) Membership(ctx context.Context, communityID, userID string) (member.Member, bool, error) {
	m, err := c.members.GetMembership(ctx, communityID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return member.Member{}, false, nil
	}
	if err != nil {
		return member.Member{}, false, err
	}
	return m, true, nil
}

// IsActiveMember reports whether userID holds an active membership.
func (c *Checker) IsActiveMember(ctx context.Context, communityID, userID string) (bool, error) {
	m, ok, err := c.Membership(ctx, communityID, userID)
	if err != nil || !ok {
		return false, err
	}
	return m.Status == member.StatusActive, nil
}

// IsLeader reports whether userID leads the community.
func (c *Checker) IsLeader(ctx context.Context, communityID, userID string) (bool, error) {
	comm, err := c.Community(ctx, communityID)
	if err != nil {
		return false, err
	}
	return comm.LeaderID == userID, nil
}

// CanManage reports whether userID is an active leader or co-leader.
func (c *Checker) CanManage(ctx context.Context, communityID, userID string) (bool, error) {
	m, ok, err := c.Membership(ctx, communityID, userID)
	if err != nil || !ok {
		return false, err
	}
	return m.Status == member.StatusActive && m.Role.CanManage(), nil
}

// RequireActiveMember fails unless userID is an active member of the community.
func (c *Checker) RequireActiveMember(ctx context.Context, communityID, userID string) error {
	if _, err := c.Community(ctx, communityID); err != nil {
		return err
	}
	active, err := c.IsActiveMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !active {
		return apperrors.Forbidden("active membership required")
	}
	return nil
}

// RequireManager fails unless userID is a leader, co-leader or platform admin.
func (c *Checker) RequireManager(ctx context.Context, communityID, userID string) error {
	if _, err := c.Community(ctx, communityID); err != nil {
		return err
	}
	if c.IsAdmin(userID) {
		return nil
	}
	ok, err := c.CanManage(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("leader or co-leader role required")
	}
	return nil
}

// RequireLeader fails unless userID is the community leader or a platform admin.
func (c *Checker) RequireLeader(ctx context.Context, communityID, userID string) (community.Community, error) {
	comm, err := c.Community(ctx, communityID)
	if err != nil {
		return community.Community{}, err
	}
	if comm.LeaderID != userID && !c.IsAdmin(userID) {
		return community.Community{}, apperrors.Forbidden("community leader role required")
	}
	return comm, nil
}

// CanView reports whether userID may read the community record. Private
// communities are visible to staff, the leader and anyone whose membership
// has not been removed.
func (c *Checker) CanView(ctx context.Context, comm community.Community, userID string) (bool, error) {
	if comm.IsPublic {
		return true, nil
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}
	if comm.LeaderID == userID || c.IsAdmin(userID) {
		return true, nil
	}
	m, ok, err := c.Membership(ctx, comm.ID, userID)
	if err != nil || !ok {
		return false, err
	}
	return m.Status != member.StatusRemoved, nil
}

// VisibleCommunity loads a community, reporting private ones the viewer may
// not see as missing.
func (c *Checker) VisibleCommunity(ctx context.Context, id, viewerID string) (community.Community, error) {
	comm, err := c.Community(ctx, id)
	if err != nil {
		return community.Community{}, err
	}
	ok, err := c.CanView(ctx, comm, viewerID)
	if err != nil {
		return community.Community{}, err
	}
	if !ok {
		return community.Community{}, apperrors.NotFound("community", id)
	}
	return comm, nil
}

// Translate converts storage sentinels into service errors and leaves
// everything else untouched.
func Translate(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFound(entity, id)
	case errors.Is(err, storage.ErrDuplicate):
		return apperrors.Conflict("%s already exists", entity)
	}
	return err
}

package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/report"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func setup(t *testing.T) (*Service, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	c, err := store.CreateCommunity(ctx, community.Community{Name: "Corinth", LeaderID: "paul"})
	require.NoError(t, err)
	roles := map[string]member.Role{"paul": member.RoleLeader, "chloe": member.RoleMember, "apollos": member.RoleMember}
	for userID, role := range roles {
		_, err := store.CreateMember(ctx, member.Member{CommunityID: c.ID, UserID: userID, Role: role, Status: member.StatusActive})
		require.NoError(t, err)
	}
	return New(store, access.New(store, store, nil), logger.NewDiscard()), c.ID
}

func TestService_AdvanceThroughSteps(t *testing.T) {
	svc, communityID := setup(t)
	ctx := context.Background()

	_, err := svc.File(ctx, "outsider", communityID, "", "quarrels")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	r, err := svc.File(ctx, "chloe", communityID, "apollos", "quarrels among us")
	require.NoError(t, err)
	assert.Equal(t, report.StepPrivateConversation, r.Step)
	assert.Equal(t, "private_conversation", r.StepName)
	assert.Equal(t, report.StatusOpen, r.Status)

	_, err = svc.Advance(ctx, "apollos", r.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	r, err = svc.Advance(ctx, "chloe", r.ID, "talked privately, no change")
	require.NoError(t, err)
	assert.Equal(t, report.StepWitnesses, r.Step)
	require.Len(t, r.Notes, 1)
	assert.Equal(t, report.StepWitnesses, r.Notes[0].Step)

	r, err = svc.Advance(ctx, "paul", r.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "church_leadership", r.StepName)
	assert.Len(t, r.Notes, 1)

	_, err = svc.Advance(ctx, "paul", r.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	r, err = svc.Resolve(ctx, "paul", r.ID, "reconciled")
	require.NoError(t, err)
	assert.Equal(t, report.StatusResolved, r.Status)

	_, err = svc.Resolve(ctx, "paul", r.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestService_Listing(t *testing.T) {
	svc, communityID := setup(t)
	ctx := context.Background()

	r, err := svc.File(ctx, "chloe", communityID, "", "first")
	require.NoError(t, err)
	_, err = svc.File(ctx, "apollos", communityID, "", "second")
	require.NoError(t, err)

	_, err = svc.ListForCommunity(ctx, "chloe", communityID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	all, err := svc.ListForCommunity(ctx, "paul", communityID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListMine(ctx, "chloe")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "private_conversation", mine[0].StepName)

	_, err = svc.Get(ctx, "apollos", r.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = svc.Get(ctx, "paul", r.ID)
	require.NoError(t, err)
}

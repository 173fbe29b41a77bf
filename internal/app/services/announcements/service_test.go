package announcements

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/services/notifications"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func TestService_CreateNotifiesAndOrders(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c, err := store.CreateCommunity(ctx, community.Community{Name: "Upper Room", LeaderID: "lydia"})
	require.NoError(t, err)
	seed := []member.Member{
		{CommunityID: c.ID, UserID: "lydia", Role: member.RoleLeader, Status: member.StatusActive},
		{CommunityID: c.ID, UserID: "anna", Role: member.RoleMember, Status: member.StatusActive},
		{CommunityID: c.ID, UserID: "pending", Role: member.RoleMember, Status: member.StatusPending},
	}
	for _, m := range seed {
		_, err := store.CreateMember(ctx, m)
		require.NoError(t, err)
	}

	notifier := notifications.New(store, logger.NewDiscard())
	svc := New(store, store, access.New(store, store, nil), notifier, logger.NewDiscard())

	_, err = svc.Create(ctx, "anna", c.ID, "Potluck", "Bring bread", false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	first, err := svc.Create(ctx, "lydia", c.ID, "Potluck", "Bring bread", false)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "lydia", c.ID, "Baptism", "Sunday at the lake", false)
	require.NoError(t, err)

	inbox, err := notifier.List(ctx, "anna", true)
	require.NoError(t, err)
	assert.Len(t, inbox, 2)
	pendingInbox, err := notifier.List(ctx, "pending", true)
	require.NoError(t, err)
	assert.Empty(t, pendingInbox)
	leaderInbox, err := notifier.List(ctx, "lydia", true)
	require.NoError(t, err)
	assert.Empty(t, leaderInbox)

	_, err = svc.SetPinned(ctx, "lydia", first.ID, true)
	require.NoError(t, err)

	board, err := svc.List(ctx, "anna", c.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, first.ID, board[0].ID)

	_, err = svc.List(ctx, "pending", c.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	require.NoError(t, svc.Delete(ctx, "lydia", first.ID))
	assert.True(t, apperrors.HasCode(svc.Delete(ctx, "lydia", first.ID), apperrors.CodeNotFound))
}

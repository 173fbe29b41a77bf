package partners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/partner"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/services/notifications"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func setup(t *testing.T) (*Service, *notifications.Service, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	c, err := store.CreateCommunity(ctx, community.Community{Name: "Upper Room", LeaderID: "lydia"})
	require.NoError(t, err)
	for _, userID := range []string{"paul", "silas", "mark"} {
		_, err := store.CreateMember(ctx, member.Member{CommunityID: c.ID, UserID: userID, Role: member.RoleMember, Status: member.StatusActive})
		require.NoError(t, err)
	}
	_, err = store.CreateMember(ctx, member.Member{CommunityID: c.ID, UserID: "demas", Role: member.RoleMember, Status: member.StatusRemoved})
	require.NoError(t, err)

	notifier := notifications.New(store, logger.NewDiscard())
	return New(store, access.New(store, store, nil), notifier, logger.NewDiscard()), notifier, c.ID
}

func TestService_RequestRules(t *testing.T) {
	svc, notifier, communityID := setup(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, "paul", "paul", communityID, partner.FrequencyWeekly)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Request(ctx, "paul", "demas", communityID, partner.FrequencyWeekly)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Request(ctx, "paul", "silas", communityID, partner.Frequency("yearly"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	p, err := svc.Request(ctx, "paul", "silas", communityID, "")
	require.NoError(t, err)
	assert.Equal(t, partner.FrequencyWeekly, p.Frequency)
	assert.Equal(t, partner.StatusPending, p.Status)

	_, err = svc.Request(ctx, "silas", "paul", communityID, partner.FrequencyDaily)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	inbox, err := notifier.List(ctx, "silas", true)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestService_RespondCheckInEnd(t *testing.T) {
	svc, _, communityID := setup(t)
	ctx := context.Background()

	p, err := svc.Request(ctx, "paul", "silas", communityID, partner.FrequencyDaily)
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, "paul", p.ID, "prayed today")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.Respond(ctx, "paul", p.ID, true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	p, err = svc.Respond(ctx, "silas", p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, partner.StatusAccepted, p.Status)

	_, err = svc.Respond(ctx, "silas", p.ID, false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.CheckIn(ctx, "mark", p.ID, "hi")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = svc.CheckIn(ctx, "silas", p.ID, "read Romans 8")
	require.NoError(t, err)

	checkIns, err := svc.ListCheckIns(ctx, "paul", p.ID)
	require.NoError(t, err)
	assert.Len(t, checkIns, 1)

	p, err = svc.End(ctx, "paul", p.ID)
	require.NoError(t, err)
	assert.Equal(t, partner.StatusEnded, p.Status)

	_, err = svc.Request(ctx, "paul", "silas", communityID, partner.FrequencyMonthly)
	require.NoError(t, err, "ended partnerships do not block a new request")

	list, err := svc.ListForUser(ctx, "silas")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

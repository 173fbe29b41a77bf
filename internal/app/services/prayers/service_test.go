package prayers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func setup(t *testing.T) (*Service, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	c, err := store.CreateCommunity(ctx, community.Community{Name: "Upper Room", LeaderID: "lydia"})
	require.NoError(t, err)
	for userID, role := range map[string]member.Role{"lydia": member.RoleLeader, "anna": member.RoleMember, "simeon": member.RoleMember} {
		_, err := store.CreateMember(ctx, member.Member{CommunityID: c.ID, UserID: userID, Role: role, Status: member.StatusActive})
		require.NoError(t, err)
	}
	return New(store, access.New(store, store, nil), logger.NewDiscard()), c.ID
}

func TestService_CreateAndAnonymity(t *testing.T) {
	svc, communityID := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "anna", communityID, "", "body", false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Create(ctx, "outsider", communityID, "Healing", "please pray", false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	req, err := svc.Create(ctx, "anna", communityID, "Healing", "please pray", true)
	require.NoError(t, err)

	asOther, err := svc.List(ctx, "simeon", communityID)
	require.NoError(t, err)
	require.Len(t, asOther, 1)
	assert.Empty(t, asOther[0].AuthorID)

	asAuthor, err := svc.List(ctx, "anna", communityID)
	require.NoError(t, err)
	assert.Equal(t, "anna", asAuthor[0].AuthorID)

	prayed, err := svc.Pray(ctx, "simeon", req.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prayed.PrayerCount)
	assert.Empty(t, prayed.AuthorID)
}

func TestService_AnswerAndDeletePermissions(t *testing.T) {
	svc, communityID := setup(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, "anna", communityID, "Work", "new job", false)
	require.NoError(t, err)

	_, err = svc.MarkAnswered(ctx, "simeon", req.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	answered, err := svc.MarkAnswered(ctx, "lydia", req.ID, " got the job ")
	require.NoError(t, err)
	assert.True(t, answered.IsAnswered)
	assert.Equal(t, "got the job", answered.AnsweredNote)

	assert.True(t, apperrors.HasCode(svc.Delete(ctx, "simeon", req.ID), apperrors.CodeForbidden))
	require.NoError(t, svc.Delete(ctx, "anna", req.ID))

	_, err = svc.Pray(ctx, "anna", req.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

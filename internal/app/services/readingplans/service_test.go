package readingplans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/readingplan"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/services/notifications"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*memory.Store, *Service, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	c, err := store.CreateCommunity(ctx, community.Community{Name: "Upper Room", LeaderID: "lydia"})
	require.NoError(t, err)
	members := []member.Member{
		{CommunityID: c.ID, UserID: "lydia", Role: member.RoleLeader, Status: member.StatusActive},
		{CommunityID: c.ID, UserID: "anna", Role: member.RoleMember, Status: member.StatusActive},
		{CommunityID: c.ID, UserID: "simeon", Role: member.RoleMember, Status: member.StatusPending},
	}
	for _, m := range members {
		_, err := store.CreateMember(ctx, m)
		require.NoError(t, err)
	}
	return store, New(store, access.New(store, store, nil), logger.NewDiscard()), c.ID
}

func newPlan(communityID string) readingplan.Plan {
	return readingplan.Plan{
		CommunityID: communityID,
		Title:       "Gospel of Mark",
		StartDate:   start,
		Readings: []readingplan.Reading{
			{Day: 2, Reference: "Mark 2"},
			{Day: 1, Reference: "Mark 1"},
			{Day: 3, Reference: "Mark 3"},
			{Day: 4, Reference: "Mark 4"},
		},
	}
}

func TestService_CreatePlanValidation(t *testing.T) {
	_, svc, communityID := setup(t)
	ctx := context.Background()

	bad := newPlan(communityID)
	bad.Readings = nil
	_, err := svc.CreatePlan(ctx, "lydia", bad)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	bad = newPlan(communityID)
	bad.Readings = append(bad.Readings, readingplan.Reading{Day: 1, Reference: "again"})
	_, err = svc.CreatePlan(ctx, "lydia", bad)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	bad = newPlan(communityID)
	bad.Readings[0].Day = 0
	_, err = svc.CreatePlan(ctx, "lydia", bad)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.CreatePlan(ctx, "anna", newPlan(communityID))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	plan, err := svc.CreatePlan(ctx, "lydia", newPlan(communityID))
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Readings[0].Day)

	list, err := svc.ListPlans(ctx, communityID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_ProgressAndTodaysReading(t *testing.T) {
	_, svc, communityID := setup(t)
	ctx := context.Background()
	plan, err := svc.CreatePlan(ctx, "lydia", newPlan(communityID))
	require.NoError(t, err)

	_, err = svc.MarkDay(ctx, "anna", plan.ID, 9, true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = svc.MarkDay(ctx, "simeon", plan.ID, 1, true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	prog, err := svc.MarkDay(ctx, "anna", plan.ID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 25.0, prog.Percent)

	_, err = svc.MarkDay(ctx, "anna", plan.ID, 3, true)
	require.NoError(t, err)
	prog, err = svc.MarkDay(ctx, "anna", plan.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, prog.CompletedDays)

	prog, err = svc.Progress(ctx, "anna", plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, prog.Percent)

	empty, err := svc.Progress(ctx, "lydia", plan.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.Percent)

	reading, ok := TodaysReading(plan, start.Add(49*time.Hour))
	require.True(t, ok)
	assert.Equal(t, "Mark 3", reading.Reference)

	_, ok = TodaysReading(plan, start.Add(-24*time.Hour))
	assert.False(t, ok)
	_, ok = TodaysReading(plan, start.AddDate(0, 0, 10))
	assert.False(t, ok)
}

func TestReminder_NotifiesIncompleteMembers(t *testing.T) {
	store, svc, communityID := setup(t)
	ctx := context.Background()
	plan, err := svc.CreatePlan(ctx, "lydia", newPlan(communityID))
	require.NoError(t, err)
	_, err = svc.MarkDay(ctx, "lydia", plan.ID, 2, true)
	require.NoError(t, err)

	notifier := notifications.New(store, logger.NewDiscard())
	reminder := NewReminder(store, store, notifier, "", logger.NewDiscard())
	reminder.now = func() time.Time { return start.Add(30 * time.Hour) }

	sent, err := reminder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	inbox, err := notifier.List(ctx, "anna", true)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Message, "Mark 2")
}

func TestReminder_Lifecycle(t *testing.T) {
	store := memory.New()
	reminder := NewReminder(store, store, notifications.New(store, logger.NewDiscard()), "@every 1h", logger.NewDiscard())
	ctx := context.Background()

	require.NoError(t, reminder.Start(ctx))
	require.NoError(t, reminder.Start(ctx))
	require.NoError(t, reminder.Stop(ctx))
	require.NoError(t, reminder.Stop(ctx))

	bad := NewReminder(store, store, nil, "not a schedule", logger.NewDiscard())
	assert.Error(t, bad.Start(ctx))
}

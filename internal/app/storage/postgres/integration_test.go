package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/readingplan"
)

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	if err := Migrate(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := Open(dsn, 4, 2, 0)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	store := New(db)
	ctx := context.Background()

	c, err := store.CreateCommunity(ctx, community.Community{Name: "Integration House", LeaderID: "leader", TrustLevel: community.TrustNew, IsPublic: true})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}
	defer store.DeleteCommunity(ctx, c.ID)

	if _, err := store.CreateMember(ctx, member.Member{CommunityID: c.ID, UserID: "leader", Role: member.RoleLeader, Status: member.StatusActive}); err != nil {
		t.Fatalf("create member: %v", err)
	}
	count, err := store.CountActiveMembers(ctx, c.ID)
	if err != nil || count != 1 {
		t.Fatalf("count = %d, err = %v", count, err)
	}

	plan, err := store.CreatePlan(ctx, readingplan.Plan{
		CommunityID: c.ID,
		Title:       "Gospels",
		Readings:    []readingplan.Reading{{Day: 1, Reference: "Mark 1"}},
		CreatedBy:   "leader",
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if _, err := store.SaveProgress(ctx, readingplan.Progress{PlanID: plan.ID, UserID: "leader", CompletedDays: []int{1}}); err != nil {
		t.Fatalf("save progress: %v", err)
	}
	prog, err := store.GetProgress(ctx, plan.ID, "leader")
	if err != nil || len(prog.CompletedDays) != 1 {
		t.Fatalf("progress = %#v, err = %v", prog, err)
	}
}

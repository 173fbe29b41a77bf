package access

import (
	"context"
	"errors"
	"testing"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/storage"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
)

func TestChecker(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	comm, _ := store.CreateCommunity(ctx, community.Community{Name: "Vine", LeaderID: "lead"})
	store.CreateMember(ctx, member.Member{CommunityID: comm.ID, UserID: "lead", Role: member.RoleLeader, Status: member.StatusActive})
	store.CreateMember(ctx, member.Member{CommunityID: comm.ID, UserID: "co", Role: member.RoleCoLeader, Status: member.StatusActive})
	store.CreateMember(ctx, member.Member{CommunityID: comm.ID, UserID: "pending", Role: member.RoleMember, Status: member.StatusPending})

	checker := New(store, store, map[string]struct{}{"staff": {}})

	if err := checker.RequireActiveMember(ctx, comm.ID, "co"); err != nil {
		t.Fatalf("co-leader should be active: %v", err)
	}
	if err := checker.RequireActiveMember(ctx, comm.ID, "pending"); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("pending member should be forbidden, got %v", err)
	}
	if err := checker.RequireManager(ctx, comm.ID, "co"); err != nil {
		t.Fatalf("co-leader should manage: %v", err)
	}
	if err := checker.RequireManager(ctx, comm.ID, "staff"); err != nil {
		t.Fatalf("admin should manage: %v", err)
	}
	if _, err := checker.RequireLeader(ctx, comm.ID, "co"); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("co-leader is not the leader, got %v", err)
	}
	if _, err := checker.RequireLeader(ctx, "nope", "lead"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTranslate(t *testing.T) {
	if err := Translate(nil, "x", "1"); err != nil {
		t.Fatalf("nil should stay nil")
	}
	wrapped := errors.Join(storage.ErrNotFound)
	if !apperrors.HasCode(Translate(wrapped, "thing", "1"), apperrors.CodeNotFound) {
		t.Fatalf("expected not found code")
	}
	if !apperrors.HasCode(Translate(storage.ErrDuplicate, "thing", "1"), apperrors.CodeConflict) {
		t.Fatalf("expected conflict code")
	}
	other := errors.New("boom")
	if Translate(other, "thing", "1") != other {
		t.Fatalf("unexpected translation of unrelated error")
	}
}

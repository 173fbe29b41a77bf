package notifications

import (
	"context"
	"testing"

	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func TestService_NotifyListMarkRead(t *testing.T) {
	store := memory.New()
	svc := New(store, logger.NewDiscard())
	ctx := context.Background()

	sent := svc.NotifyMany(ctx, []string{"a", "b", "c"}, "b", notification.KindAnnouncement, "New announcement", "/communities/1")
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}

	list, err := svc.List(ctx, "a", true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Kind != notification.KindAnnouncement {
		t.Fatalf("unexpected notifications: %#v", list)
	}

	if _, err := svc.MarkRead(ctx, "c", list[0].ID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("other users cannot mark read, got %v", err)
	}
	if _, err := svc.MarkRead(ctx, "a", list[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, _ := svc.List(ctx, "a", true)
	if len(unread) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(unread))
	}
	all, _ := svc.List(ctx, "a", false)
	if len(all) != 1 || !all[0].Read {
		t.Fatalf("expected read notification, got %#v", all)
	}

	if _, err := svc.List(ctx, " ", false); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func setup(t *testing.T, broadcaster Broadcaster) (*Service, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	c, err := store.CreateCommunity(ctx, community.Community{Name: "Upper Room", LeaderID: "lydia"})
	require.NoError(t, err)
	for _, userID := range []string{"lydia", "anna"} {
		_, err := store.CreateMember(ctx, member.Member{CommunityID: c.ID, UserID: userID, Role: member.RoleMember, Status: member.StatusActive})
		require.NoError(t, err)
	}
	return New(store, access.New(store, store, nil), broadcaster, logger.NewDiscard()), c.ID
}

func TestService_SendReturnsRefreshedPage(t *testing.T) {
	svc, communityID := setup(t, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, "anna", communityID, "   ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Send(ctx, "anna", communityID, strings.Repeat("x", 2001))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Send(ctx, "stranger", communityID, "hi")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	page, err := svc.Send(ctx, "anna", communityID, " peace be with you ")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "peace be with you", page[0].Body)

	page, err = svc.Send(ctx, "lydia", communityID, "and also with you")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "lydia", page[1].SenderID)
}

func TestService_ListLimits(t *testing.T) {
	svc, communityID := setup(t, nil)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := svc.Send(ctx, "anna", communityID, "msg "+strconv.Itoa(i))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, "anna", communityID, time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, page, DefaultPageSize)
	assert.Equal(t, "msg 59", page[len(page)-1].Body)

	page, err = svc.List(ctx, "anna", communityID, time.Time{}, 5)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, "msg 55", page[0].Body)

	assert.Equal(t, MaxPageSize, clampLimit(1000))

	_, err = svc.List(ctx, "stranger", communityID, time.Time{}, 5)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestHub_BroadcastsToRoom(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(func(*http.Request) bool { return true }, logger.NewDiscard())
	svc, communityID := setup(t, hub)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("community"), "anna")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?community=" + communityID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Subscribers(communityID) == 1 }, time.Second, 10*time.Millisecond)

	_, err = svc.Send(context.Background(), "lydia", communityID, "live hello")
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "message", evt.Type)
	assert.Equal(t, "live hello", evt.Message.Body)

	hub.Close()
	assert.Equal(t, 0, hub.Subscribers(communityID))

	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	require.NoError(t, conn.Close())
}

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestCreateCommunity_InsertsTagsAsJSON(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO communities")).
		WithArgs(sqlmock.AnyArg(), "Grace House", "", "leader-1", "", "Austin", "", "",
			nil, nil, "Sunday", "", 12, true, []byte(`["worship"]`), "New", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, err := store.CreateCommunity(context.Background(), community.Community{
		Name:       "Grace House",
		LeaderID:   "leader-1",
		City:       "Austin",
		MeetingDay: "Sunday",
		MaxMembers: 12,
		IsPublic:   true,
		Tags:       []string{"worship"},
		TrustLevel: community.TrustNew,
	})
	if err != nil {
		t.Fatalf("create community: %v", err)
	}
	if c.ID == "" {
		t.Fatalf("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetCommunity_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM communities WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetCommunity(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListCommunities_AppliesQueryInMemory(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Now().UTC()

	columns := []string{"id", "name", "description", "leader_id", "address", "city", "region", "country",
		"latitude", "longitude", "meeting_day", "meeting_time", "max_members", "is_public",
		"tags", "trust_level", "parent_id", "created_at", "updated_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("c1", "Harvest Table", "", "l1", "", "Austin", "", "", 30.2, -97.7, "Friday", "19:00", 0, true,
			[]byte(`["meal"]`), "New", "", ts, ts).
		AddRow("c2", "Quiet Room", "", "l2", "", "Austin", "", "", nil, nil, "Sunday", "", 0, true,
			[]byte(`[]`), "Verified", "", ts, ts)

	mock.ExpectQuery(`FROM communities WHERE is_public AND lower\(city\) = lower\(\$1\)`).
		WithArgs("austin").
		WillReturnRows(rows)

	list, err := store.ListCommunities(context.Background(), community.Filter{PublicOnly: true, City: "austin", Query: "meal"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "c1" {
		t.Fatalf("unexpected result: %#v", list)
	}
	if !list[0].HasLocation() || list[0].Tags[0] != "meal" {
		t.Fatalf("row not decoded: %#v", list[0])
	}
}

func TestCreateMember_DuplicateMapsToSentinel(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO members")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	_, err := store.CreateMember(context.Background(), member.Member{CommunityID: "c1", UserID: "u1", Role: member.RoleMember, Status: member.StatusPending})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteCommunity_NoRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM communities WHERE id = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteCommunity(context.Background(), "gone"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementPrayerCount_ReturnsUpdatedRow(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "community_id", "author_id", "title", "body", "is_anonymous",
		"is_answered", "answered_note", "prayer_count", "created_at", "updated_at"}).
		AddRow("p1", "c1", "u1", "Healing", "Please pray", false, false, "", 4, ts, ts)

	mock.ExpectQuery(regexp.QuoteMeta("SET prayer_count = prayer_count + 1")).
		WithArgs("p1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	req, err := store.IncrementPrayerCount(context.Background(), "p1")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if req.PrayerCount != 4 {
		t.Fatalf("prayer count = %d", req.PrayerCount)
	}
}

func TestIsTokenRevoked(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("jti").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := store.IsTokenRevoked(context.Background(), "jti")
	if err != nil || !revoked {
		t.Fatalf("revoked = %v, err = %v", revoked, err)
	}
}

func TestListMessages_CursorPagesForward(t *testing.T) {
	store, mock := newMockStore(t)
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{"id", "community_id", "sender_id", "body", "created_at"}

	mock.ExpectQuery(`(?s)WHERE community_id = \$1 AND created_at > \$2\s+ORDER BY created_at, id\s+LIMIT \$3`).
		WithArgs("c1", since, 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("m1", "c1", "u1", "first unseen", since.Add(time.Second)).
			AddRow("m2", "c1", "u1", "second unseen", since.Add(2*time.Second)))

	page, err := store.ListMessages(context.Background(), "c1", since, 2)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(page) != 2 || page[0].ID != "m1" || page[1].ID != "m2" {
		t.Fatalf("expected the oldest unseen messages, got %#v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListMessages_LatestPageWithoutCursor(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WithArgs("c1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "community_id", "sender_id", "body", "created_at"}).
			AddRow("m9", "c1", "u1", "latest", ts))

	page, err := store.ListMessages(context.Background(), "c1", time.Time{}, 50)
	if err != nil || len(page) != 1 || page[0].Body != "latest" {
		t.Fatalf("page = %#v, err = %v", page, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/remnanthub/platform/internal/app/domain/account"
	"github.com/remnanthub/platform/internal/app/domain/announcement"
	"github.com/remnanthub/platform/internal/app/domain/chat"
	"github.com/remnanthub/platform/internal/app/domain/community"
	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/multiplication"
	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/domain/partner"
	"github.com/remnanthub/platform/internal/app/domain/prayer"
	"github.com/remnanthub/platform/internal/app/domain/profile"
	"github.com/remnanthub/platform/internal/app/domain/readingplan"
	"github.com/remnanthub/platform/internal/app/domain/report"
	"github.com/remnanthub/platform/internal/app/domain/resource"
	"github.com/remnanthub/platform/internal/app/domain/verification"
	"github.com/remnanthub/platform/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	// lastMessageAt keeps chat timestamps strictly increasing so a
	// created_at cursor never ties.
	lastMessageAt time.Time

	accounts        map[string]account.Account
	accountsByEmail map[string]string
	revokedTokens   map[string]account.RevokedToken

	communities     map[string]community.Community
	members         map[string]member.Member
	profiles        map[string]profile.Profile
	prayers         map[string]prayer.Request
	announcements   map[string]announcement.Announcement
	messages        map[string]chat.Message
	plans           map[string]readingplan.Plan
	progress        map[string]readingplan.Progress
	partnerships    map[string]partner.Partnership
	checkIns        map[string]partner.CheckIn
	multiplications map[string]multiplication.Multiplication
	submissions     map[string]verification.Submission
	reports         map[string]report.Report
	resources       map[string]resource.Resource
	notifications   map[string]notification.Notification
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:          1,
		accounts:        make(map[string]account.Account),
		accountsByEmail: make(map[string]string),
		revokedTokens:   make(map[string]account.RevokedToken),
		communities:     make(map[string]community.Community),
		members:         make(map[string]member.Member),
		profiles:        make(map[string]profile.Profile),
		prayers:         make(map[string]prayer.Request),
		announcements:   make(map[string]announcement.Announcement),
		messages:        make(map[string]chat.Message),
		plans:           make(map[string]readingplan.Plan),
		progress:        make(map[string]readingplan.Progress),
		partnerships:    make(map[string]partner.Partnership),
		checkIns:        make(map[string]partner.CheckIn),
		multiplications: make(map[string]multiplication.Multiplication),
		submissions:     make(map[string]verification.Submission),
		reports:         make(map[string]report.Report),
		resources:       make(map[string]resource.Resource),
		notifications:   make(map[string]notification.Notification),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
}

func duplicate(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, storage.ErrDuplicate)
}

// idLess orders generated numeric ids by creation sequence.
func idLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// sortNewestFirst orders items by creation time descending, breaking ties by
// creation sequence.
func sortNewestFirst[T any](items []T, key func(T) (int64, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti > tj
		}
		return idLess(idj, idi)
	})
}

// sortOldestFirst is the inverse of sortNewestFirst.
func sortOldestFirst[T any](items []T, key func(T) (int64, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti < tj
		}
		return idLess(idi, idj)
	})
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}

func cloneFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

package storage

import (
	"context"
	"errors"
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
)

// ErrNotFound is wrapped by every store when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is wrapped when a create collides with an existing key.
var ErrDuplicate = errors.New("record already exists")

// AccountStore persists local login accounts and revoked tokens.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	GetAccount(ctx context.Context, id string) (account.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (account.Account, error)

	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// CommunityStore persists community listings.
type CommunityStore interface {
	CreateCommunity(ctx context.Context, c community.Community) (community.Community, error)
	UpdateCommunity(ctx context.Context, c community.Community) (community.Community, error)
	GetCommunity(ctx context.Context, id string) (community.Community, error)
	ListCommunities(ctx context.Context, filter community.Filter) ([]community.Community, error)
	DeleteCommunity(ctx context.Context, id string) error
}

// MemberStore persists community memberships.
type MemberStore interface {
	CreateMember(ctx context.Context, m member.Member) (member.Member, error)
	UpdateMember(ctx context.Context, m member.Member) (member.Member, error)
	GetMember(ctx context.Context, id string) (member.Member, error)
	GetMembership(ctx context.Context, communityID, userID string) (member.Member, error)
	ListMembers(ctx context.Context, communityID string) ([]member.Member, error)
	ListMembershipsByUser(ctx context.Context, userID string) ([]member.Member, error)
	CountActiveMembers(ctx context.Context, communityID string) (int, error)
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	GetProfile(ctx context.Context, userID string) (profile.Profile, error)
}

// PrayerStore persists prayer requests.
type PrayerStore interface {
	CreatePrayer(ctx context.Context, req prayer.Request) (prayer.Request, error)
	UpdatePrayer(ctx context.Context, req prayer.Request) (prayer.Request, error)
	GetPrayer(ctx context.Context, id string) (prayer.Request, error)
	ListPrayers(ctx context.Context, communityID string) ([]prayer.Request, error)
	IncrementPrayerCount(ctx context.Context, id string) (prayer.Request, error)
	DeletePrayer(ctx context.Context, id string) error
}

// AnnouncementStore persists community announcements.
type AnnouncementStore interface {
	CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error)
	GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error)
	ListAnnouncements(ctx context.Context, communityID string) ([]announcement.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error
}

// ChatStore persists chat messages.
type ChatStore interface {
	CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error)
	// ListMessages returns up to limit of the most recent messages created
	// after since, ordered oldest to newest. A zero since means no lower bound.
	ListMessages(ctx context.Context, communityID string, since time.Time, limit int) ([]chat.Message, error)
}

// ReadingPlanStore persists reading plans and per-user progress.
type ReadingPlanStore interface {
	CreatePlan(ctx context.Context, plan readingplan.Plan) (readingplan.Plan, error)
	GetPlan(ctx context.Context, id string) (readingplan.Plan, error)
	// ListPlans returns the plans of a community, or every plan when
	// communityID is empty.
	ListPlans(ctx context.Context, communityID string) ([]readingplan.Plan, error)

	GetProgress(ctx context.Context, planID, userID string) (readingplan.Progress, error)
	SaveProgress(ctx context.Context, progress readingplan.Progress) (readingplan.Progress, error)
}

// PartnerStore persists accountability partnerships and their check-ins.
type PartnerStore interface {
	CreatePartnership(ctx context.Context, p partner.Partnership) (partner.Partnership, error)
	UpdatePartnership(ctx context.Context, p partner.Partnership) (partner.Partnership, error)
	GetPartnership(ctx context.Context, id string) (partner.Partnership, error)
	ListPartnershipsForUser(ctx context.Context, userID string) ([]partner.Partnership, error)

	CreateCheckIn(ctx context.Context, c partner.CheckIn) (partner.CheckIn, error)
	ListCheckIns(ctx context.Context, partnershipID string) ([]partner.CheckIn, error)
}

// MultiplicationStore persists multiplication plans.
type MultiplicationStore interface {
	CreateMultiplication(ctx context.Context, m multiplication.Multiplication) (multiplication.Multiplication, error)
	UpdateMultiplication(ctx context.Context, m multiplication.Multiplication) (multiplication.Multiplication, error)
	GetMultiplication(ctx context.Context, id string) (multiplication.Multiplication, error)
	ListMultiplications(ctx context.Context, parentCommunityID string) ([]multiplication.Multiplication, error)
}

// VerificationFilter narrows submission listings. Empty fields match everything.
type VerificationFilter struct {
	UserID string
	Status verification.Status
}

// VerificationStore persists leader verification submissions.
type VerificationStore interface {
	CreateSubmission(ctx context.Context, sub verification.Submission) (verification.Submission, error)
	UpdateSubmission(ctx context.Context, sub verification.Submission) (verification.Submission, error)
	GetSubmission(ctx context.Context, id string) (verification.Submission, error)
	ListSubmissions(ctx context.Context, filter VerificationFilter) ([]verification.Submission, error)
}

// ReportFilter narrows report listings. Empty fields match everything.
type ReportFilter struct {
	CommunityID string
	ReporterID  string
}

// ReportStore persists conflict reports.
type ReportStore interface {
	CreateReport(ctx context.Context, r report.Report) (report.Report, error)
	UpdateReport(ctx context.Context, r report.Report) (report.Report, error)
	GetReport(ctx context.Context, id string) (report.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]report.Report, error)
}

// ResourceStore persists the shared resource library.
type ResourceStore interface {
	CreateResource(ctx context.Context, r resource.Resource) (resource.Resource, error)
	GetResource(ctx context.Context, id string) (resource.Resource, error)
	ListResources(ctx context.Context) ([]resource.Resource, error)
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) (notification.Notification, error)
}

// Store groups every persistence interface so a single backend can be wired
// into the application.
type Store interface {
	AccountStore
	CommunityStore
	MemberStore
	ProfileStore
	PrayerStore
	AnnouncementStore
	ChatStore
	ReadingPlanStore
	PartnerStore
	MultiplicationStore
	VerificationStore
	ReportStore
	ResourceStore
	NotificationStore
}

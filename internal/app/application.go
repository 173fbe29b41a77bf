package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/remnanthub/platform/internal/app/services/access"
	"github.com/remnanthub/platform/internal/app/services/accounts"
	"github.com/remnanthub/platform/internal/app/services/announcements"
	"github.com/remnanthub/platform/internal/app/services/chat"
	"github.com/remnanthub/platform/internal/app/services/communities"
	"github.com/remnanthub/platform/internal/app/services/memberships"
	"github.com/remnanthub/platform/internal/app/services/multiplications"
	"github.com/remnanthub/platform/internal/app/services/notifications"
	"github.com/remnanthub/platform/internal/app/services/partners"
	"github.com/remnanthub/platform/internal/app/services/prayers"
	"github.com/remnanthub/platform/internal/app/services/profiles"
	"github.com/remnanthub/platform/internal/app/services/readingplans"
	"github.com/remnanthub/platform/internal/app/services/reports"
	"github.com/remnanthub/platform/internal/app/services/resources"
	"github.com/remnanthub/platform/internal/app/services/verifications"
	"github.com/remnanthub/platform/internal/app/storage"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	"github.com/remnanthub/platform/internal/app/system"
	"github.com/remnanthub/platform/internal/cache"
	"github.com/remnanthub/platform/pkg/logger"
)

// Options selects the backends of an Application. Nil fields fall back to the
// in-process implementations.
type Options struct {
	Store    storage.Store
	Provider accounts.Provider
	Cache    cache.Cache
	CacheTTL time.Duration
	Avatars  profiles.AvatarStore
	Admins   map[string]struct{}

	// ReminderSpec is the cron expression of the reading reminder job.
	ReminderSpec    string
	DisableReminder bool

	// CheckOrigin validates websocket upgrades. Nil accepts same-origin only.
	CheckOrigin func(r *http.Request) bool
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Store   storage.Store
	Cache   cache.Cache
	Avatars profiles.AvatarStore
	Access  *access.Checker

	Auth            *accounts.Service
	Communities     *communities.Service
	Memberships     *memberships.Service
	Profiles        *profiles.Service
	Prayers         *prayers.Service
	Announcements   *announcements.Service
	Chat            *chat.Service
	Hub             *chat.Hub
	ReadingPlans    *readingplans.Service
	Reminder        *readingplans.Reminder
	Partners        *partners.Service
	Multiplications *multiplications.Service
	Verifications   *verifications.Service
	Reports         *reports.Service
	Resources       *resources.Service
	Notifications   *notifications.Service
}

// New builds a fully initialised application from opts.
func New(opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	store := opts.Store
	if store == nil {
		log.Warn("no store configured; using in-memory store")
		store = memory.New()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 2 * time.Minute
	}
	if opts.Avatars == nil {
		opts.Avatars = profiles.NewMemoryAvatars("/avatars")
	}
	if opts.Provider == nil {
		log.Warn("no auth provider configured; using local provider with an ephemeral secret")
		local, err := accounts.NewLocalProvider(store, uuid.NewString(), 24*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("local auth provider: %w", err)
		}
		opts.Provider = local
	}

	manager := system.NewManager()
	checker := access.New(store, store, opts.Admins)
	notifier := notifications.New(store, log.Named("notifications"))

	communityService := communities.New(store, store, checker, log.Named("communities"))
	communityService.WithCache(cache.NewNamespace(opts.Cache, "communities", opts.CacheTTL))

	hub := chat.NewHub(opts.CheckOrigin, log.Named("chat-hub"))
	reminder := readingplans.NewReminder(store, store, notifier, opts.ReminderSpec, log.Named("reading-reminder"))

	a := &Application{
		manager: manager,
		log:     log,

		Store:   store,
		Cache:   opts.Cache,
		Avatars: opts.Avatars,
		Access:  checker,

		Auth:            accounts.New(opts.Provider, opts.Admins, log.Named("auth")),
		Communities:     communityService,
		Memberships:     memberships.New(store, checker, notifier, log.Named("memberships")),
		Profiles:        profiles.New(store, opts.Avatars, log.Named("profiles")),
		Prayers:         prayers.New(store, checker, log.Named("prayers")),
		Announcements:   announcements.New(store, store, checker, notifier, log.Named("announcements")),
		Chat:            chat.New(store, checker, hub, log.Named("chat")),
		Hub:             hub,
		ReadingPlans:    readingplans.New(store, checker, log.Named("reading-plans")),
		Reminder:        reminder,
		Partners:        partners.New(store, checker, notifier, log.Named("partners")),
		Multiplications: multiplications.New(store, store, communityService, checker, log.Named("multiplications")),
		Verifications:   verifications.New(store, checker, log.Named("verifications")),
		Reports:         reports.New(store, checker, log.Named("reports")),
		Resources:       resources.New(store, checker, log.Named("resources")),
		Notifications:   notifier,
	}

	services := []system.Service{hub}
	if opts.DisableReminder {
		log.Warn("reading reminder disabled")
		services = append(services, system.NoopService{ServiceName: reminder.Name()})
	} else {
		services = append(services, reminder)
	}
	for _, svc := range services {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}
	return a, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}

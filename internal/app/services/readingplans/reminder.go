package readingplans

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/remnanthub/platform/internal/app/domain/member"
	"github.com/remnanthub/platform/internal/app/domain/notification"
	"github.com/remnanthub/platform/internal/app/metrics"
	"github.com/remnanthub/platform/internal/app/services/notifications"
	"github.com/remnanthub/platform/internal/app/storage"
	"github.com/remnanthub/platform/internal/app/system"
	"github.com/remnanthub/platform/pkg/logger"
)

// DefaultReminderSpec runs the reminder every morning at 06:00.
const DefaultReminderSpec = "0 6 * * *"

var _ system.Service = (*Reminder)(nil)

// Reminder notifies members who have not yet completed today's reading.
type Reminder struct {
	plans    storage.ReadingPlanStore
	members  storage.MemberStore
	notifier *notifications.Service
	spec     string
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// NewReminder creates a cron-driven reading reminder job.
func NewReminder(plans storage.ReadingPlanStore, members storage.MemberStore, notifier *notifications.Service, spec string, log *logger.Logger) *Reminder {
	if log == nil {
		log = logger.NewDefault("reading-reminder")
	}
	if spec == "" {
		spec = DefaultReminderSpec
	}
	return &Reminder{
		plans:    plans,
		members:  members,
		notifier: notifier,
		spec:     spec,
		log:      log,
		now:      time.Now,
	}
}

func (r *Reminder) Name() string { return "reading-reminder" }

func (r *Reminder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(r.spec, func() {
		sent, err := r.Run(runCtx)
		metrics.RecordReminderRun(sent, err)
		if err != nil {
			r.log.WithError(err).Warn("reading reminder run failed")
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("schedule reading reminder %q: %w", r.spec, err)
	}
	c.Start()

	r.cron = c
	r.cancel = cancel
	r.running = true
	r.log.WithField("schedule", r.spec).Info("reading reminder started")
	return nil
}

func (r *Reminder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	c, cancel := r.cron, r.cancel
	r.running = false
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	cancel()
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	r.log.Info("reading reminder stopped")
	return nil
}

// Run sends today's reminders and returns how many notifications were stored.
func (r *Reminder) Run(ctx context.Context) (int, error) {
	plans, err := r.plans.ListPlans(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list reading plans: %w", err)
	}

	now := r.now()
	sent := 0
	for _, plan := range plans {
		reading, ok := TodaysReading(plan, now)
		if !ok {
			continue
		}
		members, err := r.members.ListMembers(ctx, plan.CommunityID)
		if err != nil {
			r.log.WithError(err).WithField("plan_id", plan.ID).Warn("reminder recipients not loaded")
			continue
		}
		for _, m := range members {
			if m.Status != member.StatusActive {
				continue
			}
			prog, err := r.plans.GetProgress(ctx, plan.ID, m.UserID)
			if err == nil && prog.Completed(reading.Day) {
				continue
			}
			r.notifier.Notify(ctx, m.UserID, notification.KindReadingReminder,
				fmt.Sprintf("Today's reading for %s: %s", plan.Title, reading.Reference),
				"/plans/"+plan.ID)
			sent++
		}
	}

	r.log.WithField("plans", len(plans)).
		WithField("sent", sent).
		Info("reading reminders sent")
	return sent, nil
}

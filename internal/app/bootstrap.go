package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/remnanthub/platform/internal/app/metrics"
	"github.com/remnanthub/platform/internal/app/services/accounts"
	"github.com/remnanthub/platform/internal/app/storage/memory"
	"github.com/remnanthub/platform/internal/app/storage/postgres"
	"github.com/remnanthub/platform/internal/cache"
	"github.com/remnanthub/platform/internal/config"
	"github.com/remnanthub/platform/pkg/logger"
	"github.com/remnanthub/platform/supabase/client"
)

// Runtime is an Application together with the external resources opened for it.
type Runtime struct {
	*Application

	db      *sql.DB
	closers []func() error
}

// Close releases the database pool and cache connection.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// DB returns the Postgres pool, or nil when running on the in-memory store.
func (r *Runtime) DB() *sql.DB { return r.db }

// Build opens the backends selected by cfg and wires the application.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (rt *Runtime, err error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	rt = &Runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	opts := Options{
		CacheTTL:        cfg.Cache.TTL,
		Admins:          cfg.AdminIDs(),
		ReminderSpec:    cfg.Scheduler.ReadingReminderSpec,
		DisableReminder: cfg.Scheduler.Disabled,
		CheckOrigin:     originChecker(cfg.Origins()),
	}

	if cfg.Database.DSN != "" {
		db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
		if err != nil {
			return nil, err
		}
		rt.db = db
		rt.closers = append(rt.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(cfg.Database.DSN); err != nil {
				return nil, err
			}
			log.Info("database migrations applied")
		}
		opts.Store = postgres.New(db)
	} else {
		opts.Store = memory.New()
	}

	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, rc.Close)
		opts.Cache = rc
	}

	var sb *client.Client
	if cfg.Supabase.URL != "" && cfg.Supabase.AnonKey != "" {
		sb, err = client.New(client.Config{
			URL:        cfg.Supabase.URL,
			APIKey:     cfg.Supabase.AnonKey,
			ServiceKey: cfg.Supabase.ServiceKey,
			Retry:      client.DefaultRetryPolicy(),
			Breaker:    client.DefaultBreakerConfig(),
			Observer:   metrics.ObserveSupabase,
		})
		if err != nil {
			return nil, fmt.Errorf("supabase client: %w", err)
		}
	}

	switch cfg.Auth.Provider {
	case config.AuthProviderSupabase:
		if sb == nil {
			return nil, fmt.Errorf("supabase auth selected without SUPABASE_URL")
		}
		if opts.Provider, err = accounts.NewSupabaseProvider(sb, cfg.Supabase.JWTSecret); err != nil {
			return nil, err
		}
	default:
		if opts.Provider, err = accounts.NewLocalProvider(opts.Store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL); err != nil {
			return nil, err
		}
	}

	if sb != nil && cfg.SupabaseStorageEnabled() {
		opts.Avatars = sb.Storage().From(cfg.Supabase.AvatarBucket)
		log.WithField("bucket", cfg.Supabase.AvatarBucket).Info("avatars stored in supabase")
	}

	application, err := New(opts, log)
	if err != nil {
		return nil, err
	}
	rt.Application = application

	if path := cfg.Resources.SeedFile; path != "" {
		if _, _, err := application.Resources.SeedFromFile(ctx, path); err != nil {
			return nil, fmt.Errorf("seed resources: %w", err)
		}
	}

	log.WithField("store", storeName(rt.db)).
		WithField("auth", application.Auth.Provider()).
		Info("application built")
	return rt, nil
}

func storeName(db *sql.DB) string {
	if db == nil {
		return "memory"
	}
	return "postgres"
}

// originChecker accepts websocket upgrades from the CORS allowlist. Requests
// without an Origin header come from non-browser clients and are accepted.
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

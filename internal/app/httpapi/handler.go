// Package httpapi exposes the application services as a JSON REST API.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	app "github.com/remnanthub/platform/internal/app"
	"github.com/remnanthub/platform/internal/app/metrics"
	"github.com/remnanthub/platform/internal/app/services/accounts"
	"github.com/remnanthub/platform/internal/app/services/profiles"
	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/internal/httputil"
	"github.com/remnanthub/platform/internal/middleware"
	"github.com/remnanthub/platform/pkg/logger"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// AuditLogFile, when set, receives every audit entry as a JSON line.
	AuditLogFile string
}

// Server is the assembled HTTP handler plus its background upkeep.
type Server struct {
	http.Handler

	limiter *middleware.RateLimiter
	sink    *fileAuditSink
	cancel  context.CancelFunc
	log     *logger.Logger
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	auth  *middleware.AuthMiddleware
	audit *auditLog
	log   *logger.Logger
}

// NewServer builds the router under /api/v1 with the middleware chain.
func NewServer(application *app.Application, opts Options, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 20
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 40
	}

	srv := &Server{log: log}
	var sink auditSink
	if opts.AuditLogFile != "" {
		fileSink, err := newFileAuditSink(opts.AuditLogFile)
		if err != nil {
			return nil, err
		}
		srv.sink = fileSink
		sink = fileSink
	}

	h := &handler{
		app:   application,
		auth:  middleware.NewAuthMiddleware(application.Auth, log.Named("auth-middleware")),
		audit: newAuditLog(500, sink, log),
		log:   log,
	}
	srv.limiter = middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, log.Named("ratelimit"))

	root := mux.NewRouter()
	root.Use(middleware.MetricsMiddleware)
	root.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	root.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if avatars, ok := application.Avatars.(*profiles.MemoryAvatars); ok {
		root.PathPrefix("/avatars/").Handler(http.StripPrefix("/avatars/", avatars)).Methods(http.MethodGet)
	}

	api := root.PathPrefix("/api/v1").Subrouter()
	api.Use(h.auth.Optional, srv.limiter.Handler, h.audit.middleware)
	h.routes(api)

	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, r, apperrors.NotFound("route", r.URL.Path))
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorResponse(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	cors := middleware.DefaultCORSConfig()
	if len(opts.AllowedOrigins) > 0 {
		cors.AllowedOrigins = opts.AllowedOrigins
	}
	var chain http.Handler = root
	chain = middleware.LoggingMiddleware(log.Named("http"))(chain)
	chain = middleware.CORSMiddleware(cors)(chain)
	chain = middleware.TracingMiddleware(chain)
	srv.Handler = chain
	return srv, nil
}

func (s *Server) Name() string { return "http-upkeep" }

// Start launches the rate limiter cleanup loop.
func (s *Server) Start(ctx context.Context) error {
	if s.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.limiter.RunCleanup(runCtx, time.Minute, 10*time.Minute)
	return nil
}

// Stop ends the cleanup loop and closes the audit file.
func (s *Server) Stop(context.Context) error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.sink != nil {
		return s.sink.Close()
	}
	return nil
}

func (h *handler) routes(r *mux.Router) {
	// public
	r.HandleFunc("/auth/signup", h.signUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/signin", h.signIn).Methods(http.MethodPost)
	r.HandleFunc("/communities", h.listCommunities).Methods(http.MethodGet)
	r.HandleFunc("/communities/nearby", h.nearbyCommunities).Methods(http.MethodGet)
	r.HandleFunc("/communities/{id}", h.getCommunity).Methods(http.MethodGet)
	r.HandleFunc("/resources", h.listResources).Methods(http.MethodGet)
	r.HandleFunc("/resources/{id}", h.getResource).Methods(http.MethodGet)
	// the websocket route authenticates itself so browsers can pass the token as a query parameter
	r.HandleFunc("/communities/{id}/chat/ws", h.chatSocket).Methods(http.MethodGet)

	authed := func(path string, fn http.HandlerFunc, methods ...string) {
		r.Handle(path, h.requireUser(fn)).Methods(methods...)
	}

	authed("/auth/signout", h.signOut, http.MethodPost)
	authed("/me", h.me, http.MethodGet)
	authed("/me/profile", h.upsertProfile, http.MethodPut)
	authed("/me/avatar", h.uploadAvatar, http.MethodPost)
	authed("/me/memberships", h.myMemberships, http.MethodGet)
	authed("/profiles/{userID}", h.getProfile, http.MethodGet)

	authed("/communities", h.createCommunity, http.MethodPost)
	authed("/communities/{id}", h.updateCommunity, http.MethodPatch)
	authed("/communities/{id}", h.deleteCommunity, http.MethodDelete)
	authed("/communities/{id}/trust-level", h.setTrustLevel, http.MethodPut)
	authed("/communities/{id}/join", h.joinCommunity, http.MethodPost)
	authed("/communities/{id}/members", h.listMembers, http.MethodGet)
	authed("/members/{id}/approve", h.approveMember, http.MethodPost)
	authed("/members/{id}/role", h.setMemberRole, http.MethodPut)
	authed("/members/{id}", h.removeMember, http.MethodDelete)

	authed("/communities/{id}/prayers", h.listPrayers, http.MethodGet)
	authed("/communities/{id}/prayers", h.createPrayer, http.MethodPost)
	authed("/prayers/{id}/pray", h.pray, http.MethodPost)
	authed("/prayers/{id}/answered", h.markAnswered, http.MethodPost)
	authed("/prayers/{id}", h.deletePrayer, http.MethodDelete)

	authed("/communities/{id}/announcements", h.listAnnouncements, http.MethodGet)
	authed("/communities/{id}/announcements", h.createAnnouncement, http.MethodPost)
	authed("/announcements/{id}/pinned", h.pinAnnouncement, http.MethodPut)
	authed("/announcements/{id}", h.deleteAnnouncement, http.MethodDelete)

	authed("/communities/{id}/chat", h.listMessages, http.MethodGet)
	authed("/communities/{id}/chat", h.sendMessage, http.MethodPost)

	authed("/communities/{id}/plans", h.listPlans, http.MethodGet)
	authed("/communities/{id}/plans", h.createPlan, http.MethodPost)
	authed("/plans/{id}", h.getPlan, http.MethodGet)
	authed("/plans/{id}/today", h.todaysReading, http.MethodGet)
	authed("/plans/{id}/progress", h.planProgress, http.MethodGet)
	authed("/plans/{id}/days/{day}", h.markDay, http.MethodPut)

	authed("/partners", h.listPartners, http.MethodGet)
	authed("/partners", h.requestPartner, http.MethodPost)
	authed("/partners/{id}/respond", h.respondPartner, http.MethodPost)
	authed("/partners/{id}/end", h.endPartner, http.MethodPost)
	authed("/partners/{id}/checkins", h.listCheckIns, http.MethodGet)
	authed("/partners/{id}/checkins", h.checkIn, http.MethodPost)

	authed("/communities/{id}/multiplications", h.listMultiplications, http.MethodGet)
	authed("/communities/{id}/multiplications", h.planMultiplication, http.MethodPost)
	authed("/communities/{id}/lineage", h.lineage, http.MethodGet)
	authed("/multiplications/{id}", h.getMultiplication, http.MethodGet)
	authed("/multiplications/{id}/stage", h.setStage, http.MethodPut)

	authed("/verifications", h.submitVerification, http.MethodPost)
	authed("/verifications", h.listVerifications, http.MethodGet)
	authed("/verifications/mine", h.myVerifications, http.MethodGet)
	authed("/verifications/{id}", h.getVerification, http.MethodGet)
	authed("/verifications/{id}/review", h.reviewVerification, http.MethodPost)

	authed("/communities/{id}/reports", h.fileReport, http.MethodPost)
	authed("/communities/{id}/reports", h.listCommunityReports, http.MethodGet)
	authed("/reports/mine", h.myReports, http.MethodGet)
	authed("/reports/{id}", h.getReport, http.MethodGet)
	authed("/reports/{id}/advance", h.advanceReport, http.MethodPost)
	authed("/reports/{id}/resolve", h.resolveReport, http.MethodPost)

	authed("/resources", h.createResource, http.MethodPost)

	authed("/notifications", h.listNotifications, http.MethodGet)
	authed("/notifications/{id}/read", h.markNotificationRead, http.MethodPost)

	authed("/admin/audit", h.listAudit, http.MethodGet)
}

// requireUser rejects requests the optional auth middleware left anonymous.
func (h *handler) requireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.IdentityFrom(r.Context()); !ok {
			httputil.WriteError(w, r, apperrors.Unauthorized("missing Authorization header"))
			return
		}
		next(w, r)
	})
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	if !identity(r).IsAdmin() {
		h.fail(w, r, apperrors.Forbidden("admin role required"))
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.audit.listLimit(limit))
}

// fail writes err and logs unexpected failures.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil || svcErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.WithContext(r.Context()).WithError(err).
			WithField("path", r.URL.Path).
			Error("request failed")
	}
	httputil.WriteError(w, r, err)
}

// decode reads a JSON body into dst, reporting malformed input as a validation error.
func decode(r *http.Request, dst any) error {
	if err := httputil.DecodeJSON(r.Body, dst); err != nil {
		return apperrors.Validation("%s", err.Error())
	}
	return nil
}

func identity(r *http.Request) accounts.Identity {
	ident, _ := middleware.IdentityFrom(r.Context())
	return ident
}

func userID(r *http.Request) string {
	return middleware.UserID(r.Context())
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("%s must be an integer", key)
	}
	return n, nil
}

func queryFloat(r *http.Request, key string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, apperrors.Required(key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Validation("%s must be a number", key)
	}
	return f, nil
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.Validation("%s must be an RFC 3339 timestamp", key)
	}
	return t, nil
}

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"heroesfund/internal/auth"
	"heroesfund/internal/metrics"
	"heroesfund/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Applications *service.ApplicationsService
	Moderation   *service.ModerationService
	Friends      *service.FriendsService
	Trust        *service.TrustService
	Profiles     *service.ProfileService
	Tokens       auth.TokenCodec

	FriendRequestsPerMinute int
	Now                     func() time.Time
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	api := &api{
		logger:        logger,
		isProd:        opts.IsProd,
		dbPing:        opts.DBPing,
		appsSvc:       opts.Applications,
		moderationSvc: opts.Moderation,
		friendsSvc:    opts.Friends,
		trustSvc:      opts.Trust,
		profileSvc:    opts.Profiles,
		tokens:        opts.Tokens,
		friendLimiter: newFriendLimiter(opts.FriendRequestsPerMinute),
		now:           now,
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)
	publicMux.Handle("GET /metrics", metrics.Handler())

	if api.appsSvc != nil {
		apiMux.HandleFunc("POST /v1/applications", api.requireActor(api.handleApplicationsCreate))
		apiMux.HandleFunc("GET /v1/applications", api.requireActor(api.handleApplicationsList))
		apiMux.HandleFunc("GET /v1/applications/mine", api.requireActor(api.handleApplicationsMine))
		apiMux.HandleFunc("GET /v1/applications/{id}", api.requireActor(api.handleApplicationsGet))
		apiMux.HandleFunc("PUT /v1/applications/{id}/content", api.requireActor(api.handleApplicationsUpdateContent))
	}
	if api.moderationSvc != nil {
		apiMux.HandleFunc("PATCH /v1/applications/{id}", api.requireActor(api.handleApplicationsDecide))
		apiMux.HandleFunc("POST /v1/applications/{id}/approve", api.requireActor(api.handleApplicationsApprove))
		apiMux.HandleFunc("POST /v1/applications/{id}/reject", api.requireActor(api.handleApplicationsReject))
		apiMux.HandleFunc("DELETE /v1/applications/{id}", api.requireActor(api.handleApplicationsDelete))
	}
	if api.friendsSvc != nil {
		apiMux.HandleFunc("GET /v1/friendships", api.requireActor(api.handleFriendsOverview))
		apiMux.HandleFunc("POST /v1/friendships", api.requireActor(api.handleFriendsCreateRequest))
		apiMux.HandleFunc("PATCH /v1/friendships/{id}", api.requireActor(api.handleFriendsRespond))
		apiMux.HandleFunc("POST /v1/friendships/{id}/block", api.requireActor(api.handleFriendsBlock))
		apiMux.HandleFunc("DELETE /v1/friendships/{id}", api.requireActor(api.handleFriendsRemove))
	}
	if api.profileSvc != nil {
		apiMux.HandleFunc("PUT /v1/users/me", api.requireActor(api.handleProfileUpsert))
	}
	if api.trustSvc != nil {
		apiMux.HandleFunc("GET /v1/trust/tiers", api.requireActor(api.handleTrustTiers))
		apiMux.HandleFunc("GET /v1/users/{id}/trust", api.requireActor(api.handleUserTrust))
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handler does not populate path values; ServeHTTP re-matches and does.
		_, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		setRoute(r, pattern)
		apiMux.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		if _, pattern := publicMux.Handler(r); pattern != "" {
			setRoute(r, pattern)
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = Metrics()(h)
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	appsSvc       *service.ApplicationsService
	moderationSvc *service.ModerationService
	friendsSvc    *service.FriendsService
	trustSvc      *service.TrustService
	profileSvc    *service.ProfileService
	tokens        auth.TokenCodec

	friendLimiter *friendLimiter
	now           func() time.Time
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}

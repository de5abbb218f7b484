package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"heroesfund/internal/auth"
	"heroesfund/internal/config"
	"heroesfund/internal/domain"
	"heroesfund/internal/httpapi"
	"heroesfund/internal/service"
	"heroesfund/internal/store/memory"
	"heroesfund/internal/store/postgres"
)

// stores bundles the persistence a running server needs, regardless of
// whether it is backed by postgres or memory.
type stores struct {
	users        userDirectory
	applications service.ApplicationsStore
	friendships  service.FriendshipsStore
	trust        service.TrustStore
	intents      service.TrustIntentsStore
}

type userDirectory interface {
	service.UsersStore
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, username, displayName string) (domain.User, error)
	UpsertUser(ctx context.Context, u domain.User) (domain.User, error)
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(runToken(os.Args[2:]))
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		st     stores
		dbPing func(context.Context) error
	)

	if cfg.DBDSN != "" {
		if cfg.DBMigrate {
			if err := postgres.Migrate(cfg.DBDSN); err != nil {
				logger.Error("db migrate failed", "err", err)
				os.Exit(1)
			}
			logger.Info("db migrations applied")
		}

		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN, postgres.PoolOptions{
			MaxConns:        int32(cfg.DBMaxConns),
			ApplicationName: "heroesfund",
		})
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		st = stores{
			users:        users,
			applications: postgres.NewApplicationsStore(pgPool),
			friendships:  postgres.NewFriendshipsStore(pgPool),
			trust:        users,
			intents:      postgres.NewTrustIntentsStore(pgPool),
		}
		dbPing = pgPool.Ping
	} else {
		logger.Warn("APP_DB_DSN not set; using in-memory store")
		mem := memory.New()
		st = stores{users: mem, applications: mem, friendships: mem, trust: mem, intents: mem}
	}

	tokens := auth.NewTokenCodec([]byte(cfg.TokenSecret))
	if !tokens.Signed() {
		logger.Warn("APP_TOKEN_SECRET not set; accepting unsigned actor tokens")
	}

	if err := bootstrapAdminUser(context.Background(), logger, st.users, tokens, cfg); err != nil {
		logger.Error("bootstrap admin failed", "err", err)
		os.Exit(1)
	}

	trustSvc := &service.TrustService{Trust: st.trust}
	relay := &service.TrustRelay{
		Intents:     st.intents,
		Trust:       trustSvc,
		Logger:      logger,
		Timeout:     cfg.TrustRelayTimeout,
		MaxAttempts: cfg.TrustMaxAttempts,
	}
	stopRelay, err := relay.Start(cfg.TrustSweep)
	if err != nil {
		logger.Error("trust relay start failed", "err", err)
		os.Exit(1)
	}

	apiRouter := httpapi.NewRouter(httpapi.RouterOpts{
		Logger: logger,
		IsProd: cfg.IsProd(),
		DBPing: dbPing,
		Applications: &service.ApplicationsService{
			Applications: st.applications,
		},
		Moderation: &service.ModerationService{
			Applications:   st.applications,
			Trust:          relay,
			Logger:         logger,
			EnqueueTimeout: cfg.TrustRelayTimeout,
		},
		Friends: &service.FriendsService{
			Users:       st.users,
			Friendships: st.friendships,
		},
		Trust:                   trustSvc,
		Profiles:                &service.ProfileService{Store: st.users},
		Tokens:                  tokens,
		FriendRequestsPerMinute: cfg.FriendRequestsPerMinute,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		stopRelay()
		relay.Wait()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			stopRelay()
			os.Exit(1)
		}
	}
}

// bootstrapAdminUser makes sure the configured admin exists. Outside prod it
// also logs a day-long admin token so a fresh environment is usable at once.
func bootstrapAdminUser(ctx context.Context, logger *slog.Logger, users userDirectory, tokens auth.TokenCodec, cfg config.Config) error {
	username := cfg.AdminBootstrapUsername
	if username == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	u, err := users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		logger.Info("admin bootstrap: user already exists", "username", username, "user_id", u.ID)
	case errors.Is(err, domain.ErrNotFound):
		u, err = users.CreateUser(ctx, username, "")
		if err != nil {
			return fmt.Errorf("admin bootstrap: create user: %w", err)
		}
		logger.Info("admin bootstrap: created admin user", "username", username, "user_id", u.ID)
	default:
		return fmt.Errorf("admin bootstrap: lookup user: %w", err)
	}

	if !cfg.IsProd() {
		token, err := tokens.Encode(domain.Actor{UserID: u.ID, Role: domain.RoleAdmin}, 24*time.Hour)
		if err != nil {
			return fmt.Errorf("admin bootstrap: issue token: %w", err)
		}
		logger.Info("admin bootstrap: dev token", "token", token)
	}
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

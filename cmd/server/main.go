// @title           News Back-Office API
// @version         1.0
// @description     Authentication, role-based authorization and operator administration for the news back office.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/akhbar-news/backoffice/internal/api"
	"github.com/akhbar-news/backoffice/internal/api/handler"
	"github.com/akhbar-news/backoffice/internal/api/middleware"
	"github.com/akhbar-news/backoffice/internal/core/ports"
	"github.com/akhbar-news/backoffice/internal/core/service"
	"github.com/akhbar-news/backoffice/internal/infrastructure/db/memory"
	mongodb "github.com/akhbar-news/backoffice/internal/infrastructure/db/mongo"
	"github.com/akhbar-news/backoffice/internal/infrastructure/db/postgres"
	redisdb "github.com/akhbar-news/backoffice/internal/infrastructure/db/redis"
	"github.com/akhbar-news/backoffice/internal/infrastructure/queue"
	"github.com/akhbar-news/backoffice/internal/infrastructure/resilience"
	"github.com/akhbar-news/backoffice/internal/infrastructure/tracing"
	"github.com/akhbar-news/backoffice/internal/pkg/config"
	"github.com/akhbar-news/backoffice/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
	devJWTSecret    = "development-only-secret"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "backoffice",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// backends holds everything that needs closing on shutdown.
type backends struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	sink     ports.AccessEventSink
	reader   ports.AccessEventReader
	checks   []handler.DependencyCheck
	closers  []func(context.Context)
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:  cfg.Tracing.Enabled,
		Exporter: cfg.Tracing.Exporter,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(closeCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		b.close(closeCtx)
	}()

	users := resilience.NewUserRepository(b.users, resilience.BreakerConfig{
		MaxFailures: cfg.Breaker.MaxFailures,
		Timeout:     cfg.Breaker.Timeout,
	}, log)
	b.checks = append(b.checks, handler.DependencyCheck{
		Name: "identity-breaker",
		Check: func(context.Context) error {
			if users.State() == gobreaker.StateOpen {
				return gobreaker.ErrOpenState
			}
			return nil
		},
	})

	// The dispatcher outlives the HTTP server so denials logged during
	// shutdown still reach the sink.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, b.sink, log)
	dispatcher.Start(dispatchCtx)
	defer func() {
		stopDispatch()
		dispatcher.Wait()
	}()

	// Config validation rejects an empty secret outside development.
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	userService := service.NewUserService(users, cfg.Auth.BcryptCost, log)
	authService := service.NewAuthService(users, b.sessions, service.AuthConfig{
		JWTSecret:  secret,
		TokenTTL:   cfg.Auth.TokenTTL,
		SessionTTL: cfg.Sessions.TTL,
	}, log)

	if cfg.Bootstrap.AdminEmail != "" {
		created, err := userService.EnsureSuperAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap super admin: %w", err)
		}
		if created {
			log.Info().Str("email", cfg.Bootstrap.AdminEmail).Msg("bootstrap super admin created")
		}
	}

	resolver := middleware.ChainResolver{
		middleware.NewSessionResolver(b.sessions, cfg.Sessions.Cookie),
		middleware.NewBearerResolver(secret, b.sessions),
	}
	gate := middleware.NewGate(resolver, users, dispatcher, logger.Component("authz"))

	e := api.NewRouter(api.Dependencies{
		Log:         log,
		Gate:        gate,
		AuthService: authService,
		UserService: userService,
		Events:      b.reader,
		Cookie: handler.CookieConfig{
			Name:   cfg.Sessions.Cookie,
			Secure: cfg.Sessions.CookieSecure,
		},
		Checks:     b.checks,
		Production: !cfg.IsDevelopment(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.Store.Backend).
			Str("sessions", cfg.Sessions.Backend).
			Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// close runs the collected closers in reverse order.
func (b *backends) close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i](ctx)
	}
	b.closers = nil
}

// openBackends connects the configured stores. On error every connection
// opened so far is closed before returning.
func openBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			b.close(closeCtx)
		}
	}()

	switch cfg.Sessions.Backend {
	case "redis":
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) { _ = client.Close() })
		b.sessions = redisdb.NewSessionStore(client)
		b.checks = append(b.checks, handler.DependencyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	default:
		store := memory.NewSessionStore()
		sweepCtx, cancel := context.WithCancel(context.Background())
		go store.RunSweeper(sweepCtx, sweepInterval)
		b.closers = append(b.closers, func(context.Context) { cancel() })
		b.sessions = store
	}

	switch cfg.Store.Backend {
	case "mongo":
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			AppName:  "backoffice",
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(ctx context.Context) { _ = client.Disconnect(ctx) })
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return nil, err
		}
		events := mongodb.NewAccessEventRepository(db)
		b.users = mongodb.NewUserRepository(db)
		b.sink, b.reader = events, events
		b.checks = append(b.checks, handler.DependencyCheck{
			Name:  "mongodb",
			Check: func(ctx context.Context) error { return client.Ping(ctx, nil) },
		})
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{
			URL:      cfg.Postgres.URL,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) { pool.Close() })
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return nil, err
		}
		b.users = postgres.NewUserRepository(pool)
		b.checks = append(b.checks, handler.DependencyCheck{Name: "postgres", Check: pool.Ping})
	default:
		b.users = memory.NewUserRepository()
	}

	if b.sink == nil {
		events := memory.NewAccessEventStore(0, logger.Component("audit"))
		b.sink, b.reader = events, events
	}

	log.Debug().Int("checks", len(b.checks)).Msg("backends ready")
	return b, nil
}

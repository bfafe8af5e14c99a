// Package resilience wraps infrastructure adapters with failure isolation.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
)

const (
	defaultMaxFailures uint32        = 5
	defaultOpenTimeout time.Duration = 30 * time.Second
	defaultInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration
	// Interval clears failure counts while closed. Zero uses a 60s default.
	Interval time.Duration
}

// UserRepository guards the identity-store read path with a circuit breaker.
// While the circuit is open lookups fail immediately with gobreaker.ErrOpenState,
// which the gate turns into AUTH_ERROR rather than letting requests through.
// Writes go straight to the inner repository.
type UserRepository struct {
	ports.UserRepository
	breaker *gobreaker.CircuitBreaker[*domain.User]
}

// NewUserRepository wraps inner. Zero-valued config fields fall back to defaults.
func NewUserRepository(inner ports.UserRepository, cfg BreakerConfig, log zerolog.Logger) *UserRepository {
	cb := gobreaker.NewCircuitBreaker[*domain.User](breakerSettings(cfg, log))
	return &UserRepository{UserRepository: inner, breaker: cb}
}

func breakerSettings(cfg BreakerConfig, log zerolog.Logger) gobreaker.Settings {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultOpenTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultInterval
	}

	return gobreaker.Settings{
		Name:        "identity-store",
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
		// A missing user is an answer, not a store failure. Cancellation is the
		// caller giving up and says nothing about the store either.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrUserNotFound) ||
				errors.Is(err, context.Canceled)
		},
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.breaker.Execute(func() (*domain.User, error) {
		return r.UserRepository.FindByID(ctx, id)
	})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.breaker.Execute(func() (*domain.User, error) {
		return r.UserRepository.FindByEmail(ctx, email)
	})
}

// State exposes the breaker state for readiness reporting.
func (r *UserRepository) State() gobreaker.State {
	return r.breaker.State()
}

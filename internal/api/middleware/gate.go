package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/akhbar-news/backoffice/internal/api/metrics"
	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
	"github.com/akhbar-news/backoffice/internal/core/rbac"
	"github.com/akhbar-news/backoffice/internal/infrastructure/tracing"
)

// Context keys set on an authorized request.
const (
	UserKey      = "user"
	SessionIDKey = "session_id"
)

const (
	guardAuthenticated = "authenticated"
	guardPermissions   = "permissions"
	guardRoles         = "roles"
)

// Gate authorizes requests against the identity store and the role registry.
// It keeps no per-user state: every guard invocation resolves the user again.
type Gate struct {
	resolver IdentityResolver
	users    ports.UserRepository
	recorder ports.AccessRecorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewGate builds a gate. recorder may be nil.
func NewGate(resolver IdentityResolver, users ports.UserRepository, recorder ports.AccessRecorder, log zerolog.Logger) *Gate {
	return &Gate{
		resolver: resolver,
		users:    users,
		recorder: recorder,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type requirement struct {
	guard string
	perms []domain.Permission
	roles []domain.Role
}

// RequireAuthenticated admits any resolved, active user.
func (g *Gate) RequireAuthenticated() echo.MiddlewareFunc {
	return g.middleware(requirement{guard: guardAuthenticated})
}

// RequirePermissions admits a user whose role grants every listed permission.
// It panics when called with no permissions.
func (g *Gate) RequirePermissions(perms ...domain.Permission) echo.MiddlewareFunc {
	if len(perms) == 0 {
		panic("middleware: RequirePermissions needs at least one permission")
	}
	return g.middleware(requirement{guard: guardPermissions, perms: append([]domain.Permission(nil), perms...)})
}

// RequireRoles admits a user whose role is any of the listed roles. It panics
// when called with no roles.
func (g *Gate) RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	if len(roles) == 0 {
		panic("middleware: RequireRoles needs at least one role")
	}
	return g.middleware(requirement{guard: guardRoles, roles: append([]domain.Role(nil), roles...)})
}

func (g *Gate) middleware(req requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, id, aerr := g.authorize(c, req)
			if aerr != nil {
				g.reject(c, req, id, user, aerr)
				return WriteAccessError(c, aerr)
			}

			metrics.AuthzDecisionsTotal.WithLabelValues(req.guard, "allowed", "OK").Inc()
			g.log.Debug().
				Str("guard", req.guard).
				Str("user_id", user.ID).
				Str("role", user.Role.String()).
				Str("path", c.Request().URL.Path).
				Msg("access granted")

			c.Set(UserKey, user)
			if id.SessionID != "" {
				c.Set(SessionIDKey, id.SessionID)
			}
			return next(c)
		}
	}
}

// authorize runs the decision sequence. It returns either a user and its
// identity or a rejection; a panic anywhere below becomes AUTH_ERROR.
func (g *Gate) authorize(c echo.Context, req requirement) (user *domain.User, id *ports.Identity, aerr *AccessError) {
	defer func() {
		if r := recover(); r != nil {
			user = nil
			aerr = errInternal(fmt.Errorf("panic during authorization: %v", r))
		}
	}()

	ctx := c.Request().Context()
	if err := ctx.Err(); err != nil {
		return nil, nil, errInternal(err)
	}

	id, err := g.resolver.Resolve(c)
	if err != nil {
		return nil, nil, errInternal(fmt.Errorf("resolve identity: %w", err))
	}
	if id == nil || (id.UserID == "" && id.Email == "") {
		return nil, nil, errAuthRequired()
	}

	user, err = g.lookup(ctx, req.guard, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, id, errUserNotFound()
		}
		return nil, id, errInternal(fmt.Errorf("lookup user: %w", err))
	}
	if user == nil {
		return nil, id, errInternal(errors.New("lookup user: store returned no user"))
	}
	if err := ctx.Err(); err != nil {
		return nil, id, errInternal(err)
	}

	if !user.IsActive() {
		return user, id, errAccountInactive(user.Role)
	}

	switch req.guard {
	case guardPermissions:
		d := rbac.Evaluate(user.Role, req.perms...)
		if !d.Allowed {
			return user, id, errPermissionDenied(user.Role, req.perms, d.Missing)
		}
	case guardRoles:
		d := rbac.EvaluateRoles(user.Role, req.roles...)
		if !d.Allowed {
			return user, id, errRoleDenied(user.Role, req.roles)
		}
	}

	return user, id, nil
}

func (g *Gate) lookup(ctx context.Context, guard string, id *ports.Identity) (*domain.User, error) {
	ctx, span := tracing.StartSpan(ctx, "authz.identity_lookup",
		attribute.String("authz.guard", guard),
		attribute.Bool("authz.by_id", id.UserID != ""),
	)
	defer span.End()

	start := time.Now()
	var (
		user *domain.User
		err  error
	)
	if id.UserID != "" {
		user, err = g.users.FindByID(ctx, id.UserID)
	} else {
		user, err = g.users.FindByEmail(ctx, id.Email)
	}

	result := "found"
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
		tracing.RecordError(span, err)
	}
	metrics.IdentityLookupDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())

	return user, err
}

func (g *Gate) reject(c echo.Context, req requirement, id *ports.Identity, user *domain.User, aerr *AccessError) {
	metrics.AuthzDecisionsTotal.WithLabelValues(req.guard, "denied", aerr.Code).Inc()

	r := c.Request()
	ev := &domain.AccessEvent{
		ID:       ulid.Make().String(),
		Code:     aerr.Code,
		Status:   aerr.Status,
		Method:   r.Method,
		Path:     r.URL.Path,
		Required: aerr.Required,
		Missing:  aerr.Missing,
		At:       g.now(),
	}
	if id != nil {
		ev.UserID = id.UserID
		ev.Email = id.Email
	}
	if user != nil {
		ev.UserID = user.ID
		ev.Email = user.Email
		ev.Role = user.Role
	}

	logEvt := g.log.Info()
	if aerr.Code == CodeAuthError {
		logEvt = g.log.Error().Err(aerr.Err)
	}
	logEvt.
		Str("guard", req.guard).
		Str("code", aerr.Code).
		Int("status", aerr.Status).
		Str("user_id", ev.UserID).
		Str("role", ev.Role.String()).
		Str("method", ev.Method).
		Str("path", ev.Path).
		Strs("missing", permissionStrings(ev.Missing)).
		Msg("access denied")

	if g.recorder != nil {
		g.recorder.Enqueue(ev)
	}
}

func permissionStrings(ps []domain.Permission) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
)

// DefaultSessionCookie is the cookie carrying the session id.
const DefaultSessionCookie = "bo_session"

// IdentityResolver extracts the caller's identity from a request. A nil
// identity with a nil error means the request carries no identity.
type IdentityResolver interface {
	Resolve(c echo.Context) (*ports.Identity, error)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(c echo.Context) (*ports.Identity, error)

func (f IdentityResolverFunc) Resolve(c echo.Context) (*ports.Identity, error) {
	return f(c)
}

// SessionResolver reads the session cookie and loads the session it names.
type SessionResolver struct {
	store  ports.SessionStore
	cookie string
}

func NewSessionResolver(store ports.SessionStore, cookie string) *SessionResolver {
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	return &SessionResolver{store: store, cookie: cookie}
}

// CookieName returns the cookie the resolver reads.
func (r *SessionResolver) CookieName() string { return r.cookie }

func (r *SessionResolver) Resolve(c echo.Context) (*ports.Identity, error) {
	ck, err := c.Cookie(r.cookie)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session cookie: %w", err)
	}
	if ck.Value == "" {
		return nil, nil
	}

	sess, err := r.store.Get(c.Request().Context(), ck.Value)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	return &ports.Identity{UserID: sess.UserID, Email: sess.Email, SessionID: sess.ID}, nil
}

// ChainResolver tries each resolver in order. The first identity wins; any
// error stops the chain.
type ChainResolver []IdentityResolver

func (ch ChainResolver) Resolve(c echo.Context) (*ports.Identity, error) {
	for _, r := range ch {
		id, err := r.Resolve(c)
		if err != nil {
			return nil, err
		}
		if id != nil {
			return id, nil
		}
	}
	return nil, nil
}

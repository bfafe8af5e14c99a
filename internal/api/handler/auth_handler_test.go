package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akhbar-news/backoffice/internal/api/middleware"
	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
)

type stubAuthService struct {
	loginFn  func(ctx context.Context, email, password string, meta ports.LoginMeta) (*ports.LoginResult, error)
	logoutFn func(ctx context.Context, sessionID string) error
}

func (s *stubAuthService) Login(ctx context.Context, email, password string, meta ports.LoginMeta) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password, meta)
}

func (s *stubAuthService) Logout(ctx context.Context, sessionID string) error {
	return s.logoutFn(ctx, sessionID)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

var testCookie = CookieConfig{Name: middleware.DefaultSessionCookie}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	expires := time.Now().Add(time.Hour).UTC()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string, meta ports.LoginMeta) (*ports.LoginResult, error) {
			if email != "editor@example.com" || password != "correct-horse" {
				t.Fatalf("unexpected credentials: %s %s", email, password)
			}
			if meta.UserAgent != "test-agent" {
				t.Fatalf("user agent not forwarded: %q", meta.UserAgent)
			}
			return &ports.LoginResult{
				Session: &ports.Session{ID: "sess-1", ExpiresAt: expires},
				Token:   "jwt-token",
				User:    &domain.User{ID: "u1", Email: email, Role: domain.RoleEditor, Status: domain.StatusActive},
			}, nil
		},
	}
	h := NewAuthHandler(stub, testCookie)

	req := jsonRequest(http.MethodPost, "/auth/login", `{"email":"editor@example.com","password":"correct-horse"}`)
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.DefaultSessionCookie || cookies[0].Value != "sess-1" {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "jwt-token" {
		t.Fatalf("unexpected token: %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["role"] != "editor" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Fatalf("password hash leaked")
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	cases := map[string]error{
		"invalid credentials": domain.ErrInvalidCredentials,
		"inactive account":    domain.ErrAccountInactive,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEcho()
			stub := &stubAuthService{
				loginFn: func(context.Context, string, string, ports.LoginMeta) (*ports.LoginResult, error) {
					return nil, want
				},
			}
			h := NewAuthHandler(stub, testCookie)

			req := jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"whatever1"}`)
			c := e.NewContext(req, httptest.NewRecorder())

			if err := h.Login(c); !errors.Is(err, want) {
				t.Fatalf("expected %v, got %v", want, err)
			}
		})
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, testCookie)

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{bad json`), httptest.NewRecorder())
	if got := httpStatus(t, h.Login(c)); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"not-an-email","password":""}`), httptest.NewRecorder())
	if got := httpStatus(t, h.Login(c)); got != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", got)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newEcho()
	var dropped string
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, sessionID string) error {
			dropped = sessionID
			return nil
		},
	}
	h := NewAuthHandler(stub, testCookie)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)
	c.Set(middleware.SessionIDKey, "sess-9")

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if dropped != "sess-9" {
		t.Fatalf("expected sess-9 to be dropped, got %q", dropped)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got %+v", cookies)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, testCookie)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), rec)
	c.Set(middleware.UserKey, &domain.User{ID: "u1", Role: domain.RoleViewer, Status: domain.StatusActive})

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp struct {
		User        domain.User `json:"user"`
		Permissions []string    `json:"permissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	want := []string{"articles.view", "categories.view", "media.view"}
	if strings.Join(resp.Permissions, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, resp.Permissions)
	}
}

func TestAuthHandler_Me_WithoutGuard(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubAuthService{}, testCookie)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), httptest.NewRecorder())
	if got := httpStatus(t, h.Me(c)); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
}

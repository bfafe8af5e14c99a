package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/akhbar-news/backoffice/internal/api/handler"
	"github.com/akhbar-news/backoffice/internal/api/middleware"
	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
	"github.com/akhbar-news/backoffice/internal/core/service"
	"github.com/akhbar-news/backoffice/internal/infrastructure/db/memory"
)

const testSecret = "router-test-secret"

type testServer struct {
	e        *echo.Echo
	users    *service.UserService
	sessions *memory.SessionStore
	events   *memory.AccessEventStore
	root     *domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	repo := memory.NewUserRepository()
	sessions := memory.NewSessionStore()
	events := memory.NewAccessEventStore(100, log)

	users := service.NewUserService(repo, bcrypt.MinCost, log)
	auth := service.NewAuthService(repo, sessions, service.AuthConfig{JWTSecret: testSecret, SessionTTL: time.Hour}, log)

	if _, err := users.EnsureSuperAdmin(context.Background(), "root@example.com", "root-password"); err != nil {
		t.Fatalf("seed super admin: %v", err)
	}
	root, err := repo.FindByEmail(context.Background(), "root@example.com")
	if err != nil {
		t.Fatalf("load super admin: %v", err)
	}

	resolver := middleware.ChainResolver{
		middleware.NewSessionResolver(sessions, middleware.DefaultSessionCookie),
		middleware.NewBearerResolver(testSecret, sessions),
	}
	gate := middleware.NewGate(resolver, repo, recorderFunc(func(ev *domain.AccessEvent) {
		_ = events.Record(context.Background(), ev)
	}), log)

	reg := prometheus.NewRegistry()
	e := NewRouter(Dependencies{
		Log:         log,
		Gate:        gate,
		AuthService: auth,
		UserService: users,
		Events:      events,
		Cookie:      handler.CookieConfig{Name: middleware.DefaultSessionCookie},
		Registerer:  reg,
		Gatherer:    reg,
	})
	return &testServer{e: e, users: users, sessions: sessions, events: events, root: root}
}

type recorderFunc func(*domain.AccessEvent)

func (f recorderFunc) Enqueue(ev *domain.AccessEvent) { f(ev) }

func (s *testServer) addUser(t *testing.T, email string, role domain.Role) {
	t.Helper()
	_, err := s.users.Create(context.Background(), s.root, ports.CreateUserInput{
		Email:    email,
		Username: strings.Split(email, "@")[0],
		Password: "password-123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// login returns the session cookie and bearer token for the given account.
func (s *testServer) login(t *testing.T, email, password string) (*http.Cookie, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"`+email+`","password":"`+password+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.DefaultSessionCookie {
			return ck, resp.Token
		}
	}
	t.Fatalf("login %s: no session cookie", email)
	return nil, ""
}

func get(path string, ck *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	return req
}

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return m
}

func TestRouter_MissingSession(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(get("/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := body(t, rec)["code"]; got != middleware.CodeAuthRequired {
		t.Fatalf("expected AUTH_REQUIRED, got %v", got)
	}
}

func TestRouter_LoginAndIntrospect(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "editor@example.com", domain.RoleEditor)
	ck, _ := s.login(t, "editor@example.com", "password-123")

	rec := s.do(get("/api/permissions/me", ck))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := body(t, rec)["role"]; got != "editor" {
		t.Fatalf("expected editor, got %v", got)
	}

	rec = s.do(get("/api/roles", ck))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_ViewerDeniedUserList(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "viewer@example.com", domain.RoleViewer)
	ck, _ := s.login(t, "viewer@example.com", "password-123")

	rec := s.do(get("/api/users", ck))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	b := body(t, rec)
	if b["code"] != middleware.CodePermissionDenied || b["userRole"] != "viewer" {
		t.Fatalf("unexpected body: %v", b)
	}

	events, err := s.events.Recent(context.Background(), 10)
	if err != nil || len(events) != 1 || events[0].Code != middleware.CodePermissionDenied {
		t.Fatalf("expected one recorded denial, got %+v (%v)", events, err)
	}
}

func TestRouter_RoleChangeNeedsAdminRole(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "moderator@example.com", domain.RoleModerator)
	ck, _ := s.login(t, "moderator@example.com", "password-123")

	req := httptest.NewRequest(http.MethodPatch, "/api/users/"+s.root.ID+"/role", strings.NewReader(`{"role":"viewer"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(ck)
	rec := s.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if got := body(t, rec)["code"]; got != middleware.CodePermissionDenied {
		t.Fatalf("expected PERMISSION_DENIED, got %v", got)
	}
}

func TestRouter_BearerTokenAndLogout(t *testing.T) {
	s := newTestServer(t)
	ck, token := s.login(t, "root@example.com", "root-password")

	req := get("/api/users", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	if rec := s.do(req); rec.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200, got %d", rec.Code)
	}

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logout.AddCookie(ck)
	if rec := s.do(logout); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	if rec := s.do(get("/auth/me", ck)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("cookie after logout: expected 401, got %d", rec.Code)
	}
	req = get("/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	if rec := s.do(req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token after logout: expected 401, got %d", rec.Code)
	}
}

func TestRouter_SuspendedUserLosesAccess(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "author@example.com", domain.RoleAuthor)
	ck, _ := s.login(t, "author@example.com", "password-123")

	list, err := s.users.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var authorID string
	for _, u := range list {
		if u.Email == "author@example.com" {
			authorID = u.ID
		}
	}
	if _, err := s.users.ChangeStatus(context.Background(), s.root, authorID, domain.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	rec := s.do(get("/auth/me", ck))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if got := body(t, rec)["code"]; got != middleware.CodeAccountInactive {
		t.Fatalf("expected ACCOUNT_INACTIVE, got %v", got)
	}
}

func TestRouter_SecurityHeadersAndHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(get("/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", rec.Header().Get("X-Frame-Options"))
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected nosniff header")
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(get("/api/articles", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

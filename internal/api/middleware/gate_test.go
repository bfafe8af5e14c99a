package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
	"github.com/akhbar-news/backoffice/internal/infrastructure/db/memory"
)

type gateFixture struct {
	gate     *Gate
	users    *memory.UserRepository
	sessions *memory.SessionStore
	recorder *captureRecorder
}

type captureRecorder struct {
	mu     sync.Mutex
	events []*domain.AccessEvent
}

func (r *captureRecorder) Enqueue(ev *domain.AccessEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *captureRecorder) all() []*domain.AccessEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.AccessEvent(nil), r.events...)
}

// brokenRepo fails or panics on every lookup.
type brokenRepo struct {
	ports.UserRepository
	err   error
	panic bool
}

func (r *brokenRepo) FindByID(context.Context, string) (*domain.User, error) {
	if r.panic {
		panic("index out of range")
	}
	return nil, r.err
}

func (r *brokenRepo) FindByEmail(context.Context, string) (*domain.User, error) {
	if r.panic {
		panic("index out of range")
	}
	return nil, r.err
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	users := memory.NewUserRepository()
	sessions := memory.NewSessionStore()
	rec := &captureRecorder{}
	resolver := NewSessionResolver(sessions, "")
	return &gateFixture{
		gate:     NewGate(resolver, users, rec, zerolog.Nop()),
		users:    users,
		sessions: sessions,
		recorder: rec,
	}
}

// login creates a user with the given role and status and returns a session cookie value.
func (f *gateFixture) login(t *testing.T, email string, role domain.Role, status domain.UserStatus) (*domain.User, string) {
	t.Helper()
	u, err := f.users.Create(context.Background(), &domain.User{
		Email:    email,
		Username: email,
		Role:     role,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sid := "sess-" + u.ID
	err = f.sessions.Save(context.Background(), &ports.Session{ID: sid, UserID: u.ID, Email: u.Email}, time.Hour)
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	return u, sid
}

func newRequest(sessionID string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/articles/1", nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: sessionID})
	}
	return req, httptest.NewRecorder()
}

func run(t *testing.T, mw echo.MiddlewareFunc, req *http.Request, rec *httptest.ResponseRecorder) (bool, echo.Context) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(req, rec)
	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return called, c
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, _ := it.(string)
		out = append(out, s)
	}
	return out
}

func TestGate_MissingSession(t *testing.T) {
	f := newGateFixture(t)
	req, rec := newRequest("")

	called, _ := run(t, f.gate.RequireAuthenticated(), req, rec)
	if called {
		t.Fatalf("next handler should not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != CodeAuthRequired {
		t.Fatalf("expected AUTH_REQUIRED, got %v", body["code"])
	}
	if body["accessDenied"] != true {
		t.Fatalf("expected accessDenied=true")
	}
	if _, ok := body["missing"]; ok {
		t.Fatalf("missing must be absent for AUTH_REQUIRED")
	}
}

func TestGate_UnknownSession(t *testing.T) {
	f := newGateFixture(t)
	req, rec := newRequest("does-not-exist")

	run(t, f.gate.RequireAuthenticated(), req, rec)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["code"]; got != CodeAuthRequired {
		t.Fatalf("expected AUTH_REQUIRED, got %v", got)
	}
}

func TestGate_UserNotFound(t *testing.T) {
	f := newGateFixture(t)
	u, sid := f.login(t, "gone@example.com", domain.RoleEditor, domain.StatusActive)
	if err := f.users.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	req, rec := newRequest(sid)
	run(t, f.gate.RequireAuthenticated(), req, rec)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["code"]; got != CodeUserNotFound {
		t.Fatalf("expected USER_NOT_FOUND, got %v", got)
	}
}

func TestGate_ViewerPermissionDenied(t *testing.T) {
	f := newGateFixture(t)
	_, sid := f.login(t, "viewer@example.com", domain.RoleViewer, domain.StatusActive)

	req, rec := newRequest(sid)
	called, _ := run(t, f.gate.RequirePermissions(domain.PermArticlesDelete), req, rec)
	if called {
		t.Fatalf("next handler should not run")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != CodePermissionDenied {
		t.Fatalf("expected PERMISSION_DENIED, got %v", body["code"])
	}
	missing := stringList(body["missing"])
	if len(missing) != 1 || missing[0] != "articles.delete" {
		t.Fatalf("unexpected missing: %v", missing)
	}
	required := stringList(body["required"])
	if len(required) != 1 || required[0] != "articles.delete" {
		t.Fatalf("unexpected required: %v", required)
	}
	if body["userRole"] != "viewer" {
		t.Fatalf("expected userRole viewer, got %v", body["userRole"])
	}

	events := f.recorder.all()
	if len(events) != 1 || events[0].Code != CodePermissionDenied || events[0].Role != domain.RoleViewer {
		t.Fatalf("expected one recorded PERMISSION_DENIED event, got %+v", events)
	}
	if events[0].ID == "" {
		t.Fatalf("event id not set")
	}
}

func TestGate_AuthorRoleDenied(t *testing.T) {
	f := newGateFixture(t)
	_, sid := f.login(t, "author@example.com", domain.RoleAuthor, domain.StatusActive)

	req, rec := newRequest(sid)
	run(t, f.gate.RequireRoles(domain.RoleAdmin, domain.RoleSuperAdmin), req, rec)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != CodeRoleDenied {
		t.Fatalf("expected ROLE_DENIED, got %v", body["code"])
	}
	required := stringList(body["required"])
	if len(required) != 2 || required[0] != "admin" || required[1] != "super_admin" {
		t.Fatalf("unexpected required: %v", required)
	}
	if body["userRole"] != "author" {
		t.Fatalf("expected userRole author, got %v", body["userRole"])
	}
	if _, ok := body["missing"]; ok {
		t.Fatalf("missing must be absent for ROLE_DENIED")
	}
}

func TestGate_EditorAllowed(t *testing.T) {
	f := newGateFixture(t)
	_, sid := f.login(t, "editor@example.com", domain.RoleEditor, domain.StatusActive)

	req, rec := newRequest(sid)
	called, c := run(t, f.gate.RequirePermissions(domain.PermArticlesPublish), req, rec)
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	user, ok := c.Get(UserKey).(*domain.User)
	if !ok || user.Role != domain.RoleEditor {
		t.Fatalf("expected editor in context, got %+v", c.Get(UserKey))
	}
	if c.Get(SessionIDKey) != sid {
		t.Fatalf("session id not set in context")
	}
	if n := len(f.recorder.all()); n != 0 {
		t.Fatalf("allowed requests must not be recorded, got %d", n)
	}
}

func TestGate_AllRequiredNotAny(t *testing.T) {
	f := newGateFixture(t)
	_, sid := f.login(t, "author@example.com", domain.RoleAuthor, domain.StatusActive)

	req, rec := newRequest(sid)
	run(t, f.gate.RequirePermissions(domain.PermArticlesCreate, domain.PermArticlesPublish), req, rec)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	missing := stringList(decodeBody(t, rec)["missing"])
	if len(missing) != 1 || missing[0] != "articles.publish" {
		t.Fatalf("unexpected missing: %v", missing)
	}
}

func TestGate_InactiveAccountsFailClosed(t *testing.T) {
	for _, status := range []domain.UserStatus{domain.StatusSuspended, domain.StatusInactive} {
		t.Run(string(status), func(t *testing.T) {
			f := newGateFixture(t)
			_, sid := f.login(t, "boss@example.com", domain.RoleSuperAdmin, status)

			req, rec := newRequest(sid)
			called, _ := run(t, f.gate.RequirePermissions(domain.PermArticlesView), req, rec)
			if called {
				t.Fatalf("next handler should not run")
			}
			if rec.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", rec.Code)
			}
			if got := decodeBody(t, rec)["code"]; got != CodeAccountInactive {
				t.Fatalf("expected ACCOUNT_INACTIVE, got %v", got)
			}
		})
	}
}

func TestGate_LookupErrorFailsClosed(t *testing.T) {
	sessions := memory.NewSessionStore()
	_ = sessions.Save(context.Background(), &ports.Session{ID: "s1", UserID: "u1"}, time.Hour)
	repo := &brokenRepo{err: errors.New("connection refused")}
	gate := NewGate(NewSessionResolver(sessions, ""), repo, nil, zerolog.Nop())

	req, rec := newRequest("s1")
	called, _ := run(t, gate.RequireAuthenticated(), req, rec)
	if called {
		t.Fatalf("next handler should not run")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != CodeAuthError {
		t.Fatalf("expected AUTH_ERROR, got %v", body["code"])
	}
	if body["error"] != "Authorization check failed" {
		t.Fatalf("internal detail leaked: %v", body["error"])
	}
}

func TestGate_PanicFailsClosed(t *testing.T) {
	sessions := memory.NewSessionStore()
	_ = sessions.Save(context.Background(), &ports.Session{ID: "s1", UserID: "u1"}, time.Hour)
	gate := NewGate(NewSessionResolver(sessions, ""), &brokenRepo{panic: true}, nil, zerolog.Nop())

	req, rec := newRequest("s1")
	called, _ := run(t, gate.RequirePermissions(domain.PermArticlesView), req, rec)
	if called {
		t.Fatalf("next handler should not run")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGate_CancelledRequestFailsClosed(t *testing.T) {
	f := newGateFixture(t)
	_, sid := f.login(t, "editor@example.com", domain.RoleEditor, domain.StatusActive)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, rec := newRequest(sid)
	req = req.WithContext(ctx)

	called, _ := run(t, f.gate.RequireAuthenticated(), req, rec)
	if called {
		t.Fatalf("next handler should not run")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGate_ResolverErrorFailsClosed(t *testing.T) {
	f := newGateFixture(t)
	resolver := IdentityResolverFunc(func(echo.Context) (*ports.Identity, error) {
		return nil, errors.New("session backend down")
	})
	gate := NewGate(resolver, f.users, nil, zerolog.Nop())

	req, rec := newRequest("")
	run(t, gate.RequireAuthenticated(), req, rec)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGate_Idempotent(t *testing.T) {
	f := newGateFixture(t)
	_, sid := f.login(t, "viewer@example.com", domain.RoleViewer, domain.StatusActive)
	mw := f.gate.RequirePermissions(domain.PermArticlesDelete, domain.PermArticlesView)

	var bodies []string
	for i := 0; i < 2; i++ {
		req, rec := newRequest(sid)
		run(t, mw, req, rec)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("run %d: expected 403, got %d", i, rec.Code)
		}
		bodies = append(bodies, rec.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("decisions differ:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestGate_ReadsCurrentRole(t *testing.T) {
	f := newGateFixture(t)
	u, sid := f.login(t, "author@example.com", domain.RoleAuthor, domain.StatusActive)
	mw := f.gate.RequirePermissions(domain.PermArticlesPublish)

	req, rec := newRequest(sid)
	run(t, mw, req, rec)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before promotion, got %d", rec.Code)
	}

	if err := f.users.UpdateRole(context.Background(), u.ID, domain.RoleEditor); err != nil {
		t.Fatalf("update role: %v", err)
	}
	req, rec = newRequest(sid)
	called, _ := run(t, mw, req, rec)
	if !called {
		t.Fatalf("expected access after promotion, got %d", rec.Code)
	}
}

func TestGate_ArabicMessage(t *testing.T) {
	f := newGateFixture(t)
	req, rec := newRequest("")
	req.Header.Set("Accept-Language", "ar-EG,ar;q=0.9,en;q=0.5")

	run(t, f.gate.RequireAuthenticated(), req, rec)
	body := decodeBody(t, rec)
	if body["error"] != messages[CodeAuthRequired][supportedLanguages[1]] {
		t.Fatalf("expected arabic message, got %v", body["error"])
	}
	if body["code"] != CodeAuthRequired {
		t.Fatalf("code must not be localized, got %v", body["code"])
	}
}

func TestGate_EmptyRequirementPanics(t *testing.T) {
	f := newGateFixture(t)
	cases := map[string]func(){
		"permissions": func() { f.gate.RequirePermissions() },
		"roles":       func() { f.gate.RequireRoles() },
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic for an empty %s guard", name)
				}
			}()
			build()
		})
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

func TestValidator_AcceptsEveryDomainRoleAndStatus(t *testing.T) {
	v := NewValidator()
	for _, r := range domain.AllRoles() {
		if err := v.Validate(&changeRoleRequest{Role: string(r)}); err != nil {
			t.Errorf("role %q rejected: %v", r, err)
		}
	}
	for _, s := range domain.AllUserStatuses() {
		if err := v.Validate(&changeStatusRequest{Status: string(s)}); err != nil {
			t.Errorf("status %q rejected: %v", s, err)
		}
	}
}

func TestValidator_RejectsUnknownValues(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&changeRoleRequest{Role: "owner"})
	if err == nil || !strings.Contains(err.Error(), "role must be one of: super_admin, admin") {
		t.Fatalf("unexpected role error: %v", err)
	}

	err = v.Validate(&changeStatusRequest{Status: "banned"})
	if err == nil || !strings.Contains(err.Error(), "status must be one of: active, inactive, suspended") {
		t.Fatalf("unexpected status error: %v", err)
	}

	// Role values are case sensitive.
	if err := v.Validate(&changeRoleRequest{Role: "Admin"}); err == nil {
		t.Fatalf("expected mixed-case role to be rejected")
	}
}

func TestUserHandler_ChangeRole_UnknownRole(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubUserService{
		changeRoleFn: func(context.Context, *domain.User, string, domain.Role) (*domain.User, error) {
			t.Fatalf("service must not be called for an unknown role")
			return nil, nil
		},
	})

	c := actorContext(e, jsonRequest(http.MethodPatch, "/", `{"role":"owner"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("u7")

	err := h.ChangeRole(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if msg, _ := he.Message.(string); !strings.Contains(msg, "role must be one of") {
		t.Fatalf("unexpected message: %v", he.Message)
	}
}

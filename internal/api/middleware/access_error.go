package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

// Rejection codes. Clients branch on these, never on the message text.
const (
	CodeAuthRequired     = "AUTH_REQUIRED"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeAccountInactive  = "ACCOUNT_INACTIVE"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeRoleDenied       = "ROLE_DENIED"
	CodeAuthError        = "AUTH_ERROR"
)

// AccessError is a gate rejection. Err holds the internal cause of an
// AUTH_ERROR and is never written to the client.
type AccessError struct {
	Status   int
	Code     string
	Required []string
	Missing  []domain.Permission
	UserRole domain.Role
	Err      error
}

func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *AccessError) Unwrap() error { return e.Err }

// AccessErrorBody is the wire shape of every rejection.
type AccessErrorBody struct {
	Error        string              `json:"error"`
	Code         string              `json:"code"`
	AccessDenied bool                `json:"accessDenied"`
	Required     []string            `json:"required,omitempty"`
	Missing      []domain.Permission `json:"missing,omitempty"`
	UserRole     domain.Role         `json:"userRole,omitempty"`
} // @name AccessError

// Body renders the error for the given language.
func (e *AccessError) Body(lang language.Tag) AccessErrorBody {
	body := AccessErrorBody{
		Error:        message(e.Code, lang),
		Code:         e.Code,
		AccessDenied: true,
	}
	switch e.Code {
	case CodePermissionDenied:
		body.Required = e.Required
		body.Missing = e.Missing
		body.UserRole = e.UserRole
	case CodeRoleDenied:
		body.Required = e.Required
		body.UserRole = e.UserRole
	}
	return body
}

// WriteAccessError writes e as JSON, localized from the request's
// Accept-Language header.
func WriteAccessError(c echo.Context, e *AccessError) error {
	lang := Negotiate(c.Request().Header.Get("Accept-Language"))
	return c.JSON(e.Status, e.Body(lang))
}

func errAuthRequired() *AccessError {
	return &AccessError{Status: http.StatusUnauthorized, Code: CodeAuthRequired}
}

func errUserNotFound() *AccessError {
	return &AccessError{Status: http.StatusUnauthorized, Code: CodeUserNotFound}
}

func errAccountInactive(role domain.Role) *AccessError {
	return &AccessError{Status: http.StatusForbidden, Code: CodeAccountInactive, UserRole: role}
}

func errPermissionDenied(role domain.Role, required []domain.Permission, missing []domain.Permission) *AccessError {
	req := make([]string, len(required))
	for i, p := range required {
		req[i] = p.String()
	}
	return &AccessError{
		Status:   http.StatusForbidden,
		Code:     CodePermissionDenied,
		Required: req,
		Missing:  missing,
		UserRole: role,
	}
}

func errRoleDenied(role domain.Role, allowed []domain.Role) *AccessError {
	req := make([]string, len(allowed))
	for i, r := range allowed {
		req[i] = r.String()
	}
	return &AccessError{
		Status:   http.StatusForbidden,
		Code:     CodeRoleDenied,
		Required: req,
		UserRole: role,
	}
}

func errInternal(cause error) *AccessError {
	return &AccessError{Status: http.StatusInternalServerError, Code: CodeAuthError, Err: cause}
}

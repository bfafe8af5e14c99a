package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

// echoValidator adapts go-playground/validator to echo.Validator. Besides the
// built-in tags it understands `role` and `user_status`, which accept exactly
// the values the domain package defines.
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns a validator with the domain tags registered.
func NewValidator() *echoValidator {
	v := validator.New()
	mustRegister(v, "role", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseRole(fl.Field().String())
		return ok
	})
	mustRegister(v, "user_status", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseUserStatus(fl.Field().String())
		return ok
	})
	return &echoValidator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "role":
		return fmt.Sprintf("%s must be one of: %s", field, joinRoles())
	case "user_status":
		return fmt.Sprintf("%s must be one of: %s", field, joinStatuses())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func joinRoles() string {
	roles := domain.AllRoles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return strings.Join(out, ", ")
}

func joinStatuses() string {
	statuses := domain.AllUserStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return strings.Join(out, ", ")
}

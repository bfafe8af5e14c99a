package rbac

import (
	"fmt"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

// Decision is the outcome of one authorization evaluation. It is computed per
// request and never cached.
type Decision struct {
	Allowed bool
	Missing []domain.Permission
	Reason  string
}

// Evaluate checks role against perms with all-required semantics.
func Evaluate(role domain.Role, perms ...domain.Permission) Decision {
	missing := MissingPermissions(role, perms...)
	if len(missing) == 0 {
		return Decision{Allowed: true, Reason: "all required permissions granted"}
	}
	return Decision{
		Allowed: false,
		Missing: missing,
		Reason:  fmt.Sprintf("role %q lacks %d of %d required permissions", role, len(missing), len(perms)),
	}
}

// EvaluateRoles checks role against an any-of list of roles.
func EvaluateRoles(role domain.Role, allowed ...domain.Role) Decision {
	for _, r := range allowed {
		if r == role {
			return Decision{Allowed: true, Reason: "role allowed"}
		}
	}
	return Decision{Allowed: false, Reason: fmt.Sprintf("role %q not in allowed set", role)}
}

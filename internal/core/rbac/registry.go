// Package rbac holds the static role -> permission table and the pure
// membership checks built on it.
//
// The table is flat: roles do not inherit from one another, so permissions that
// several roles share are listed once per role. It is built at package init and
// never handed out by reference; every lookup returns a fresh slice.
package rbac

import (
	"github.com/akhbar-news/backoffice/internal/core/domain"
)

type permissionSet map[domain.Permission]struct{}

var rolePermissions = buildTable(map[domain.Role][]domain.Permission{
	domain.RoleSuperAdmin: domain.AllPermissions(),
	domain.RoleAdmin: {
		domain.PermArticlesView, domain.PermArticlesCreate, domain.PermArticlesEdit,
		domain.PermArticlesDelete, domain.PermArticlesPublish,
		domain.PermUsersView, domain.PermUsersCreate, domain.PermUsersEdit,
		domain.PermCategoriesView, domain.PermCategoriesCreate, domain.PermCategoriesEdit,
		domain.PermCategoriesDelete,
		domain.PermMediaView, domain.PermMediaUpload, domain.PermMediaDelete,
		domain.PermCommentsView, domain.PermCommentsModerate, domain.PermCommentsDelete,
		domain.PermSettingsView, domain.PermSettingsEdit,
		domain.PermAnalyticsView, domain.PermAnalyticsExport,
		domain.PermSystemLogs,
	},
	domain.RoleEditor: {
		domain.PermArticlesView, domain.PermArticlesCreate, domain.PermArticlesEdit,
		domain.PermArticlesDelete, domain.PermArticlesPublish,
		domain.PermCategoriesView, domain.PermCategoriesCreate, domain.PermCategoriesEdit,
		domain.PermMediaView, domain.PermMediaUpload, domain.PermMediaDelete,
		domain.PermCommentsView, domain.PermCommentsModerate,
		domain.PermAnalyticsView,
	},
	domain.RoleAuthor: {
		domain.PermArticlesView, domain.PermArticlesCreate, domain.PermArticlesEdit,
		domain.PermCategoriesView,
		domain.PermMediaView, domain.PermMediaUpload,
		domain.PermCommentsView,
	},
	domain.RoleModerator: {
		domain.PermArticlesView,
		domain.PermUsersView,
		domain.PermMediaView,
		domain.PermCommentsView, domain.PermCommentsModerate, domain.PermCommentsDelete,
	},
	domain.RoleViewer: {
		domain.PermArticlesView,
		domain.PermCategoriesView,
		domain.PermMediaView,
	},
})

// buildTable turns the literal table into sets and panics on anything that would
// break the registry invariants: a role without permissions, a duplicate entry,
// or a role missing from the table.
func buildTable(src map[domain.Role][]domain.Permission) map[domain.Role]permissionSet {
	table := make(map[domain.Role]permissionSet, len(src))
	for _, role := range domain.AllRoles() {
		perms, ok := src[role]
		if !ok || len(perms) == 0 {
			panic("rbac: no permissions defined for role " + string(role))
		}
		set := make(permissionSet, len(perms))
		for _, p := range perms {
			if _, dup := set[p]; dup {
				panic("rbac: duplicate permission " + string(p) + " for role " + string(role))
			}
			set[p] = struct{}{}
		}
		table[role] = set
	}
	return table
}

// PermissionsForRole returns the role's permissions in universe order. An
// unrecognized role yields an empty, non-nil slice.
func PermissionsForRole(role domain.Role) []domain.Permission {
	set, ok := rolePermissions[role]
	if !ok {
		return []domain.Permission{}
	}
	out := make([]domain.Permission, 0, len(set))
	for _, p := range domain.AllPermissions() {
		if _, ok := set[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// RoleHasPermission reports whether role grants p.
func RoleHasPermission(role domain.Role, p domain.Permission) bool {
	_, ok := rolePermissions[role][p]
	return ok
}

// RoleHasAnyPermission reports whether role grants at least one of perms.
// An empty request is never satisfied.
func RoleHasAnyPermission(role domain.Role, perms ...domain.Permission) bool {
	for _, p := range perms {
		if RoleHasPermission(role, p) {
			return true
		}
	}
	return false
}

// RoleHasAllPermissions reports whether role grants every one of perms.
func RoleHasAllPermissions(role domain.Role, perms ...domain.Permission) bool {
	return len(MissingPermissions(role, perms...)) == 0
}

// MissingPermissions returns the requested permissions role does not grant, in
// request order and without repeats.
func MissingPermissions(role domain.Role, perms ...domain.Permission) []domain.Permission {
	var missing []domain.Permission
	seen := make(map[domain.Permission]struct{}, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		if !RoleHasPermission(role, p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// Matrix returns the full role -> permissions table, used by the admin UI to
// build permission pickers.
func Matrix() map[domain.Role][]domain.Permission {
	out := make(map[domain.Role][]domain.Permission, len(rolePermissions))
	for _, role := range domain.AllRoles() {
		out[role] = PermissionsForRole(role)
	}
	return out
}

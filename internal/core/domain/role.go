package domain

// Role identifies a class of back-office operator.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleAuthor     Role = "author"
	RoleModerator  Role = "moderator"
	RoleViewer     Role = "viewer"
)

var allRoles = [...]Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleEditor,
	RoleAuthor,
	RoleModerator,
	RoleViewer,
}

// AllRoles returns every role, most privileged first.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles[:])
	return out
}

// ParseRole converts an external value (session record, DB row, request body)
// into a Role. The second return value is false for anything outside the enumeration.
func ParseRole(s string) (Role, bool) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) String() string { return string(r) }

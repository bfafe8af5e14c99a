package domain

import "time"

// UserStatus is the account health flag checked on every authorized request.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

var allStatuses = []UserStatus{StatusActive, StatusInactive, StatusSuspended}

// AllUserStatuses returns every account status. The slice is a copy.
func AllUserStatuses() []UserStatus {
	return append([]UserStatus(nil), allStatuses...)
}

// ParseUserStatus converts an external value into a UserStatus.
func ParseUserStatus(s string) (UserStatus, bool) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// User models a back-office operator as held by the identity store.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsActive reports whether the account may pass the authorization gate.
func (u *User) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

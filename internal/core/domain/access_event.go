package domain

import "time"

// AccessEvent records a gate decision that did not end in a plain allow.
type AccessEvent struct {
	ID       string       `json:"id" bson:"_id"`
	UserID   string       `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Email    string       `json:"email,omitempty" bson:"email,omitempty"`
	Role     Role         `json:"role,omitempty" bson:"role,omitempty"`
	Code     string       `json:"code" bson:"code"`
	Status   int          `json:"status" bson:"status"`
	Method   string       `json:"method" bson:"method"`
	Path     string       `json:"path" bson:"path"`
	Required []string     `json:"required,omitempty" bson:"required,omitempty"`
	Missing  []Permission `json:"missing,omitempty" bson:"missing,omitempty"`
	At       time.Time    `json:"at" bson:"at"`
}

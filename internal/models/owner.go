package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Owner is the identity projection the core depends on. Rows are created by
// registration (outside this service) and are never mutated here.
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

// Principal is the resolved caller of a request.
type Principal struct {
	OwnerID  int64
	Username string
	FullName string
	Email    string
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

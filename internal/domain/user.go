package domain

import (
	"strings"
	"time"
)

// Role is the lowercase role name used throughout the client.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes a role name from any casing ("ADMIN" -> "admin").
// Unknown names are returned lowercased and fail Valid.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// Backend returns the role name as the backend spells it ("STAFF").
func (r Role) Backend() string {
	return strings.ToUpper(string(r))
}

// User is the client's view of an account.
type User struct {
	ID        ID        `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasRole reports whether the user has any of the given roles.
func (u User) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}

	return false
}

// UserPayload is a user as the backend encodes it.
type UserPayload struct {
	ID          ID        `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	PhoneNumber string    `json:"phoneNumber"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User converts the payload into a User, lowercasing the role.
func (p UserPayload) User() User {
	return User{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.FullName,
		Phone:     p.PhoneNumber,
		Role:      ParseRole(p.Role),
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// UserStats counts accounts for the admin dashboard.
type UserStats struct {
	Total     int `json:"total"`
	Customers int `json:"customers"`
	Staff     int `json:"staff"`
	Admins    int `json:"admins"`
	Active    int `json:"active"`
	Inactive  int `json:"inactive"`
}

// Package guard decides whether the current user may reach a view.
package guard

import (
	"github.com/mkrupp/storefront/internal/domain"
)

const (
	// LoginPath is where unauthenticated users are sent.
	LoginPath = "/login"
	// HomePath is where users lacking a role are sent.
	HomePath = "/"
)

// Decision is the outcome of a guard. When Allowed is false, Redirect names
// where to send the user and Err says why.
type Decision struct {
	Allowed  bool
	Redirect string
	Err      error
}

// Allow is the decision of a guard that passes.
//
//nolint:gochecknoglobals
var Allow = Decision{Allowed: true}

// RequireAuth allows any signed-in user.
func RequireAuth(user *domain.User) Decision {
	if user == nil {
		return Decision{Redirect: LoginPath, Err: domain.ErrUnauthenticated}
	}

	return Allow
}

// RequireRole allows signed-in users holding one of roles. Without roles it
// behaves like RequireAuth.
func RequireRole(user *domain.User, roles ...domain.Role) Decision {
	if d := RequireAuth(user); !d.Allowed {
		return d
	}

	if len(roles) > 0 && !user.HasRole(roles...) {
		return Decision{Redirect: HomePath, Err: domain.ErrForbidden}
	}

	return Allow
}

// HomeFor returns the landing path of a role.
func HomeFor(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "/admin"
	case domain.RoleStaff:
		return "/staff"
	default:
		return HomePath
	}
}

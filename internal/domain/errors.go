package domain

import "errors"

var (
	// ErrNotFound is returned when the backend has no resource with the given ID,
	// or the caller is not allowed to see it.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when an operation needs a session and there is none.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the signed-in user lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenMissing is returned when the backend accepts a login without issuing a token.
	ErrTokenMissing = errors.New("token missing from login response")
	// ErrValidation is returned when input is rejected before any request is made.
	ErrValidation = errors.New("validation failed")
	// ErrEmptyCart is returned when checking out a cart without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrChecklistIncomplete is returned when completing an order whose items are not all checked.
	ErrChecklistIncomplete = errors.New("checklist incomplete")
	// ErrRoleNotAssignable is returned when promoting a user to a role that cannot be granted.
	ErrRoleNotAssignable = errors.New("role not assignable")
)

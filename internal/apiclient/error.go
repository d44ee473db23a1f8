package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/storefront/internal/domain"
)

// ErrResponseTooLarge is returned when a download exceeds Config.MaxDownloadBytes.
var ErrResponseTooLarge = errors.New("response too large")

// Error is a rejection reported by the backend, either as a non-2xx status
// or as a {"success": false} envelope.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is maps well-known statuses onto the domain's sentinel errors.
func (e *Error) Is(target error) bool {
	switch e.Status {
	case http.StatusUnauthorized:
		return target == domain.ErrUnauthenticated
	case http.StatusForbidden:
		return target == domain.ErrForbidden
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	default:
		return false
	}
}

func newStatusError(status int, body map[string]any) *Error {
	if msg := stringField(body, "message"); msg != "" {
		return &Error{Status: status, Message: msg}
	}

	if msg := stringField(body, "error"); msg != "" {
		return &Error{Status: status, Message: msg}
	}

	return &Error{Status: status, Message: fmt.Sprintf("Request failed with status %d", status)}
}

func newSemanticError(status int, body map[string]any) *Error {
	if msg := stringField(body, "message"); msg != "" {
		return &Error{Status: status, Message: msg}
	}

	return &Error{Status: status, Message: "Request failed"}
}

func stringField(body map[string]any, key string) string {
	s, _ := body[key].(string)

	return s
}

package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const AuthorizationHeader = "Authorization"

// TokenSource yields the bearer token for the current session.
// An empty token with a nil error means the request goes out anonymously.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// AuthorizingTransport attaches "Authorization: Bearer <token>" to requests
// for host when the token source has a token. Requests to any other host,
// including redirects away from host, go out without it. A caller-provided
// Authorization header is never overwritten.
func AuthorizingTransport(next http.RoundTripper, tokens TokenSource, host string) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(AuthorizationHeader) != "" || !strings.EqualFold(r.URL.Host, host) {
			return next.RoundTrip(r)
		}

		token, err := tokens.Token(r.Context())
		if err != nil {
			return nil, fmt.Errorf("token: %w", err)
		}

		if token == "" {
			return next.RoundTrip(r)
		}

		r = r.Clone(r.Context())
		r.Header.Set(AuthorizationHeader, "Bearer "+token)

		return next.RoundTrip(r)
	})
}

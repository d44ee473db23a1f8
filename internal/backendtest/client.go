package backendtest

import (
	"context"
	"testing"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	http_ "github.com/mkrupp/storefront/internal/infra/transport/http"
)

// NewClient returns an API client that talks to the server with token.
// An empty token sends anonymous requests.
func (s *Server) NewClient(t testing.TB, token string) *apiclient.Client {
	t.Helper()

	client, err := apiclient.New(
		apiclient.Config{BaseURL: s.URL},
		http_.TokenSourceFunc(func(context.Context) (string, error) { return token, nil }),
		s.Client().Transport,
	)
	if err != nil {
		t.Fatalf("create api client: %v", err)
	}

	return client
}

// SignIn seeds an account with role and returns a client acting as it.
func (s *Server) SignIn(t testing.TB, email string, role domain.Role) (domain.ID, *apiclient.Client) {
	t.Helper()

	id := s.SeedUser(email, "secret1", email, role)

	return id, s.NewClient(t, s.IssueToken(id))
}

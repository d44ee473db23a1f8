package authsvc_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/backendtest"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/repo/kv"
	"github.com/mkrupp/storefront/internal/svc/authsvc"
)

func setupTestService(t *testing.T) (*authsvc.AuthService, *backendtest.Server, *kv.MemoryStore) {
	t.Helper()

	backend := backendtest.New(t)
	store := kv.NewMemoryStore("inv_")

	client, err := apiclient.New(apiclient.Config{BaseURL: backend.URL}, authsvc.StoredToken(store), backend.Client().Transport)
	require.NoError(t, err)

	return authsvc.NewAuthService(client, store), backend, store
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		email       string
		password    string
		noToken     bool
		wantErr     error
		wantMessage string
	}{
		{
			name:     "successful login",
			email:    "admin@example.com",
			password: "secret1",
		},
		{
			name:     "email is case insensitive",
			email:    "ADMIN@example.com",
			password: "secret1",
		},
		{
			name:        "wrong password",
			email:       "admin@example.com",
			password:    "nope",
			wantErr:     domain.ErrInvalidCredentials,
			wantMessage: "Invalid email or password",
		},
		{
			name:     "accepted without token",
			email:    "admin@example.com",
			password: "secret1",
			noToken:  true,
			wantErr:  domain.ErrTokenMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, backend, _ := setupTestService(t)
			backend.SeedUser("admin@example.com", "secret1", "Ada Admin", domain.RoleAdmin)
			backend.SetLoginWithoutToken(tt.noToken)

			user, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Nil(t, svc.GetSession(context.Background()))

				if tt.wantMessage != "" {
					var authErr *authsvc.AuthError
					require.ErrorAs(t, err, &authErr)
					assert.Equal(t, tt.wantMessage, authErr.Message)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.RoleAdmin, user.Role)
			assert.Equal(t, "Ada Admin", user.Name)

			current := svc.GetCurrentUser(context.Background())
			require.NotNil(t, current)
			assert.Equal(t, domain.RoleAdmin, current.Role, "role must be lowercase")
		})
	}
}

func TestAuthService_LogoutIsUnconditional(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		inject func(*backendtest.Server)
	}{
		{name: "server accepts", inject: func(*backendtest.Server) {}},
		{name: "server rejects", inject: func(b *backendtest.Server) {
			b.Fail(http.MethodPost, "/api/auth/logout", http.StatusInternalServerError, "boom")
		}},
		{name: "network failure", inject: func(b *backendtest.Server) {
			b.FailNetwork(http.MethodPost, "/api/auth/logout")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			svc, backend, store := setupTestService(t)
			backend.SeedUser("c@example.com", "secret1", "Cee", domain.RoleCustomer)

			_, err := svc.Login(ctx, "c@example.com", "secret1")
			require.NoError(t, err)
			require.NotNil(t, svc.GetSession(ctx))

			tt.inject(backend)

			require.NoError(t, svc.Logout(ctx))
			assert.Nil(t, svc.GetSession(ctx))

			for _, key := range []string{kv.KeyAuthToken, kv.KeyAuthUser} {
				has, err := store.Has(ctx, key)
				require.NoError(t, err)
				assert.False(t, has, key)
			}
		})
	}
}

func TestAuthService_GetSessionRequiresBothParts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, store := setupTestService(t)

	require.NoError(t, store.Set(ctx, kv.KeyAuthToken, "tok"))
	assert.Nil(t, svc.GetSession(ctx))
	assert.Nil(t, svc.GetCurrentUser(ctx))

	require.NoError(t, store.Set(ctx, kv.KeyAuthUser, domain.User{ID: "u1", Role: domain.RoleStaff}))
	require.NotNil(t, svc.GetSession(ctx))

	store.SetRaw(kv.KeyAuthUser, []byte("{broken"))
	assert.Nil(t, svc.GetSession(ctx), "unreadable session reads as no session")
}

func TestAuthService_RefreshCurrentUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, backend, _ := setupTestService(t)
	backend.SeedUser("s@example.com", "secret1", "Sam Staff", domain.RoleStaff)

	assert.Nil(t, svc.RefreshCurrentUser(ctx), "no session, nothing to refresh")

	_, err := svc.Login(ctx, "s@example.com", "secret1")
	require.NoError(t, err)

	user := svc.RefreshCurrentUser(ctx)
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleStaff, user.Role)

	backend.Fail(http.MethodGet, "/api/auth/me", http.StatusUnauthorized, "Token expired")

	assert.Nil(t, svc.RefreshCurrentUser(ctx))
	assert.Nil(t, svc.GetSession(ctx), "failed refresh signs out")
}

func TestAuthService_RegisterCustomerDoesNotSignIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := setupTestService(t)

	user, err := svc.RegisterCustomer(ctx, authsvc.RegisterInput{
		Name:     "New Customer",
		Email:    "new@example.com",
		Password: "secret1",
		Phone:    "0812345678",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.Equal(t, "0812345678", user.Phone)
	assert.Nil(t, svc.GetSession(ctx))

	_, err = svc.RegisterCustomer(ctx, authsvc.RegisterInput{
		Name:     "Again",
		Email:    "new@example.com",
		Password: "secret1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email already registered")

	_, err = svc.RegisterCustomer(ctx, authsvc.RegisterInput{Name: "X", Email: "bad", Password: "1"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, backend, _ := setupTestService(t)
	backend.SeedUser("c@example.com", "secret1", "Cee", domain.RoleCustomer)

	_, err := svc.Login(ctx, "c@example.com", "secret1")
	require.NoError(t, err)

	require.ErrorIs(t, svc.ChangePassword(ctx, "secret1", "secret1"), domain.ErrValidation)
	require.Error(t, svc.ChangePassword(ctx, "wrong", "secret2"))
	require.NoError(t, svc.ChangePassword(ctx, "secret1", "secret2"))

	require.NoError(t, svc.Logout(ctx))

	_, err = svc.Login(ctx, "c@example.com", "secret2")
	require.NoError(t, err)
}

func TestAuthService_Token(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, store := setupTestService(t)

	token, err := svc.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Set(ctx, kv.KeyAuthToken, "tok"))

	token, err = svc.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

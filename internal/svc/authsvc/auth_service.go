package authsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
	http_ "github.com/mkrupp/storefront/internal/infra/transport/http"
	"github.com/mkrupp/storefront/internal/repo/kv"
	"github.com/mkrupp/storefront/internal/validation"
)

// AuthError is returned by Login when the backend rejects the credentials.
// It carries the backend's message.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Is(target error) bool {
	return target == domain.ErrInvalidCredentials
}

// RegisterInput carries the fields of a new customer account.
type RegisterInput struct {
	Name     string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phoneNumber,omitempty" validate:"omitempty,phone"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

type loginResponse struct {
	Token       string              `json:"token"`
	AccessToken string              `json:"accessToken"`
	User        *domain.UserPayload `json:"user"`
}

// AuthService owns the client session: the bearer token and the cached user.
// Both are persisted together and read back together; a session with either
// part missing does not exist.
type AuthService struct {
	API   apiclient.API
	Store kv.Store
	Log   logging.Logger
}

var _ http_.TokenSource = (*AuthService)(nil)

// NewAuthService creates a new AuthService.
func NewAuthService(api apiclient.API, store kv.Store) *AuthService {
	return &AuthService{
		API:   api,
		Store: store,
		Log:   logging.GetLogger("svc.authsvc.auth_service"),
	}
}

// Login authenticates against the backend and persists the session.
// Returns an *AuthError when the backend rejects the credentials and
// domain.ErrTokenMissing when it accepts them without issuing a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	var resp loginResponse

	err = s.API.Post(ctx, "/api/auth/login", map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			return nil, &AuthError{Message: apiErr.Message}
		}

		return nil, fmt.Errorf("post login: %w", err)
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}

	if token == "" {
		return nil, domain.ErrTokenMissing
	}

	if resp.User == nil || resp.User.ID == "" {
		return nil, &AuthError{Message: "login response has no user"}
	}

	user := resp.User.User()

	if err := s.saveSession(ctx, token, user); err != nil {
		return nil, err
	}

	return &user, nil
}

// Logout notifies the backend and clears the local session. The backend
// call is best effort; only a failure to clear local state is returned.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.API.Post(ctx, "/api/auth/logout", nil, nil); err != nil {
		s.Log.WarnContext(ctx, "logout request failed", "error", err)
	}

	return s.clearSession(ctx)
}

// GetSession returns the persisted session, or nil if there is none.
func (s *AuthService) GetSession(ctx context.Context) *domain.Session {
	var session domain.Session

	if _, err := s.Store.Get(ctx, kv.KeyAuthToken, &session.Token); err != nil {
		s.Log.WarnContext(ctx, "read session token failed", "error", err)

		return nil
	}

	if _, err := s.Store.Get(ctx, kv.KeyAuthUser, &session.User); err != nil {
		s.Log.WarnContext(ctx, "read session user failed", "error", err)

		return nil
	}

	if !session.Valid() {
		return nil
	}

	return &session
}

// GetCurrentUser returns the cached user of the current session, or nil.
func (s *AuthService) GetCurrentUser(ctx context.Context) *domain.User {
	session := s.GetSession(ctx)
	if session == nil {
		return nil
	}

	return &session.User
}

// RefreshCurrentUser re-fetches the signed-in user from the backend. Any
// failure clears the session and yields nil instead of an error.
func (s *AuthService) RefreshCurrentUser(ctx context.Context) *domain.User {
	session := s.GetSession(ctx)
	if session == nil {
		return nil
	}

	user, err := s.fetchMe(ctx)
	if err != nil {
		s.Log.WarnContext(ctx, "refresh current user failed, signing out", "error", err)

		if err := s.clearSession(ctx); err != nil {
			s.Log.ErrorContext(ctx, "clear session failed", "error", err)
		}

		return nil
	}

	if err := s.Store.Set(ctx, kv.KeyAuthUser, user); err != nil {
		s.Log.ErrorContext(ctx, "cache current user failed", "error", err)
	}

	return &user
}

// RegisterCustomer creates a customer account. It does not sign in; callers
// log in separately with the same credentials.
func (s *AuthService) RegisterCustomer(ctx context.Context, in RegisterInput) (_ *domain.User, err error) {
	defer func() {
		if err != nil {
			s.Log.WarnContext(ctx, "register failed", "email", in.Email, "error", err)
		} else {
			s.Log.DebugContext(ctx, "customer registered", "email", in.Email)
		}
	}()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var raw apiclient.RawBody
	if err := s.API.Post(ctx, "/api/auth/register", in, &raw); err != nil {
		return nil, fmt.Errorf("post register: %w", err)
	}

	var payload domain.UserPayload
	if err := apiclient.Unwrap(raw, "user", &payload); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	user := payload.User()

	return &user, nil
}

// ChangePassword changes the signed-in user's password.
func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	in := changePasswordInput{CurrentPassword: current, NewPassword: next}
	if err := validation.Struct(in); err != nil {
		return err
	}

	if err := s.API.Put(ctx, "/api/auth/change-password", in, nil); err != nil {
		return fmt.Errorf("put change password: %w", err)
	}

	return nil
}

// Token implements TokenSource with the persisted token.
func (s *AuthService) Token(ctx context.Context) (string, error) {
	return StoredToken(s.Store).Token(ctx)
}

func (s *AuthService) fetchMe(ctx context.Context) (domain.User, error) {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/auth/me", &raw); err != nil {
		return domain.User{}, fmt.Errorf("get me: %w", err)
	}

	var payload domain.UserPayload
	if err := apiclient.Unwrap(raw, "user", &payload); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}

	if payload.ID == "" {
		return domain.User{}, fmt.Errorf("decode user: %w", domain.ErrUnauthenticated)
	}

	return payload.User(), nil
}

func (s *AuthService) saveSession(ctx context.Context, token string, user domain.User) error {
	if err := s.Store.Set(ctx, kv.KeyAuthUser, user); err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	if err := s.Store.Set(ctx, kv.KeyAuthToken, token); err != nil {
		// never leave a user without its token behind
		if rmErr := s.Store.Remove(ctx, kv.KeyAuthUser); rmErr != nil {
			s.Log.ErrorContext(ctx, "roll back session user failed", "error", rmErr)
		}

		return fmt.Errorf("store token: %w", err)
	}

	return nil
}

func (s *AuthService) clearSession(ctx context.Context) error {
	if err := s.Store.Remove(ctx, kv.KeyAuthToken, kv.KeyAuthUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	return nil
}

// StoredToken returns a TokenSource reading the session token straight
// from store. An unreadable token is treated as absent.
func StoredToken(store kv.Store) http_.TokenSource {
	return http_.TokenSourceFunc(func(ctx context.Context) (string, error) {
		var token string

		if _, err := store.Get(ctx, kv.KeyAuthToken, &token); err != nil {
			if errors.Is(err, kv.ErrMalformedValue) {
				return "", nil
			}

			return "", fmt.Errorf("read token: %w", err)
		}

		return token, nil
	})
}

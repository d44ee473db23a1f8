// Package usersvc lets admins list accounts and change their roles.
package usersvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
)

// UserQuery filters and pages List. IsActive nil lists both states.
// Filtering by RoleAdmin is not supported by the backend and is ignored.
type UserQuery struct {
	Role     domain.Role
	IsActive *bool
	Page     int
	Limit    int
}

// UserPage is one page of accounts.
type UserPage struct {
	Users      []domain.User     `json:"users"`
	Pagination domain.Pagination `json:"pagination"`
}

type promoteBody struct {
	NewRole string `json:"newRole"`
}

// UserService is the client side of the user resource.
type UserService struct {
	API apiclient.API
	Log logging.Logger
}

// NewUserService creates a new UserService.
func NewUserService(api apiclient.API) *UserService {
	return &UserService{
		API: api,
		Log: logging.GetLogger("svc.usersvc.user_service"),
	}
}

// List returns one page of accounts.
func (s *UserService) List(ctx context.Context, q UserQuery) (*UserPage, error) {
	q.Page = max(q.Page, 1)
	if q.Limit <= 0 {
		q.Limit = 10
	}

	query := apiclient.NewQuery()

	if role := domain.ParseRole(string(q.Role)); role.Valid() && role != domain.RoleAdmin {
		query.Set("role", role.Backend())
	}

	path := query.
		Bool("isActive", q.IsActive).
		Int("page", q.Page).
		Int("limit", q.Limit).
		Path("/api/users")

	var raw apiclient.RawBody
	if err := s.API.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	var payloads []domain.UserPayload
	if err := apiclient.UnwrapList(raw, "users", &payloads); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	page := &UserPage{Users: make([]domain.User, 0, len(payloads))}
	for _, p := range payloads {
		page.Users = append(page.Users, p.User())
	}

	found, err := apiclient.Lookup(raw, &page.Pagination, []string{"data", "pagination"}, []string{"pagination"})
	if err != nil {
		return nil, fmt.Errorf("decode pagination: %w", err)
	}

	if !found {
		page.Pagination = domain.NewPagination(len(page.Users), q.Page, q.Limit)
	}

	return page, nil
}

// Get returns the account with id.
func (s *UserService) Get(ctx context.Context, id domain.ID) (*domain.User, error) {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/users/"+id.String(), &raw); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	return decodeUser(raw)
}

// Promote changes the role of the account with id. Only the customer and
// staff roles can be granted; anything else fails with
// domain.ErrRoleNotAssignable before a request is made.
func (s *UserService) Promote(ctx context.Context, id domain.ID, role domain.Role) (user *domain.User, err error) {
	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "failed to change role", "user_id", id, "role", role, "error", err)
		} else {
			s.Log.InfoContext(ctx, "role changed", "user_id", id, "role", user.Role)
		}
	}()

	role = domain.ParseRole(string(role))
	if role != domain.RoleCustomer && role != domain.RoleStaff {
		return nil, fmt.Errorf("%w: %q", domain.ErrRoleNotAssignable, role)
	}

	var raw apiclient.RawBody
	if err := s.API.Patch(ctx, "/api/users/"+id.String()+"/promote", promoteBody{NewRole: role.Backend()}, &raw); err != nil {
		return nil, fmt.Errorf("promote user %s: %w", id, err)
	}

	return decodeUser(raw)
}

// Stats counts accounts by role and activity.
func (s *UserService) Stats(ctx context.Context) (*domain.UserStats, error) {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/admin/dashboard/users-count", &raw); err != nil {
		return nil, fmt.Errorf("get user stats: %w", err)
	}

	var stats domain.UserStats
	if err := apiclient.Unwrap(raw, "stats", &stats); err != nil {
		return nil, fmt.Errorf("decode user stats: %w", err)
	}

	return &stats, nil
}

func decodeUser(raw apiclient.RawBody) (*domain.User, error) {
	var payload domain.UserPayload
	if err := apiclient.Unwrap(raw, "user", &payload); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	user := payload.User()

	return &user, nil
}

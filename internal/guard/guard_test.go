package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/storefront/internal/domain"
	. "github.com/mkrupp/storefront/internal/guard"
)

func TestRequireRole(t *testing.T) {
	t.Parallel()

	customer := &domain.User{ID: "u1", Role: domain.RoleCustomer}
	staff := &domain.User{ID: "u2", Role: domain.RoleStaff}
	admin := &domain.User{ID: "u3", Role: domain.RoleAdmin}

	tests := []struct {
		name  string
		user  *domain.User
		roles []domain.Role
		want  Decision
	}{
		{
			name: "anonymous is sent to login",
			user: nil,
			want: Decision{Redirect: LoginPath, Err: domain.ErrUnauthenticated},
		},
		{
			name:  "anonymous is sent to login even for role checks",
			user:  nil,
			roles: []domain.Role{domain.RoleAdmin},
			want:  Decision{Redirect: LoginPath, Err: domain.ErrUnauthenticated},
		},
		{
			name:  "matching role passes",
			user:  staff,
			roles: []domain.Role{domain.RoleStaff},
			want:  Allow,
		},
		{
			name:  "any listed role passes",
			user:  admin,
			roles: []domain.Role{domain.RoleStaff, domain.RoleAdmin},
			want:  Allow,
		},
		{
			name:  "missing role is sent home",
			user:  customer,
			roles: []domain.Role{domain.RoleStaff, domain.RoleAdmin},
			want:  Decision{Redirect: HomePath, Err: domain.ErrForbidden},
		},
		{
			name:  "admin is not implicitly staff",
			user:  admin,
			roles: []domain.Role{domain.RoleStaff},
			want:  Decision{Redirect: HomePath, Err: domain.ErrForbidden},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, RequireRole(tt.user, tt.roles...))
		})
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Allow, RequireAuth(&domain.User{ID: "u1", Role: domain.RoleCustomer}))
	assert.False(t, RequireAuth(nil).Allowed)
}

func TestHomeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/admin", HomeFor(domain.RoleAdmin))
	assert.Equal(t, "/staff", HomeFor(domain.RoleStaff))
	assert.Equal(t, "/", HomeFor(domain.RoleCustomer))
}

func TestRequireRole_NoRoles(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Allow, RequireRole(&domain.User{ID: "u1", Role: domain.RoleCustomer}))
}

package backendtest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkrupp/storefront/internal/domain"
)

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.caller(c, domain.RoleAdmin); !found {
		return
	}

	role := c.Query("role")
	isActive := c.Query("isActive")
	users := []domain.UserPayload{}

	for _, id := range s.accountIDs {
		u := s.accounts[id].user

		if (role != "" && u.Role != role) || (isActive != "" && (isActive == "true") != u.IsActive) {
			continue
		}

		users = append(users, u)
	}

	page, limit := pageParams(c)
	items, pagination := paginate(users, page, limit)

	ok(c, http.StatusOK, gin.H{"users": items, "pagination": pagination})
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.caller(c, domain.RoleAdmin); !found {
		return
	}

	acc, exists := s.accounts[domain.ID(c.Param("id"))]
	if !exists {
		fail(c, http.StatusNotFound, "User not found")

		return
	}

	ok(c, http.StatusOK, gin.H{"user": acc.user})
}

func (s *Server) promoteUser(c *gin.Context) {
	var body struct {
		NewRole string `json:"newRole" binding:"required,oneof=CUSTOMER STAFF"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid role")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.caller(c, domain.RoleAdmin); !found {
		return
	}

	acc, exists := s.accounts[domain.ID(c.Param("id"))]
	if !exists {
		fail(c, http.StatusNotFound, "User not found")

		return
	}

	acc.user.Role = body.NewRole
	acc.user.UpdatedAt = now()

	ok(c, http.StatusOK, acc.user)
}

func (s *Server) userStats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.caller(c, domain.RoleAdmin); !found {
		return
	}

	var stats domain.UserStats

	for _, acc := range s.accounts {
		stats.Total++

		switch acc.role() {
		case domain.RoleCustomer:
			stats.Customers++
		case domain.RoleStaff:
			stats.Staff++
		case domain.RoleAdmin:
			stats.Admins++
		}

		if acc.user.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
	}

	ok(c, http.StatusOK, stats)
}

package backendtest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.accountIDs {
		acc := s.accounts[id]
		if !strings.EqualFold(acc.user.Email, body.Email) || acc.password != body.Password {
			continue
		}

		data := gin.H{"user": acc.user}
		if !s.loginWithoutToken {
			data["token"] = s.issueToken(id)
		}

		ok(c, http.StatusOK, data)

		return
	}

	fail(c, http.StatusUnauthorized, "Invalid email or password")
}

func (s *Server) logout(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	delete(s.tokens, token)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func (s *Server) me(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	ok(c, http.StatusOK, gin.H{"user": acc.user})
}

func (s *Server) register(c *gin.Context) {
	var body struct {
		FullName    string `json:"fullName" binding:"required"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		PhoneNumber string `json:"phoneNumber"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid registration data")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, body.Email) {
			fail(c, http.StatusConflict, "Email already registered")

			return
		}
	}

	id := s.addAccount(body.Email, body.Password, body.FullName, body.PhoneNumber, "customer")

	ok(c, http.StatusCreated, gin.H{"user": s.accounts[id].user})
}

func (s *Server) changePassword(c *gin.Context) {
	var body struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid password data")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	if acc.password != body.CurrentPassword {
		fail(c, http.StatusBadRequest, "Current password is incorrect")

		return
	}

	acc.password = body.NewPassword

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed"})
}

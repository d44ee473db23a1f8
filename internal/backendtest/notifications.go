package backendtest

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/mkrupp/storefront/internal/domain"
)

func (s *Server) listNotifications(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	unreadOnly := c.Query("unreadOnly") == "true"
	notifications := []domain.Notification{}

	for _, rec := range slices.Backward(s.notifications) {
		if rec.owner == acc.user.ID && (!unreadOnly || !rec.notification.IsRead) {
			notifications = append(notifications, rec.notification)
		}
	}

	page, limit := pageParams(c)
	items, pagination := paginate(notifications, page, limit)

	ok(c, http.StatusOK, gin.H{"notifications": items, "pagination": pagination})
}

func (s *Server) unreadCount(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	count := 0

	for _, rec := range s.notifications {
		if rec.owner == acc.user.ID && !rec.notification.IsRead {
			count++
		}
	}

	ok(c, http.StatusOK, gin.H{"count": count})
}

func (s *Server) readNotification(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	id := domain.ID(c.Param("id"))

	for _, rec := range s.notifications {
		if rec.owner == acc.user.ID && rec.notification.ID == id {
			rec.notification.IsRead = true
			ok(c, http.StatusOK, rec.notification)

			return
		}
	}

	fail(c, http.StatusNotFound, "Notification not found")
}

func (s *Server) readAllNotifications(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	updated := 0

	for _, rec := range s.notifications {
		if rec.owner == acc.user.ID && !rec.notification.IsRead {
			rec.notification.IsRead = true
			updated++
		}
	}

	ok(c, http.StatusOK, gin.H{"updated": updated})
}

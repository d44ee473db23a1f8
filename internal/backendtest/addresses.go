package backendtest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkrupp/storefront/internal/domain"
)

type addressBody struct {
	RecipientName string `json:"recipientName" binding:"required"`
	PhoneNumber   string `json:"phoneNumber" binding:"required"`
	AddressLine1  string `json:"addressLine1" binding:"required"`
	AddressLine2  string `json:"addressLine2"`
	SubDistrict   string `json:"subDistrict" binding:"required"`
	District      string `json:"district" binding:"required"`
	Province      string `json:"province" binding:"required"`
	PostalCode    string `json:"postalCode" binding:"required,len=5"`
}

func (b addressBody) apply(a *domain.Address) {
	a.RecipientName = b.RecipientName
	a.PhoneNumber = b.PhoneNumber
	a.AddressLine1 = b.AddressLine1
	a.AddressLine2 = b.AddressLine2
	a.SubDistrict = b.SubDistrict
	a.District = b.District
	a.Province = b.Province
	a.PostalCode = b.PostalCode
}

func (s *Server) listAddresses(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	addresses := []domain.Address{}
	for _, rec := range s.ownedAddresses(acc.user.ID) {
		addresses = append(addresses, rec.address)
	}

	ok(c, http.StatusOK, gin.H{"addresses": addresses})
}

func (s *Server) defaultAddress(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	for _, rec := range s.ownedAddresses(acc.user.ID) {
		if rec.address.IsDefault {
			ok(c, http.StatusOK, gin.H{"address": rec.address})

			return
		}
	}

	fail(c, http.StatusNotFound, "No default address")
}

func (s *Server) createAddress(c *gin.Context) {
	var body addressBody

	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid address")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	var address domain.Address
	body.apply(&address)

	id := s.addAddress(acc.user.ID, address)

	ok(c, http.StatusCreated, s.addresses[id].address)
}

func (s *Server) updateAddress(c *gin.Context) {
	var body addressBody

	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid address")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.ownAddress(c)
	if !found {
		return
	}

	body.apply(&rec.address)
	rec.address.UpdatedAt = now()

	ok(c, http.StatusOK, rec.address)
}

func (s *Server) deleteAddress(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.ownAddress(c)
	if !found {
		return
	}

	delete(s.addresses, rec.address.ID)

	// the oldest remaining address inherits the default
	if rec.address.IsDefault {
		if rest := s.ownedAddresses(rec.owner); len(rest) > 0 {
			rest[0].address.IsDefault = true
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Address deleted"})
}

func (s *Server) setDefaultAddress(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.ownAddress(c)
	if !found {
		return
	}

	s.clearDefault(rec.owner)
	rec.address.IsDefault = true

	ok(c, http.StatusOK, rec.address)
}

// ownAddress resolves the :id address of the caller. Callers must hold s.mu.
func (s *Server) ownAddress(c *gin.Context) (*addressRecord, bool) {
	acc, found := s.caller(c)
	if !found {
		return nil, false
	}

	rec, exists := s.addresses[domain.ID(c.Param("id"))]
	if !exists || rec.owner != acc.user.ID {
		fail(c, http.StatusNotFound, "Address not found")

		return nil, false
	}

	return rec, true
}

package backendtest

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mkrupp/storefront/internal/domain"
)

// SeedUser creates an account and returns its ID.
func (s *Server) SeedUser(email, password, name string, role domain.Role) domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addAccount(email, password, name, "", role)
}

// IssueToken signs the account in and returns its bearer token.
func (s *Server) IssueToken(id domain.ID) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.issueToken(id)
}

// SeedProduct adds p to the catalog and returns its ID.
func (s *Server) SeedProduct(p domain.Product) domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextID("p")
	}

	if p.Status == "" {
		p.Status = "ACTIVE"
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
		p.UpdatedAt = p.CreatedAt
	}

	s.products[p.ID] = &p
	s.productIDs = append(s.productIDs, p.ID)

	return p.ID
}

// DeleteProduct removes a product from the catalog, leaving orders and carts untouched.
func (s *Server) DeleteProduct(id domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.products, id)
}

// SeedAddress adds an address owned by owner and returns its ID.
func (s *Server) SeedAddress(owner domain.ID, a domain.Address) domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addAddress(owner, a)
}

// SeedOrder stores o as owned by owner and returns its ID.
func (s *Server) SeedOrder(owner domain.ID, o domain.Order) domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = s.nextID("o")
	}

	if o.OrderNumber == "" {
		o.OrderNumber = "ORD-" + strings.ToUpper(o.ID.String())
	}

	if o.Status == "" {
		o.Status = domain.OrderStatusPendingConfirmation
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = now()
		o.UpdatedAt = o.CreatedAt
	}

	s.orders[o.ID] = &orderRecord{owner: owner, order: o}
	s.orderIDs = append(s.orderIDs, o.ID)

	return o.ID
}

// SeedNotification adds a notification for owner and returns its ID.
func (s *Server) SeedNotification(owner domain.ID, n domain.Notification) domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = s.nextID("n")
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}

	s.notifications = append(s.notifications, &notificationRecord{owner: owner, notification: n})

	return n.ID
}

// Order returns the server's copy of an order.
func (s *Server) Order(id domain.ID) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok {
		return domain.Order{}, false
	}

	return rec.order, true
}

// Product returns the server's copy of a product.
func (s *Server) Product(id domain.ID) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, false
	}

	return *p, true
}

// Movements returns the stock ledger.
func (s *Server) Movements() []domain.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.StockMovement(nil), s.movements...)
}

func (s *Server) addAccount(email, password, name, phone string, role domain.Role) domain.ID {
	id := s.nextID("u")
	ts := now()

	s.accounts[id] = &account{
		user: domain.UserPayload{
			ID:          id,
			Email:       email,
			FullName:    name,
			PhoneNumber: phone,
			Role:        role.Backend(),
			IsActive:    true,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		},
		password: password,
	}
	s.accountIDs = append(s.accountIDs, id)

	return id
}

func (s *Server) issueToken(id domain.ID) string {
	token := uuid.NewString()
	s.tokens[token] = id

	return token
}

func (s *Server) addAddress(owner domain.ID, a domain.Address) domain.ID {
	if a.ID == "" {
		a.ID = s.nextID("a")
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
		a.UpdatedAt = a.CreatedAt
	}

	if len(s.ownedAddresses(owner)) == 0 {
		a.IsDefault = true
	} else if a.IsDefault {
		s.clearDefault(owner)
	}

	s.addresses[a.ID] = &addressRecord{owner: owner, address: a}
	s.addressIDs = append(s.addressIDs, a.ID)

	return a.ID
}

func (s *Server) ownedAddresses(owner domain.ID) []*addressRecord {
	var out []*addressRecord

	for _, id := range s.addressIDs {
		if rec, ok := s.addresses[id]; ok && rec.owner == owner {
			out = append(out, rec)
		}
	}

	return out
}

func (s *Server) clearDefault(owner domain.ID) {
	for _, rec := range s.ownedAddresses(owner) {
		rec.address.IsDefault = false
	}
}

func (s *Server) notify(owner domain.ID, typ, title, message string, entityID domain.ID) {
	s.notifications = append(s.notifications, &notificationRecord{
		owner: owner,
		notification: domain.Notification{
			ID:        s.nextID("n"),
			Type:      typ,
			Title:     title,
			Message:   message,
			Entity:    "order",
			EntityID:  entityID,
			CreatedAt: now(),
		},
	})
}

package domain

import "time"

// Notification is a backend-generated message for the signed-in user.
type Notification struct {
	ID        ID        `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	Entity    string    `json:"entity,omitempty"`
	EntityID  ID        `json:"entityId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

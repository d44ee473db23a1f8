package domain

import "time"

// Address is a shipping address owned by the signed-in user.
type Address struct {
	ID            ID        `json:"id"`
	RecipientName string    `json:"recipientName"`
	PhoneNumber   string    `json:"phoneNumber"`
	AddressLine1  string    `json:"addressLine1"`
	AddressLine2  string    `json:"addressLine2,omitempty"`
	SubDistrict   string    `json:"subDistrict"`
	District      string    `json:"district"`
	Province      string    `json:"province"`
	PostalCode    string    `json:"postalCode"`
	IsDefault     bool      `json:"isDefault"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AddressInput carries the editable fields of an address.
type AddressInput struct {
	RecipientName string `json:"recipientName" validate:"required,max=100"`
	PhoneNumber   string `json:"phoneNumber" validate:"required,phone"`
	AddressLine1  string `json:"addressLine1" validate:"required,max=255"`
	AddressLine2  string `json:"addressLine2,omitempty" validate:"max=255"`
	SubDistrict   string `json:"subDistrict" validate:"required,max=100"`
	District      string `json:"district" validate:"required,max=100"`
	Province      string `json:"province" validate:"required,max=100"`
	PostalCode    string `json:"postalCode" validate:"required,len=5,numeric"`
}

package types

import "strings"

// ShippingAddress is the structured address collected by the checkout wizard.
// Persisted on the order as JSON; the free-text rendering is what couriers see.
type ShippingAddress struct {
	FirstName  string  `json:"first_name" validate:"required,min=2,max=60"`
	LastName   string  `json:"last_name" validate:"required,min=2,max=60"`
	Email      string  `json:"email,omitempty" validate:"omitempty,email"`
	Street     string  `json:"street" validate:"required,min=5,max=120"`
	Unit       *string `json:"unit,omitempty" validate:"omitempty,max=30"`
	City       string  `json:"city" validate:"required,min=2,max=60"`
	Region     string  `json:"region" validate:"required,min=2,max=60"`
	PostalCode string  `json:"postal_code" validate:"required,min=4,max=10"`
	Phone      string  `json:"phone" validate:"required,min=7,max=20"`
}

// FreeText flattens the address into a single courier-friendly line.
func (a ShippingAddress) FreeText() string {
	parts := []string{a.FirstName + " " + a.LastName, a.Street}
	if a.Unit != nil && strings.TrimSpace(*a.Unit) != "" {
		parts = append(parts, *a.Unit)
	}
	parts = append(parts, a.City, a.Region, a.PostalCode, a.Phone)
	return strings.Join(parts, ", ")
}

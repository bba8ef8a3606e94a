package models

import (
	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/shopspring/decimal"
)

// LoginRequest is the payload for POST /login.
type LoginRequest struct {
	Email string `json:"email"`
}

// LoginResponse carries the session token used on later calls.
type LoginResponse struct {
	Token    string          `json:"token"`
	Customer domain.Customer `json:"customer"`
}

// ProductRequest is the payload for POST /products.
type ProductRequest struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// CustomerRequest is the payload for POST /customers.
type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// CheckoutRequest is the cart the client submits.
type CheckoutRequest struct {
	Lines []domain.CartLine `json:"lines"`
}

// AvailabilityResponse answers GET /products/{id}/availability.
type AvailabilityResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

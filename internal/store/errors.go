package store

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateProduct  = errors.New("product already exists")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrInvalidCustomer   = errors.New("invalid customer")
	ErrDuplicateCustomer = errors.New("customer email already registered")
	ErrMalformedFile     = errors.New("malformed data file")
)

package service

import (
	"context"

	"github.com/punchamoorthee/storeops/internal/domain"
)

// Catalog is the slice of the product store checkout needs. AdjustStock must be
// an atomic read-modify-write that refuses to take stock below zero.
type Catalog interface {
	Find(ctx context.Context, id string) (domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (domain.Product, error)
}

// CatalogAdmin adds the management operations on top of Catalog.
type CatalogAdmin interface {
	Catalog
	AddProduct(ctx context.Context, p domain.Product) error
	RemoveProduct(ctx context.Context, id string) error
	RemoveProductByName(ctx context.Context, name string) error
}

// Ledger receives one entry per successful checkout.
type Ledger interface {
	Append(ctx context.Context, customerID string, entry domain.LedgerEntry) error
}

// HistoryStore is the full per-customer history surface.
type HistoryStore interface {
	Ledger
	Entries(ctx context.Context, customerID string) ([]domain.LedgerEntry, error)
	Delete(ctx context.Context, customerID string) error
}

// CustomerLookup resolves a login email to a customer.
type CustomerLookup interface {
	FindByEmail(ctx context.Context, email string) (domain.Customer, error)
}

// CustomerStore is the customer roster.
type CustomerStore interface {
	CustomerLookup
	List(ctx context.Context) ([]domain.Customer, error)
	FindByID(ctx context.Context, id string) (domain.Customer, error)
	Register(ctx context.Context, name, email, phone string) (domain.Customer, error)
	Remove(ctx context.Context, identifier string) ([]domain.Customer, error)
}

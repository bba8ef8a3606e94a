package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/punchamoorthee/storeops/internal/store"
	"github.com/shopspring/decimal"
)

func product(id, name, price string, stock int) domain.Product {
	return domain.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

// memCatalog is an in-memory CatalogAdmin. beforeAdjust, when set, runs
// under the lock ahead of every stock adjustment and may veto it.
type memCatalog struct {
	mu           sync.Mutex
	products     []domain.Product
	beforeAdjust func(id string, delta int, call int) error
	adjustCalls  int
	listErr      error
}

func newMemCatalog(products ...domain.Product) *memCatalog {
	return &memCatalog{products: products}
}

func (c *memCatalog) ListAll(_ context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

func (c *memCatalog) Find(_ context.Context, id string) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%w: %s", store.ErrProductNotFound, id)
}

func (c *memCatalog) AdjustStock(_ context.Context, id string, delta int) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adjustCalls++
	if c.beforeAdjust != nil {
		if err := c.beforeAdjust(id, delta, c.adjustCalls); err != nil {
			return domain.Product{}, err
		}
	}
	for i := range c.products {
		if c.products[i].ID != id {
			continue
		}
		if c.products[i].Stock+delta < 0 {
			return domain.Product{}, fmt.Errorf("%w: %s", store.ErrInsufficientStock, id)
		}
		c.products[i].Stock += delta
		return c.products[i], nil
	}
	return domain.Product{}, fmt.Errorf("%w: %s", store.ErrProductNotFound, id)
}

func (c *memCatalog) AddProduct(_ context.Context, p domain.Product) error {
	if err := store.ValidateProduct(p); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.products {
		if existing.ID == p.ID {
			return fmt.Errorf("%w: %s", store.ErrDuplicateProduct, p.ID)
		}
	}
	c.products = append(c.products, p)
	return nil
}

func (c *memCatalog) RemoveProduct(_ context.Context, id string) error {
	return c.remove(func(p domain.Product) bool { return p.ID == id }, id)
}

func (c *memCatalog) RemoveProductByName(_ context.Context, name string) error {
	return c.remove(func(p domain.Product) bool { return p.Name == name }, name)
}

func (c *memCatalog) remove(match func(domain.Product) bool, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.products[:0:0]
	for _, p := range c.products {
		if !match(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(c.products) {
		return fmt.Errorf("%w: %s", store.ErrProductNotFound, key)
	}
	c.products = kept
	return nil
}

func (c *memCatalog) stock(id string) int {
	p, err := c.Find(context.Background(), id)
	if err != nil {
		return -1
	}
	return p.Stock
}

type memLedger struct {
	mu      sync.Mutex
	entries map[string][]domain.LedgerEntry
	err     error
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string][]domain.LedgerEntry)}
}

func (l *memLedger) Append(_ context.Context, customerID string, entry domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries[customerID] = append(l.entries[customerID], entry)
	return nil
}

func (l *memLedger) Entries(_ context.Context, customerID string) ([]domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.LedgerEntry(nil), l.entries[customerID]...), nil
}

func (l *memLedger) Delete(_ context.Context, customerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, customerID)
	return nil
}

type recordingReconciler struct {
	mu      sync.Mutex
	reports []Inconsistency
}

func (r *recordingReconciler) Report(_ context.Context, inc Inconsistency) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, inc)
}

func (r *recordingReconciler) all() []Inconsistency {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Inconsistency(nil), r.reports...)
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one sellable catalog row.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// Customer is the identity a shopper logs in as.
type Customer struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// CartLine is one requested (product, quantity) pair.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is held by the caller and never persisted. Lines may repeat a product.
type Cart []CartLine

// LineItem is a purchased line with the unit price charged at checkout time.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal is UnitPrice x Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LedgerEntry is one completed purchase in a customer's history.
// Total always equals the sum of the items' subtotals.
type LedgerEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

// Receipt is what a successful checkout hands back to the caller.
type Receipt struct {
	EntryID string          `json:"entry_id"`
	Total   decimal.Decimal `json:"total"`
	Lines   []string        `json:"lines"`
}

// ProductStats summarises prices and stock levels across the catalog.
type ProductStats struct {
	Count    int             `json:"count"`
	MinPrice decimal.Decimal `json:"min_price"`
	MaxPrice decimal.Decimal `json:"max_price"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	MinStock int             `json:"min_stock"`
	MaxStock int             `json:"max_stock"`
	AvgStock float64         `json:"avg_stock"`
}

// Session binds a login token to the customer who owns it.
type Session struct {
	Token     string    `json:"token"`
	Customer  Customer  `json:"customer"`
	CreatedAt time.Time `json:"created_at"`
}

package service

import "fmt"

// Kind classifies why a checkout (or a call around it) failed.
type Kind int

const (
	KindNotAuthenticated Kind = iota + 1
	KindEmptyCart
	KindInvalidQuantity
	KindProductNotFound
	KindInsufficientStock
	KindConcurrentStockChange
	KindLedgerWriteFailed
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotAuthenticated:
		return "not_authenticated"
	case KindEmptyCart:
		return "empty_cart"
	case KindInvalidQuantity:
		return "invalid_quantity"
	case KindProductNotFound:
		return "product_not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindConcurrentStockChange:
		return "concurrent_stock_change"
	case KindLedgerWriteFailed:
		return "ledger_write_failed"
	case KindStorageUnavailable:
		return "storage_unavailable"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type the checkout path returns. Compare with
// errors.Is against the sentinels below, or errors.As to read the details.
type Error struct {
	Kind      Kind
	ProductID string
	Available int
	Requested int
	Err       error
}

var (
	ErrNotAuthenticated      = &Error{Kind: KindNotAuthenticated}
	ErrEmptyCart             = &Error{Kind: KindEmptyCart}
	ErrInvalidQuantity       = &Error{Kind: KindInvalidQuantity}
	ErrProductNotFound       = &Error{Kind: KindProductNotFound}
	ErrInsufficientStock     = &Error{Kind: KindInsufficientStock}
	ErrConcurrentStockChange = &Error{Kind: KindConcurrentStockChange}
	ErrLedgerWriteFailed     = &Error{Kind: KindLedgerWriteFailed}
	ErrStorageUnavailable    = &Error{Kind: KindStorageUnavailable}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindNotAuthenticated:
		msg = "no authenticated customer"
	case KindEmptyCart:
		msg = "cart is empty, nothing to checkout"
	case KindInvalidQuantity:
		msg = fmt.Sprintf("invalid quantity %d for product %s", e.Requested, e.ProductID)
	case KindProductNotFound:
		msg = fmt.Sprintf("product %s not found", e.ProductID)
	case KindInsufficientStock:
		msg = fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
	case KindConcurrentStockChange:
		msg = fmt.Sprintf("stock for product %s changed during checkout", e.ProductID)
	case KindLedgerWriteFailed:
		msg = "stock committed but purchase history could not be written"
	case KindStorageUnavailable:
		msg = "storage unavailable"
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind alone, so errors.Is(err, ErrInsufficientStock) holds for
// any insufficient-stock error regardless of product.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

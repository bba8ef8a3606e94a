package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/storeops/internal/domain"
	"github.com/punchamoorthee/storeops/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CheckoutService struct {
	catalog    Catalog
	ledger     Ledger
	reconciler Reconciler
	logger     *zap.Logger
	discount   decimal.Decimal
	attempts   int
	now        func() time.Time
	newID      func() string
}

type CheckoutOption func(*CheckoutService)

// WithDiscount charges every unit price at price * (1 - rate).
func WithDiscount(rate decimal.Decimal) CheckoutOption {
	return func(s *CheckoutService) { s.discount = rate }
}

// WithAttempts allows a checkout to restart this many times in total when the
// very first stock decrement loses a race. Values below 1 are ignored.
func WithAttempts(n int) CheckoutOption {
	return func(s *CheckoutService) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithReconciler(r Reconciler) CheckoutOption {
	return func(s *CheckoutService) { s.reconciler = r }
}

func WithLogger(l *zap.Logger) CheckoutOption {
	return func(s *CheckoutService) { s.logger = l }
}

func WithClock(now func() time.Time) CheckoutOption {
	return func(s *CheckoutService) { s.now = now }
}

func NewCheckoutService(catalog Catalog, ledger Ledger, opts ...CheckoutOption) *CheckoutService {
	s := &CheckoutService{
		catalog:  catalog,
		ledger:   ledger,
		logger:   zap.NewNop(),
		discount: decimal.Zero,
		attempts: 1,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reconciler == nil {
		s.reconciler = NewLogReconciler(s.logger)
	}
	return s
}

// Checkout turns a cart into stock decrements plus one history entry for
// customer. Validation is all-or-nothing: if any line is unknown or the
// combined demand for a product exceeds its stock, nothing is changed.
// Once decrements start they are not undone; a race detected part way
// through (ConcurrentStockChange) or a failed history write
// (LedgerWriteFailed) is reported to the Reconciler.
func (s *CheckoutService) Checkout(ctx context.Context, customer *domain.Customer, cart domain.Cart) (*domain.Receipt, error) {
	start := time.Now()
	receipt, err := s.checkout(ctx, customer, cart)
	checkoutDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := KindStorageUnavailable.String()
		var cerr *Error
		if errors.As(err, &cerr) {
			outcome = cerr.Kind.String()
		}
		checkoutsTotal.WithLabelValues(outcome).Inc()
		s.logger.Warn("checkout failed", zap.String("customer_id", customerID(customer)), zap.Int("lines", len(cart)), zap.Error(err))
		return nil, err
	}

	checkoutsTotal.WithLabelValues("success").Inc()
	s.logger.Info("checkout completed",
		zap.String("customer_id", customer.ID),
		zap.String("entry_id", receipt.EntryID),
		zap.String("total", receipt.Total.StringFixed(2)),
	)
	return receipt, nil
}

func (s *CheckoutService) checkout(ctx context.Context, customer *domain.Customer, cart domain.Cart) (*domain.Receipt, error) {
	// 1. Preconditions
	if customer == nil || customer.ID == "" {
		return nil, ErrNotAuthenticated
	}
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, &Error{Kind: KindInvalidQuantity, ProductID: line.ProductID, Requested: line.Quantity}
		}
	}

	var items []domain.LineItem
	for attempt := 1; ; attempt++ {
		// 2. Validation against a snapshot (no lock held)
		var err error
		items, err = s.validate(ctx, cart)
		if err != nil {
			return nil, err
		}

		// 3. Commit, each decrement re-checked under the store's lock
		applied, err := s.commit(ctx, items)
		if err == nil {
			break
		}
		if applied == 0 && attempt < s.attempts && errors.Is(err, ErrConcurrentStockChange) {
			checkoutRetries.Inc()
			s.logger.Info("retrying checkout after concurrent stock change",
				zap.String("customer_id", customer.ID), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if applied > 0 {
			s.reconciler.Report(ctx, Inconsistency{
				Kind:       InconsistencyPartialCommit,
				CustomerID: customer.ID,
				Applied:    items[:applied],
				Err:        err,
			})
		}
		return nil, err
	}

	// 4. Record the purchase
	entry := domain.LedgerEntry{
		ID:        s.newID(),
		Timestamp: s.now(),
		Items:     items,
		Total:     Total(items),
	}
	if err := s.ledger.Append(ctx, customer.ID, entry); err != nil {
		s.reconciler.Report(ctx, Inconsistency{
			Kind:       InconsistencyLedgerWrite,
			CustomerID: customer.ID,
			Applied:    items,
			Entry:      &entry,
			Err:        err,
		})
		return nil, &Error{Kind: KindLedgerWriteFailed, Err: err}
	}

	return NewReceipt(entry), nil
}

// validate resolves every line and checks cumulative demand per product
// against one catalog snapshot. Unit prices are fixed here.
func (s *CheckoutService) validate(ctx context.Context, cart domain.Cart) ([]domain.LineItem, error) {
	products, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, &Error{Kind: KindStorageUnavailable, Err: err}
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]domain.LineItem, 0, len(cart))
	demand := make(map[string]int, len(cart))
	order := make([]string, 0, len(cart))
	for _, line := range cart {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, &Error{Kind: KindProductNotFound, ProductID: line.ProductID}
		}
		if _, seen := demand[p.ID]; !seen {
			order = append(order, p.ID)
		}
		demand[p.ID] += line.Quantity
		items = append(items, domain.LineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			UnitPrice:   ApplyDiscount(p.Price, s.discount),
		})
	}

	for _, id := range order {
		if stock := byID[id].Stock; demand[id] > stock {
			return nil, &Error{Kind: KindInsufficientStock, ProductID: id, Available: stock, Requested: demand[id]}
		}
	}
	return items, nil
}

// commit decrements stock line by line in cart order and reports how many
// lines were applied before any failure.
func (s *CheckoutService) commit(ctx context.Context, items []domain.LineItem) (int, error) {
	for i, it := range items {
		if _, err := s.catalog.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
			if errors.Is(err, store.ErrInsufficientStock) || errors.Is(err, store.ErrProductNotFound) {
				return i, &Error{Kind: KindConcurrentStockChange, ProductID: it.ProductID, Err: err}
			}
			return i, &Error{Kind: KindStorageUnavailable, ProductID: it.ProductID, Err: err}
		}
	}
	return len(items), nil
}

// Total sums UnitPrice x Quantity over items.
func Total(items []domain.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// NewReceipt renders one human-readable line per purchased item.
func NewReceipt(entry domain.LedgerEntry) *domain.Receipt {
	lines := make([]string, 0, len(entry.Items))
	for _, it := range entry.Items {
		lines = append(lines, fmt.Sprintf("%s (ID: %s, qty: %d, price: %s)",
			it.ProductName, it.ProductID, it.Quantity, it.UnitPrice.StringFixed(2)))
	}
	return &domain.Receipt{
		EntryID: entry.ID,
		Total:   entry.Total,
		Lines:   lines,
	}
}

func customerID(c *domain.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

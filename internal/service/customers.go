package service

import (
	"context"
	"fmt"

	"github.com/punchamoorthee/storeops/internal/domain"
	"go.uber.org/zap"
)

// CustomerService manages the roster. Removing a customer also drops their
// purchase history and any open sessions.
type CustomerService struct {
	customers CustomerStore
	history   HistoryStore
	sessions  *SessionService
	auditor   *Auditor
	logger    *zap.Logger
}

func NewCustomerService(customers CustomerStore, history HistoryStore, sessions *SessionService, auditor *Auditor, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customers: customers,
		history:   history,
		sessions:  sessions,
		auditor:   auditor,
		logger:    logger,
	}
}

func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	return s.customers.List(ctx)
}

func (s *CustomerService) Register(ctx context.Context, name, email, phone string) (domain.Customer, error) {
	return WithAuditResult(s.auditor, "register_customer", func() (domain.Customer, error) {
		return s.customers.Register(ctx, name, email, phone)
	}, func(c domain.Customer) []zap.Field {
		if c.ID == "" {
			return nil
		}
		return []zap.Field{zap.String("customer_id", c.ID)}
	})
}

// Remove deletes every customer whose id or name matches identifier.
func (s *CustomerService) Remove(ctx context.Context, identifier string) ([]domain.Customer, error) {
	return WithAuditResult(s.auditor, "remove_customer", func() ([]domain.Customer, error) {
		removed, err := s.customers.Remove(ctx, identifier)
		if err != nil {
			return nil, err
		}
		for _, c := range removed {
			if err := s.history.Delete(ctx, c.ID); err != nil {
				return removed, fmt.Errorf("deleting history for %s: %w", c.ID, err)
			}
			if s.sessions != nil {
				s.sessions.DropCustomer(c.ID)
			}
			s.logger.Info("customer removed", zap.String("customer_id", c.ID))
		}
		return removed, nil
	}, func(removed []domain.Customer) []zap.Field {
		ids := make([]string, 0, len(removed))
		for _, c := range removed {
			ids = append(ids, c.ID)
		}
		return []zap.Field{zap.Strings("customer_ids", ids)}
	})
}

// History returns the customer's purchases, oldest first.
func (s *CustomerService) History(ctx context.Context, customerID string) ([]domain.LedgerEntry, error) {
	return s.history.Entries(ctx, customerID)
}

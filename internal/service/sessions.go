package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/storeops/internal/domain"
	"go.uber.org/zap"
)

// SessionService hands out login tokens. Sessions live in memory only and
// are lost on restart.
type SessionService struct {
	customers CustomerLookup
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionService(customers CustomerLookup, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		customers: customers,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]domain.Session),
	}
}

// Login resolves email to a customer and opens a new session for them.
// An unknown email returns store.ErrCustomerNotFound.
func (s *SessionService) Login(ctx context.Context, email string) (domain.Session, error) {
	c, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{
		Token:     uuid.New().String(),
		Customer:  c,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	s.logger.Info("customer logged in", zap.String("customer_id", c.ID))
	return sess, nil
}

func (s *SessionService) Resolve(token string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok || token == "" {
		return domain.Session{}, ErrNotAuthenticated
	}
	return sess, nil
}

func (s *SessionService) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// DropCustomer ends every session held by customerID.
func (s *SessionService) DropCustomer(customerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, sess := range s.sessions {
		if sess.Customer.ID == customerID {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

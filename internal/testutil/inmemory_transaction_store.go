package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/brewstack/brewstack/internal/domain/transaction"
	ierr "github.com/brewstack/brewstack/internal/errors"
	"github.com/brewstack/brewstack/internal/types"
)

// InMemoryTransactionStore implements transaction.Repository
type InMemoryTransactionStore struct {
	mu   sync.RWMutex
	txns map[string]transaction.Transaction
}

// NewInMemoryTransactionStore creates a new in-memory transaction store
func NewInMemoryTransactionStore() *InMemoryTransactionStore {
	return &InMemoryTransactionStore{
		txns: make(map[string]transaction.Transaction),
	}
}

func (s *InMemoryTransactionStore) Create(ctx context.Context, txn *transaction.Transaction) error {
	if txn == nil {
		return ierr.NewError("transaction cannot be nil").Mark(ierr.ErrValidation)
	}
	if err := txn.Reason.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.txns[txn.ID]; exists {
		return ierr.NewError("transaction already exists").
			WithReportableDetails(map[string]any{"transaction_id": txn.ID}).
			Mark(ierr.ErrAlreadyExists)
	}
	s.txns[txn.ID] = *txn
	return nil
}

func (s *InMemoryTransactionStore) Get(ctx context.Context, id string) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, exists := s.txns[id]
	if !exists {
		return nil, ierr.NewError("transaction not found").
			WithHintf("Transaction %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	out := txn
	return &out, nil
}

func (s *InMemoryTransactionStore) GetByOrderID(ctx context.Context, orderID string) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, txn := range s.txns {
		if txn.OrderID == orderID {
			out := txn
			return &out, nil
		}
	}
	return nil, ierr.NewError("transaction not found for order").
		WithHintf("No transaction for order %s", orderID).
		WithReportableDetails(map[string]any{"order_id": orderID}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryTransactionStore) UpdateStatus(ctx context.Context, id string, status types.TransactionStatus, reason *types.TransactionReason) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if reason != nil {
		if err := reason.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txn, exists := s.txns[id]
	if !exists {
		return ierr.NewError("transaction not found").
			WithHintf("Transaction %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}

	txn.TransactionStatus = status
	if reason != nil {
		txn.Reason = *reason
	}
	txn.UpdatedAt = time.Now().UTC()
	txn.UpdatedBy = types.GetUserID(ctx)
	s.txns[id] = txn
	return nil
}

func (s *InMemoryTransactionStore) SetGatewayTransactionID(ctx context.Context, id string, gatewayTransactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, exists := s.txns[id]
	if !exists {
		return ierr.NewError("transaction not found").
			WithHintf("Transaction %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	txn.GatewayTransactionID = gatewayTransactionID
	txn.UpdatedAt = time.Now().UTC()
	s.txns[id] = txn
	return nil
}

func (s *InMemoryTransactionStore) ListScheduledByTenantAndPlan(ctx context.Context, tenantID, planID string) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*transaction.Transaction
	for _, txn := range s.txns {
		if txn.TenantID == tenantID && txn.PlanID == planID &&
			txn.TransactionStatus == types.TransactionStatusScheduled {
			t := txn
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListByTenant returns every transaction for the tenant, newest first. Test
// helper for asserting on audit rows.
func (s *InMemoryTransactionStore) ListByTenant(tenantID string) []*transaction.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*transaction.Transaction
	for _, txn := range s.txns {
		if txn.TenantID == tenantID {
			t := txn
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Clear removes all transactions from the store
func (s *InMemoryTransactionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = make(map[string]transaction.Transaction)
}

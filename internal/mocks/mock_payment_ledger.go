package mocks

import (
	"context"
	"sync"

	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/internal/store"
)

// MockPaymentLedger is an in-memory PaymentLedger with the same terminal
// transition rules as the database-backed one.
type MockPaymentLedger struct {
	mu      sync.Mutex
	entries map[string]*model.PendingPayment

	// RecordErr, when set, fails Record before anything is stored
	RecordErr error
	// MarkErr, when set, fails MarkCompleted/MarkFailed
	MarkErr error
}

// NewMockPaymentLedger creates an empty ledger
func NewMockPaymentLedger() *MockPaymentLedger {
	return &MockPaymentLedger{entries: make(map[string]*model.PendingPayment)}
}

func (m *MockPaymentLedger) Record(ctx context.Context, orderID, phone string, amount int, plan string) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[orderID] = &model.PendingPayment{
		OrderID: orderID,
		Phone:   phone,
		Amount:  amount,
		Plan:    plan,
		Status:  model.PaymentPending,
	}
	return nil
}

func (m *MockPaymentLedger) Get(ctx context.Context, orderID string) (*model.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[orderID]
	if !ok {
		return nil, store.ErrUnknownOrder
	}
	copied := *entry
	return &copied, nil
}

func (m *MockPaymentLedger) MarkCompleted(ctx context.Context, orderID string) error {
	return m.markTerminal(orderID, model.PaymentCompleted)
}

func (m *MockPaymentLedger) MarkFailed(ctx context.Context, orderID string) error {
	return m.markTerminal(orderID, model.PaymentFailed)
}

func (m *MockPaymentLedger) markTerminal(orderID, status string) error {
	if m.MarkErr != nil {
		return m.MarkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[orderID]
	if !ok {
		return store.ErrUnknownOrder
	}
	if entry.Status == status {
		return nil
	}
	entry.Status = status
	return nil
}

// Status returns the stored status for assertions; empty when absent
func (m *MockPaymentLedger) Status(orderID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[orderID]; ok {
		return entry.Status
	}
	return ""
}

// Len reports how many entries the ledger holds
func (m *MockPaymentLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/internal/store"
)

// MockKeeperStore is a hand-written fake KeeperStore. Behavior is overridden
// per test through the Func fields; unset methods return store.ErrNotFound.
type MockKeeperStore struct {
	mu sync.Mutex

	CreateShopkeeperFunc      func(ctx context.Context, profile store.KeeperProfile, password string) (*model.Shopkeeper, error)
	FindByPhoneFunc           func(ctx context.Context, phone string) (*model.Shopkeeper, error)
	VerifyCredentialsFunc     func(ctx context.Context, phone, password string) (*model.Shopkeeper, error)
	ActivateFunc              func(ctx context.Context, phone, plan string, dueDate time.Time, activationCode string) error
	ConsumeActivationCodeFunc func(ctx context.Context, phone, code string) (*model.Shopkeeper, error)
	ResolveAPIKeyFunc         func(ctx context.Context, apiKey string) (*model.Shop, *model.Shopkeeper, error)
	CreateShopForKeeperFunc   func(ctx context.Context, keeperID uint, profile store.ShopProfile) (*model.Shop, error)
	GetKeeperFunc             func(ctx context.Context, keeperID uint) (*model.Shopkeeper, error)
	ListShopKeepersFunc       func(ctx context.Context, shopID uint) ([]model.Shopkeeper, error)
	GetShopFunc               func(ctx context.Context, shopID uint) (*model.Shop, error)
	UpdateShopFunc            func(ctx context.Context, shopID uint, profile store.ShopProfile) (*model.Shop, error)
	DeleteShopFunc            func(ctx context.Context, shopID uint) error

	// ActivateCalls records every Activate invocation for assertions
	ActivateCalls []ActivateCall
}

// ActivateCall captures the arguments of one Activate invocation
type ActivateCall struct {
	Phone          string
	Plan           string
	DueDate        time.Time
	ActivationCode string
}

// NewMockKeeperStore creates an empty fake
func NewMockKeeperStore() *MockKeeperStore {
	return &MockKeeperStore{}
}

func (m *MockKeeperStore) CreateShopkeeper(ctx context.Context, profile store.KeeperProfile, password string) (*model.Shopkeeper, error) {
	if m.CreateShopkeeperFunc != nil {
		return m.CreateShopkeeperFunc(ctx, profile, password)
	}
	return nil, store.ErrNotFound
}

func (m *MockKeeperStore) FindByPhone(ctx context.Context, phone string) (*model.Shopkeeper, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	return nil, store.ErrNotFound
}

func (m *MockKeeperStore) VerifyCredentials(ctx context.Context, phone, password string) (*model.Shopkeeper, error) {
	if m.VerifyCredentialsFunc != nil {
		return m.VerifyCredentialsFunc(ctx, phone, password)
	}
	return nil, store.ErrInvalidCredentials
}

func (m *MockKeeperStore) Activate(ctx context.Context, phone, plan string, dueDate time.Time, activationCode string) error {
	m.mu.Lock()
	m.ActivateCalls = append(m.ActivateCalls, ActivateCall{
		Phone:          phone,
		Plan:           plan,
		DueDate:        dueDate,
		ActivationCode: activationCode,
	})
	m.mu.Unlock()

	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, phone, plan, dueDate, activationCode)
	}
	return nil
}

func (m *MockKeeperStore) ConsumeActivationCode(ctx context.Context, phone, code string) (*model.Shopkeeper, error) {
	if m.ConsumeActivationCodeFunc != nil {
		return m.ConsumeActivationCodeFunc(ctx, phone, code)
	}
	return nil, store.ErrInvalidCode
}

func (m *MockKeeperStore) ResolveAPIKey(ctx context.Context, apiKey string) (*model.Shop, *model.Shopkeeper, error) {
	if m.ResolveAPIKeyFunc != nil {
		return m.ResolveAPIKeyFunc(ctx, apiKey)
	}
	return nil, nil, store.ErrInvalidKey
}

func (m *MockKeeperStore) CreateShopForKeeper(ctx context.Context, keeperID uint, profile store.ShopProfile) (*model.Shop, error) {
	if m.CreateShopForKeeperFunc != nil {
		return m.CreateShopForKeeperFunc(ctx, keeperID, profile)
	}
	return nil, store.ErrNotFound
}

func (m *MockKeeperStore) GetKeeper(ctx context.Context, keeperID uint) (*model.Shopkeeper, error) {
	if m.GetKeeperFunc != nil {
		return m.GetKeeperFunc(ctx, keeperID)
	}
	return nil, store.ErrNotFound
}

func (m *MockKeeperStore) ListShopKeepers(ctx context.Context, shopID uint) ([]model.Shopkeeper, error) {
	if m.ListShopKeepersFunc != nil {
		return m.ListShopKeepersFunc(ctx, shopID)
	}
	return nil, nil
}

func (m *MockKeeperStore) GetShop(ctx context.Context, shopID uint) (*model.Shop, error) {
	if m.GetShopFunc != nil {
		return m.GetShopFunc(ctx, shopID)
	}
	return nil, store.ErrNotFound
}

func (m *MockKeeperStore) UpdateShop(ctx context.Context, shopID uint, profile store.ShopProfile) (*model.Shop, error) {
	if m.UpdateShopFunc != nil {
		return m.UpdateShopFunc(ctx, shopID, profile)
	}
	return nil, store.ErrNotFound
}

func (m *MockKeeperStore) DeleteShop(ctx context.Context, shopID uint) error {
	if m.DeleteShopFunc != nil {
		return m.DeleteShopFunc(ctx, shopID)
	}
	return store.ErrNotFound
}

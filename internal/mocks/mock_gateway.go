package mocks

import (
	"context"
	"sync"
)

// PushCall captures the arguments of one InitiateSTKPush invocation
type PushCall struct {
	Token       string
	Phone       string
	Amount      int
	CallbackURL string
	AccountRef  string
	Description string
}

// MockGateway is a fake payment gateway. It records every STK push so tests
// can assert call ordering and arguments.
type MockGateway struct {
	mu sync.Mutex

	TokenErr error
	PushErr  error
	Token    string

	PushCalls []PushCall
}

// NewMockGateway creates a gateway that accepts everything
func NewMockGateway() *MockGateway {
	return &MockGateway{Token: "test-token"}
}

func (m *MockGateway) AccessToken(ctx context.Context) (string, error) {
	if m.TokenErr != nil {
		return "", m.TokenErr
	}
	return m.Token, nil
}

func (m *MockGateway) InitiateSTKPush(ctx context.Context, token, phone string, amount int, callbackURL, accountRef, description string) (string, error) {
	m.mu.Lock()
	m.PushCalls = append(m.PushCalls, PushCall{
		Token:       token,
		Phone:       phone,
		Amount:      amount,
		CallbackURL: callbackURL,
		AccountRef:  accountRef,
		Description: description,
	})
	m.mu.Unlock()

	if m.PushErr != nil {
		return "", m.PushErr
	}
	return "ws_CO_TEST", nil
}

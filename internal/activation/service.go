package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/internal/mpesa"
	"github.com/zeloxinc/zel-shop-server/internal/store"
	"github.com/zeloxinc/zel-shop-server/pkg/config"
)

// Errors surfaced to the handlers
var (
	ErrUnknownAccount = errors.New("no account for this phone")
	ErrInvalidPlan    = errors.New("invalid plan, choose: daily, weekly, monthly")
	ErrOrderNotFound  = errors.New("order not found")
)

// Gateway is the payment provider contract the service depends on
type Gateway interface {
	AccessToken(ctx context.Context) (string, error)
	InitiateSTKPush(ctx context.Context, token, phone string, amount int, callbackURL, accountRef, description string) (string, error)
}

// PushResult is the outcome of a successful activation initiation
type PushResult struct {
	OrderID           string `json:"order_id"`
	Amount            int    `json:"amount"`
	CheckoutRequestID string `json:"checkout_request_id"`
}

// CallbackResult is the recorded outcome of a payment callback
type CallbackResult struct {
	Status         string `json:"status"`
	Replayed       bool   `json:"-"`
	ActivationCode string `json:"-"`
}

// Service drives a shopkeeper account from signed-up through awaiting-payment
// to activated-with-plan or payment-failed.
type Service struct {
	keepers         store.KeeperStore
	ledger          store.PaymentLedger
	gateway         Gateway
	billing         *config.BillingConfig
	callbackBaseURL string
	log             *zap.Logger

	// injected for deterministic tests
	now        func() time.Time
	newOrderID func() string
}

// NewService wires the activation state machine
func NewService(keepers store.KeeperStore, ledger store.PaymentLedger, gateway Gateway, billing *config.BillingConfig, callbackBaseURL string, log *zap.Logger) *Service {
	return &Service{
		keepers:         keepers,
		ledger:          ledger,
		gateway:         gateway,
		billing:         billing,
		callbackBaseURL: callbackBaseURL,
		log:             log,
		now:             time.Now,
		newOrderID:      uuid.NewString,
	}
}

// InitiateActivation issues an STK push for the given plan. The ledger entry
// is written before the push goes out, so a crash after the push still
// leaves a traceable pending record.
func (s *Service) InitiateActivation(ctx context.Context, phone, plan string) (*PushResult, error) {
	if _, err := s.keepers.FindByPhone(ctx, phone); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}

	normalized, err := mpesa.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	amount, ok := s.billing.PlanPrices[plan]
	if !ok {
		return nil, ErrInvalidPlan
	}

	token, err := s.gateway.AccessToken(ctx)
	if err != nil {
		s.log.Error("Failed to obtain gateway token", zap.Error(err))
		return nil, err
	}

	orderID := s.newOrderID()
	if err := s.ledger.Record(ctx, orderID, phone, amount, plan); err != nil {
		s.log.Error("Failed to record pending payment",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, err
	}

	callbackURL := fmt.Sprintf("%s/api/v1/payment/callback/activation/%s", s.callbackBaseURL, orderID)
	accountRef := fmt.Sprintf("ZELSHOP-%s", plan)
	description := fmt.Sprintf("Activate Zelshop - %s plan", plan)

	checkoutID, err := s.gateway.InitiateSTKPush(ctx, token, normalized, amount, callbackURL, accountRef, description)
	if err != nil {
		var rejected *mpesa.ErrRejected
		if errors.As(err, &rejected) {
			// No callback will ever arrive for a rejected push; close the
			// entry now instead of leaving it pending forever.
			if markErr := s.ledger.MarkFailed(ctx, orderID); markErr != nil {
				s.log.Error("Failed to mark rejected order as failed",
					zap.String("order_id", orderID),
					zap.Error(markErr))
			}
		}
		return nil, err
	}

	s.log.Info("Activation push sent",
		zap.String("order_id", orderID),
		zap.String("plan", plan),
		zap.Int("amount", amount),
		zap.String("checkout_request_id", checkoutID))

	return &PushResult{
		OrderID:           orderID,
		Amount:            amount,
		CheckoutRequestID: checkoutID,
	}, nil
}

// HandleCallback consumes the provider's asynchronous result for an order.
// A callback for an unknown order fails ErrOrderNotFound and never creates
// an entry; a callback for an already-terminal order returns the recorded
// outcome without reapplying it.
func (s *Service) HandleCallback(ctx context.Context, orderID string, resultCode int) (*CallbackResult, error) {
	entry, err := s.ledger.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrUnknownOrder) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if entry.Terminal() {
		s.log.Info("Duplicate callback for terminal order",
			zap.String("order_id", orderID),
			zap.String("status", entry.Status))
		return &CallbackResult{Status: entry.Status, Replayed: true}, nil
	}

	if resultCode != 0 {
		if err := s.ledger.MarkFailed(ctx, orderID); err != nil {
			return nil, err
		}
		s.log.Info("Payment cancelled or failed",
			zap.String("order_id", orderID),
			zap.Int("result_code", resultCode))
		return &CallbackResult{Status: model.PaymentFailed}, nil
	}

	days, ok := s.billing.PlanDurations[entry.Plan]
	if !ok {
		return nil, ErrInvalidPlan
	}
	dueDate := s.now().AddDate(0, 0, days)
	code := store.NewActivationCode()

	// Activate first, mark completed second: a crash between the two leaves
	// the ledger pending and retryable, never falsely completed.
	if err := s.keepers.Activate(ctx, entry.Phone, entry.Plan, dueDate, code); err != nil {
		s.log.Error("Failed to activate shopkeeper",
			zap.String("order_id", orderID),
			zap.String("phone", entry.Phone),
			zap.Error(err))
		return nil, err
	}

	if err := s.ledger.MarkCompleted(ctx, orderID); err != nil {
		return nil, err
	}

	s.log.Info("Shopkeeper activated",
		zap.String("order_id", orderID),
		zap.String("plan", entry.Plan),
		zap.Time("due_date", dueDate))

	return &CallbackResult{Status: model.PaymentCompleted, ActivationCode: code}, nil
}

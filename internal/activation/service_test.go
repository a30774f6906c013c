package activation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zeloxinc/zel-shop-server/internal/mocks"
	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/internal/mpesa"
	"github.com/zeloxinc/zel-shop-server/internal/store"
	"github.com/zeloxinc/zel-shop-server/pkg/config"
)

var testBilling = &config.BillingConfig{
	PlanPrices:    map[string]int{"daily": 10, "weekly": 65, "monthly": 250},
	PlanDurations: map[string]int{"daily": 1, "weekly": 7, "monthly": 30},
}

func knownKeeperStore() *mocks.MockKeeperStore {
	keepers := mocks.NewMockKeeperStore()
	keepers.FindByPhoneFunc = func(ctx context.Context, phone string) (*model.Shopkeeper, error) {
		return &model.Shopkeeper{ID: 1, Phone: phone}, nil
	}
	return keepers
}

func newTestService(keepers *mocks.MockKeeperStore, ledger *mocks.MockPaymentLedger, gateway Gateway) *Service {
	svc := NewService(keepers, ledger, gateway, testBilling, "https://api.example.com", zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	svc.newOrderID = func() string { return "order-123" }
	return svc
}

// ledgerCheckingGateway snapshots the ledger status for an order at the
// moment the push goes out, so the write-before-push ordering is observable.
type ledgerCheckingGateway struct {
	*mocks.MockGateway
	ledger       *mocks.MockPaymentLedger
	orderID      string
	statusAtPush string
}

func (g *ledgerCheckingGateway) InitiateSTKPush(ctx context.Context, token, phone string, amount int, callbackURL, accountRef, description string) (string, error) {
	g.statusAtPush = g.ledger.Status(g.orderID)
	return g.MockGateway.InitiateSTKPush(ctx, token, phone, amount, callbackURL, accountRef, description)
}

func TestInitiateActivation(t *testing.T) {
	t.Run("records pending entry before the push goes out", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		gateway := &ledgerCheckingGateway{
			MockGateway: mocks.NewMockGateway(),
			ledger:      ledger,
			orderID:     "order-123",
		}
		svc := newTestService(knownKeeperStore(), ledger, gateway)

		result, err := svc.InitiateActivation(context.Background(), "0712345678", "weekly")
		require.NoError(t, err)

		assert.Equal(t, "order-123", result.OrderID)
		assert.Equal(t, 65, result.Amount)
		assert.Equal(t, "ws_CO_TEST", result.CheckoutRequestID)
		assert.Equal(t, model.PaymentPending, gateway.statusAtPush)
		assert.Equal(t, model.PaymentPending, ledger.Status("order-123"))
	})

	t.Run("push carries normalized phone and order-scoped callback", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		gateway := mocks.NewMockGateway()
		svc := newTestService(knownKeeperStore(), ledger, gateway)

		_, err := svc.InitiateActivation(context.Background(), "0712345678", "monthly")
		require.NoError(t, err)

		require.Len(t, gateway.PushCalls, 1)
		call := gateway.PushCalls[0]
		assert.Equal(t, "254712345678", call.Phone)
		assert.Equal(t, 250, call.Amount)
		assert.Equal(t, "test-token", call.Token)
		assert.Equal(t, "https://api.example.com/api/v1/payment/callback/activation/order-123", call.CallbackURL)
		assert.Equal(t, "ZELSHOP-monthly", call.AccountRef)
	})

	t.Run("unknown phone fails without touching the gateway", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		gateway := mocks.NewMockGateway()
		svc := newTestService(mocks.NewMockKeeperStore(), ledger, gateway)

		_, err := svc.InitiateActivation(context.Background(), "0712345678", "daily")
		assert.ErrorIs(t, err, ErrUnknownAccount)
		assert.Empty(t, gateway.PushCalls)
		assert.Zero(t, ledger.Len())
	})

	t.Run("invalid phone format", func(t *testing.T) {
		svc := newTestService(knownKeeperStore(), mocks.NewMockPaymentLedger(), mocks.NewMockGateway())

		_, err := svc.InitiateActivation(context.Background(), "12345", "daily")
		assert.ErrorIs(t, err, mpesa.ErrInvalidPhone)
	})

	t.Run("unknown plan", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		svc := newTestService(knownKeeperStore(), ledger, mocks.NewMockGateway())

		_, err := svc.InitiateActivation(context.Background(), "0712345678", "yearly")
		assert.ErrorIs(t, err, ErrInvalidPlan)
		assert.Zero(t, ledger.Len())
	})

	t.Run("token failure leaves no ledger entry", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		gateway := mocks.NewMockGateway()
		gateway.TokenErr = &mpesa.ErrUnavailable{Err: errors.New("connection refused")}
		svc := newTestService(knownKeeperStore(), ledger, gateway)

		_, err := svc.InitiateActivation(context.Background(), "0712345678", "daily")
		require.Error(t, err)
		assert.Zero(t, ledger.Len())
	})

	t.Run("rejected push closes the entry as failed", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		gateway := mocks.NewMockGateway()
		gateway.PushErr = &mpesa.ErrRejected{Code: "1", Detail: "Invalid Amount"}
		svc := newTestService(knownKeeperStore(), ledger, gateway)

		_, err := svc.InitiateActivation(context.Background(), "0712345678", "daily")
		var rejected *mpesa.ErrRejected
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, model.PaymentFailed, ledger.Status("order-123"))
	})

	t.Run("gateway outage after recording keeps the pending entry", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		gateway := mocks.NewMockGateway()
		gateway.PushErr = &mpesa.ErrUnavailable{Err: errors.New("timeout")}
		svc := newTestService(knownKeeperStore(), ledger, gateway)

		_, err := svc.InitiateActivation(context.Background(), "0712345678", "daily")
		require.Error(t, err)
		assert.Equal(t, model.PaymentPending, ledger.Status("order-123"))
	})
}

func TestHandleCallback(t *testing.T) {
	initiate := func(t *testing.T, svc *Service, plan string) string {
		t.Helper()
		result, err := svc.InitiateActivation(context.Background(), "0712345678", plan)
		require.NoError(t, err)
		return result.OrderID
	}

	t.Run("success activates the keeper and completes the order", func(t *testing.T) {
		keepers := knownKeeperStore()
		ledger := mocks.NewMockPaymentLedger()
		svc := newTestService(keepers, ledger, mocks.NewMockGateway())
		orderID := initiate(t, svc, "weekly")

		result, err := svc.HandleCallback(context.Background(), orderID, 0)
		require.NoError(t, err)

		assert.Equal(t, model.PaymentCompleted, result.Status)
		assert.False(t, result.Replayed)
		assert.NotEmpty(t, result.ActivationCode)
		assert.Equal(t, model.PaymentCompleted, ledger.Status(orderID))

		require.Len(t, keepers.ActivateCalls, 1)
		call := keepers.ActivateCalls[0]
		assert.Equal(t, "0712345678", call.Phone)
		assert.Equal(t, "weekly", call.Plan)
		assert.Equal(t, result.ActivationCode, call.ActivationCode)
		// weekly plan: 7 days from the injected clock
		assert.Equal(t, time.Date(2026, 3, 22, 12, 0, 0, 0, time.UTC), call.DueDate)
	})

	t.Run("due date follows the plan duration", func(t *testing.T) {
		for plan, wantDays := range map[string]int{"daily": 1, "weekly": 7, "monthly": 30} {
			keepers := knownKeeperStore()
			svc := newTestService(keepers, mocks.NewMockPaymentLedger(), mocks.NewMockGateway())
			orderID := initiate(t, svc, plan)

			_, err := svc.HandleCallback(context.Background(), orderID, 0)
			require.NoError(t, err)

			require.Len(t, keepers.ActivateCalls, 1)
			want := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC).AddDate(0, 0, wantDays)
			assert.Equal(t, want, keepers.ActivateCalls[0].DueDate, "plan %s", plan)
		}
	})

	t.Run("non-zero result code marks failed without activating", func(t *testing.T) {
		keepers := knownKeeperStore()
		ledger := mocks.NewMockPaymentLedger()
		svc := newTestService(keepers, ledger, mocks.NewMockGateway())
		orderID := initiate(t, svc, "daily")

		result, err := svc.HandleCallback(context.Background(), orderID, 1032)
		require.NoError(t, err)

		assert.Equal(t, model.PaymentFailed, result.Status)
		assert.Empty(t, keepers.ActivateCalls)
		assert.Equal(t, model.PaymentFailed, ledger.Status(orderID))
	})

	t.Run("unknown order never creates an entry", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		svc := newTestService(knownKeeperStore(), ledger, mocks.NewMockGateway())

		_, err := svc.HandleCallback(context.Background(), "no-such-order", 0)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Zero(t, ledger.Len())
	})

	t.Run("replayed success callback is a no-op", func(t *testing.T) {
		keepers := knownKeeperStore()
		ledger := mocks.NewMockPaymentLedger()
		svc := newTestService(keepers, ledger, mocks.NewMockGateway())
		orderID := initiate(t, svc, "weekly")

		first, err := svc.HandleCallback(context.Background(), orderID, 0)
		require.NoError(t, err)
		require.False(t, first.Replayed)

		second, err := svc.HandleCallback(context.Background(), orderID, 0)
		require.NoError(t, err)

		assert.True(t, second.Replayed)
		assert.Equal(t, model.PaymentCompleted, second.Status)
		// activation ran exactly once
		assert.Len(t, keepers.ActivateCalls, 1)
	})

	t.Run("late failure callback cannot flip a completed order", func(t *testing.T) {
		ledger := mocks.NewMockPaymentLedger()
		svc := newTestService(knownKeeperStore(), ledger, mocks.NewMockGateway())
		orderID := initiate(t, svc, "daily")

		_, err := svc.HandleCallback(context.Background(), orderID, 0)
		require.NoError(t, err)

		result, err := svc.HandleCallback(context.Background(), orderID, 1)
		require.NoError(t, err)

		assert.True(t, result.Replayed)
		assert.Equal(t, model.PaymentCompleted, result.Status)
		assert.Equal(t, model.PaymentCompleted, ledger.Status(orderID))
	})

	t.Run("activation failure leaves the order pending for retry", func(t *testing.T) {
		keepers := knownKeeperStore()
		keepers.ActivateFunc = func(ctx context.Context, phone, plan string, dueDate time.Time, code string) error {
			return store.ErrNotFound
		}
		ledger := mocks.NewMockPaymentLedger()
		svc := newTestService(keepers, ledger, mocks.NewMockGateway())
		orderID := initiate(t, svc, "weekly")

		_, err := svc.HandleCallback(context.Background(), orderID, 0)
		require.Error(t, err)
		assert.Equal(t, model.PaymentPending, ledger.Status(orderID))
	})

	t.Run("concurrent orders for one phone resolve independently", func(t *testing.T) {
		keepers := knownKeeperStore()
		ledger := mocks.NewMockPaymentLedger()
		svc := newTestService(keepers, ledger, mocks.NewMockGateway())

		ids := []string{"order-a", "order-b"}
		n := 0
		svc.newOrderID = func() string { id := ids[n]; n++; return id }

		_, err := svc.InitiateActivation(context.Background(), "0712345678", "daily")
		require.NoError(t, err)
		_, err = svc.InitiateActivation(context.Background(), "0712345678", "weekly")
		require.NoError(t, err)

		_, err = svc.HandleCallback(context.Background(), "order-a", 1)
		require.NoError(t, err)
		result, err := svc.HandleCallback(context.Background(), "order-b", 0)
		require.NoError(t, err)

		assert.Equal(t, model.PaymentFailed, ledger.Status("order-a"))
		assert.Equal(t, model.PaymentCompleted, ledger.Status("order-b"))
		assert.Equal(t, model.PaymentCompleted, result.Status)
		require.Len(t, keepers.ActivateCalls, 1)
		assert.Equal(t, "weekly", keepers.ActivateCalls[0].Plan)
	})
}

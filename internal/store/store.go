package store

import (
	"context"
	"errors"
	"time"

	"github.com/zeloxinc/zel-shop-server/internal/model"
)

// Sentinel errors returned by the stores. Handlers map these to HTTP
// statuses; raw database errors never cross this boundary.
var (
	ErrDuplicatePhone     = errors.New("phone already registered")
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidKey         = errors.New("invalid api key")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrUnknownOrder       = errors.New("unknown order")
	ErrNoShop             = errors.New("no shop assigned")
)

// KeeperProfile is the signup input for a shopkeeper
type KeeperProfile struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// ShopProfile is the input for creating or updating a shop
type ShopProfile struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// KeeperStore persists shopkeepers and shops. Implementations are injected
// into the handlers and the activation service so tests can substitute fakes.
type KeeperStore interface {
	// CreateShopkeeper stores a new unverified, inactive shopkeeper with a
	// hashed password, a fresh keeper code and a single-use activation code.
	CreateShopkeeper(ctx context.Context, profile KeeperProfile, password string) (*model.Shopkeeper, error)

	// FindByPhone looks up a shopkeeper by phone number.
	FindByPhone(ctx context.Context, phone string) (*model.Shopkeeper, error)

	// VerifyCredentials checks phone+password. It fails with
	// ErrInvalidCredentials whether the phone is unknown or the password
	// mismatches, so callers cannot enumerate accounts.
	VerifyCredentials(ctx context.Context, phone, password string) (*model.Shopkeeper, error)

	// Activate marks the keeper active with the given plan and due date and
	// installs a fresh single-use activation code.
	Activate(ctx context.Context, phone, plan string, dueDate time.Time, activationCode string) error

	// ConsumeActivationCode verifies the keeper using the single-use code
	// issued by a successful payment, clearing the code on success.
	ConsumeActivationCode(ctx context.Context, phone, code string) (*model.Shopkeeper, error)

	// ResolveAPIKey resolves a shop API key to the shop and its keeper.
	ResolveAPIKey(ctx context.Context, apiKey string) (*model.Shop, *model.Shopkeeper, error)

	// CreateShopForKeeper inserts a shop with a freshly generated API key and
	// links the keeper to it in the same transaction.
	CreateShopForKeeper(ctx context.Context, keeperID uint, profile ShopProfile) (*model.Shop, error)

	// GetKeeper fetches a keeper with its shop preloaded.
	GetKeeper(ctx context.Context, keeperID uint) (*model.Shopkeeper, error)

	// ListShopKeepers returns all keepers belonging to a shop.
	ListShopKeepers(ctx context.Context, shopID uint) ([]model.Shopkeeper, error)

	// GetShop fetches a shop by id.
	GetShop(ctx context.Context, shopID uint) (*model.Shop, error)

	// UpdateShop updates the shop profile fields.
	UpdateShop(ctx context.Context, shopID uint, profile ShopProfile) (*model.Shop, error)

	// DeleteShop unlinks all keepers and deletes the shop in one transaction.
	DeleteShop(ctx context.Context, shopID uint) error
}

// PaymentLedger tracks provisional payment transactions keyed by order id.
// Entries are written before the STK push is issued and reach at most one
// terminal status; they are never deleted.
type PaymentLedger interface {
	Record(ctx context.Context, orderID, phone string, amount int, plan string) error
	Get(ctx context.Context, orderID string) (*model.PendingPayment, error)

	// MarkCompleted and MarkFailed fail with ErrUnknownOrder for absent ids
	// and are no-ops when the entry already carries the requested terminal
	// status, so replayed gateway callbacks cannot corrupt the ledger.
	MarkCompleted(ctx context.Context, orderID string) error
	MarkFailed(ctx context.Context, orderID string) error
}

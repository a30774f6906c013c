package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/zeloxinc/zel-shop-server/internal/model"
)

// GormPaymentLedger is the PostgreSQL-backed PaymentLedger
type GormPaymentLedger struct {
	db *gorm.DB
}

// NewPaymentLedger creates a PaymentLedger over the given database handle
func NewPaymentLedger(db *gorm.DB) *GormPaymentLedger {
	return &GormPaymentLedger{db: db}
}

func (l *GormPaymentLedger) Record(ctx context.Context, orderID, phone string, amount int, plan string) error {
	entry := &model.PendingPayment{
		OrderID: orderID,
		Phone:   phone,
		Amount:  amount,
		Plan:    plan,
		Status:  model.PaymentPending,
	}
	return l.db.WithContext(ctx).Create(entry).Error
}

func (l *GormPaymentLedger) Get(ctx context.Context, orderID string) (*model.PendingPayment, error) {
	var entry model.PendingPayment
	result := l.db.WithContext(ctx).Where("order_id = ?", orderID).First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownOrder
		}
		return nil, result.Error
	}
	return &entry, nil
}

func (l *GormPaymentLedger) MarkCompleted(ctx context.Context, orderID string) error {
	return l.markTerminal(ctx, orderID, model.PaymentCompleted)
}

func (l *GormPaymentLedger) MarkFailed(ctx context.Context, orderID string) error {
	return l.markTerminal(ctx, orderID, model.PaymentFailed)
}

// markTerminal applies a terminal status. The guard on the current status
// makes a replayed callback a no-op instead of a second transition.
func (l *GormPaymentLedger) markTerminal(ctx context.Context, orderID, status string) error {
	result := l.db.WithContext(ctx).Model(&model.PendingPayment{}).
		Where("order_id = ? AND status = ?", orderID, model.PaymentPending).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the order does not exist or it is already terminal
		var count int64
		if err := l.db.WithContext(ctx).Model(&model.PendingPayment{}).
			Where("order_id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUnknownOrder
		}
	}
	return nil
}

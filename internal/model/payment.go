package model

import (
	"time"
)

// Pending payment status values
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// PendingPayment is one payment attempt and its terminal outcome. The order
// id correlates the STK push with its eventual callback. Rows are kept
// forever as an audit trail.
type PendingPayment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   string    `json:"order_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(20);index;not null"`
	Amount    int       `json:"amount" gorm:"not null"`
	Plan      string    `json:"plan" gorm:"type:varchar(20);not null"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the entry has reached a final status.
func (p *PendingPayment) Terminal() bool {
	return p.Status == PaymentCompleted || p.Status == PaymentFailed
}

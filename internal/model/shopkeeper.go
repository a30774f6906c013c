package model

import (
	"time"

	"gorm.io/gorm"
)

// Plan type values for Shopkeeper.PlanType
const (
	PlanDaily   = "daily"
	PlanWeekly  = "weekly"
	PlanMonthly = "monthly"
)

// Shopkeeper represents an individual account operating on behalf of a shop.
// The phone number is the primary login key and is unique across tenants.
type Shopkeeper struct {
	ID             uint           `json:"keeper_id" gorm:"primaryKey"`
	KeeperCode     string         `json:"keeper_code" gorm:"type:varchar(20);uniqueIndex"`
	FirstName      string         `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName       string         `json:"last_name" gorm:"type:varchar(100)"`
	Phone          string         `json:"phone" gorm:"type:varchar(20);uniqueIndex;not null"`
	Email          string         `json:"email" gorm:"type:varchar(100)"`
	PasswordHash   string         `json:"-" gorm:"type:varchar(255);not null"`
	Role           string         `json:"role" gorm:"type:varchar(20);not null;default:'owner'"`
	IsVerified     bool           `json:"is_verified" gorm:"default:false"`
	IsActive       bool           `json:"is_active" gorm:"default:false"`
	PlanType       string         `json:"plan_type" gorm:"type:varchar(20)"`
	DueDate        *time.Time     `json:"due_date"`
	ActivationCode string         `json:"-" gorm:"type:varchar(64)"` // single-use, distinct from the shop API key
	ShopID         *uint          `json:"shop_id,omitempty" gorm:"index"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Shop *Shop `json:"shop,omitempty" gorm:"foreignKey:ShopID"`
}

// HasValidPlan reports whether the keeper's paid plan covers the given time.
// A keeper is usable only when IsActive and the plan has not lapsed.
func (k *Shopkeeper) HasValidPlan(now time.Time) bool {
	if !k.IsActive {
		return false
	}
	if k.DueDate == nil {
		return true
	}
	return k.DueDate.After(now)
}

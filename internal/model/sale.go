package model

import (
	"time"
)

// Sale is one point-of-sale transaction line uploaded by a shop
type Sale struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ShopID     uint      `json:"shop_id" gorm:"index;not null"`
	VariantID  uint      `json:"variant_id" gorm:"index;not null"`
	Quantity   float64   `json:"quantity" gorm:"not null"`
	UnitPrice  float64   `json:"unit_price" gorm:"not null"`
	TotalPrice float64   `json:"total_price" gorm:"not null"`
	SaleDate   time.Time `json:"sale_date" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// ProductType is the catalog-level product (e.g. "Cooking Oil"), scoped to a shop
type ProductType struct {
	ID          uint           `json:"type_id" gorm:"primaryKey"`
	ShopID      uint           `json:"shop_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Brand       string         `json:"brand" gorm:"type:varchar(100)"`
	Category    string         `json:"category" gorm:"type:varchar(100)"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Variants []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:TypeID"`
}

// ProductVariant is the sellable unit of a product type (a concrete size/price)
type ProductVariant struct {
	ID           uint           `json:"variant_id" gorm:"primaryKey"`
	TypeID       uint           `json:"type_id" gorm:"index;not null"`
	ShopID       uint           `json:"shop_id" gorm:"index;not null"`
	Size         string         `json:"size" gorm:"type:varchar(50);not null"`
	SizeUnit     string         `json:"size_unit" gorm:"type:varchar(20)"`
	SellUnit     string         `json:"sell_unit" gorm:"type:varchar(20);not null"`
	PricePerUnit float64        `json:"price_per_unit" gorm:"not null"`
	CurrentStock float64        `json:"current_stock" gorm:"default:0"`
	Barcode      string         `json:"barcode" gorm:"type:varchar(64)"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

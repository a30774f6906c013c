package model

import (
	"time"

	"gorm.io/gorm"
)

// Shop represents a tenant: the unit of data isolation. The API key is the
// durable bearer credential for the shop and is generated exactly once.
type Shop struct {
	ID        uint           `json:"shop_id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Phone     string         `json:"phone" gorm:"type:varchar(20)"`
	Email     string         `json:"email" gorm:"type:varchar(100)"`
	Address   string         `json:"address" gorm:"type:text"`
	APIKey    string         `json:"api_key" gorm:"type:varchar(64);uniqueIndex;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Shopkeepers []Shopkeeper `json:"shopkeepers,omitempty" gorm:"foreignKey:ShopID"`
}

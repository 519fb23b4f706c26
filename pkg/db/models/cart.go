package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Cart is the single cart owned by a user.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CartItem doubles as an order line once placed. Price is a snapshot of the
// variant price at the time it was added.
type CartItem struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CartID        uuid.UUID            `gorm:"column:cart_id;type:uuid;not null;index"`
	VariantID     uuid.UUID            `gorm:"column:variant_id;type:uuid;not null;index"`
	Variant       *ProductVariant      `gorm:"foreignKey:VariantID"`
	AddressID     uuid.UUID            `gorm:"column:address_id;type:uuid;not null"`
	Address       *Address             `gorm:"foreignKey:AddressID"`
	Quantity      int                  `gorm:"column:quantity;not null"`
	Price         string               `gorm:"column:price;not null"`
	Phone         string               `gorm:"column:phone;not null"`
	Status        enums.CartItemStatus `gorm:"column:status;type:text;not null;default:'UNVERIFIED'"`
	PaymentMethod enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null;default:'CASH_ON_DELIVERY'"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

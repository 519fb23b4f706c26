package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog listing. Prices live on its variants.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Title         string           `gorm:"column:title;not null"`
	Description   string           `gorm:"column:description;not null;default:''"`
	DisplayImages []string         `gorm:"column:display_images;serializer:json;type:text"`
	CategoryID    uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index"`
	Category      *Category        `gorm:"foreignKey:CategoryID"`
	Variants      []ProductVariant `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime;index"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant is a purchasable option of a product. Price, InStock and
// DiscountPrice are decimal strings as entered by the admin.
type ProductVariant struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	Name           string     `gorm:"column:name;not null"`
	Image          string     `gorm:"column:image;not null;default:''"`
	Price          string     `gorm:"column:price;not null"`
	InStock        string     `gorm:"column:in_stock;not null"`
	DiscountPrice  *string    `gorm:"column:discount_price"`
	DiscountExpiry *time.Time `gorm:"column:discount_expiry"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

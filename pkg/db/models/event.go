package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a promotion that groups products.
type Event struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Title       string     `gorm:"column:title;not null"`
	Description string     `gorm:"column:description;not null;default:''"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// ProductEvent is the single source of truth for product and event membership.
type ProductEvent struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	EventID   uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProductEvent) TableName() string {
	return "product_events"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User represents a shopper or an admin.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Username     string         `gorm:"column:username;not null"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'USER'"`
	IsVerified   bool           `gorm:"column:is_verified;not null;default:false"`
	Avatar       string         `gorm:"column:avatar;not null;default:''"`
	Phone        *string        `gorm:"column:phone"`
	Addresses    []Address      `gorm:"foreignKey:UserID"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// Address is a geocoded delivery location owned by a user.
type Address struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Lat         float64   `gorm:"column:lat;not null"`
	Lng         float64   `gorm:"column:lng;not null"`
	HouseNumber string    `gorm:"column:house_number;not null;default:''"`
	Road        string    `gorm:"column:road;not null;default:''"`
	Suburb      string    `gorm:"column:suburb;not null;default:''"`
	City        string    `gorm:"column:city;not null;default:''"`
	State       string    `gorm:"column:state;not null;default:''"`
	Country     string    `gorm:"column:country;not null;default:''"`
	Postcode    string    `gorm:"column:postcode;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// EmailCode backs a single verification or password-reset link.
type EmailCode struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Purpose   enums.EmailCodePurpose `gorm:"column:purpose;type:text;not null"`
	Code      string                 `gorm:"column:code;not null"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (c *EmailCode) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

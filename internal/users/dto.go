package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Role        enums.UserRole  `json:"role"`
	IsVerified  bool            `json:"isVerified"`
	Avatar      string          `json:"avatar"`
	Phone       *string         `json:"phone"`
	Addresses   []types.Address `json:"addresses"`
	LastLoginAt *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	addresses := make([]types.Address, 0, len(u.Addresses))
	for i := range u.Addresses {
		addresses = append(addresses, *types.AddressFromModel(&u.Addresses[i]))
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		Avatar:      u.Avatar,
		Phone:       u.Phone,
		Addresses:   addresses,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// AddressInput is one address in a profile update. A nil ID creates it.
type AddressInput struct {
	ID          *uuid.UUID
	Lat         float64
	Lng         float64
	HouseNumber string
	Road        string
	Suburb      string
	City        string
	State       string
	Country     string
	Postcode    string
}

func (a AddressInput) toModel(userID uuid.UUID) *models.Address {
	m := &models.Address{
		UserID:      userID,
		Lat:         a.Lat,
		Lng:         a.Lng,
		HouseNumber: a.HouseNumber,
		Road:        a.Road,
		Suburb:      a.Suburb,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		Postcode:    a.Postcode,
	}
	if a.ID != nil {
		m.ID = *a.ID
	}
	return m
}

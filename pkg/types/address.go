package types

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Address is the wire shape of a delivery address.
type Address struct {
	ID          uuid.UUID `json:"id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	HouseNumber string    `json:"houseNumber"`
	Road        string    `json:"road"`
	Suburb      string    `json:"suburb"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Postcode    string    `json:"postcode"`
}

func AddressFromModel(a *models.Address) *Address {
	if a == nil {
		return nil
	}
	return &Address{
		ID:          a.ID,
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
}

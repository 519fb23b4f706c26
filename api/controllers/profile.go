package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type addressRequest struct {
	ID          *uuid.UUID `json:"id"`
	UserID      *uuid.UUID `json:"userId"`
	Lat         float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lng         float64    `json:"lng" validate:"gte=-180,lte=180"`
	HouseNumber string     `json:"houseNumber"`
	Road        string     `json:"road"`
	Suburb      string     `json:"suburb"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	Country     string     `json:"country"`
	Postcode    string     `json:"postcode"`
}

// updateProfileRequest keeps the id and email fields the client echoes back.
// The profile updated is always the session user's.
type updateProfileRequest struct {
	ID        *uuid.UUID       `json:"id"`
	Email     *string          `json:"email"`
	Username  *string          `json:"username"`
	Phone     *string          `json:"phone"`
	Avatar    *string          `json:"avatar"`
	Addresses []addressRequest `json:"addresses" validate:"dive"`
}

func (p updateProfileRequest) toInput() users.ProfileInput {
	addresses := make([]users.AddressInput, len(p.Addresses))
	for i, a := range p.Addresses {
		addresses[i] = users.AddressInput{
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
	return users.ProfileInput{
		Username:  p.Username,
		Phone:     p.Phone,
		Avatar:    p.Avatar,
		Addresses: addresses,
	}
}

func UpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("user"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.UpdateProfile(r.Context(), userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Profile updated successfully", "user", user)
	}
}

// DeleteAddress only removes addresses owned by the session user.
func DeleteAddress(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("user"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		address, err := svc.DeleteAddress(r.Context(), userID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Address deleted successfully", "address", address)
	}
}

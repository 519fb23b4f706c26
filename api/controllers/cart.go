package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// addToCartRequest still accepts userId and price from older clients. The
// session user and the variant's current price are used instead.
type addToCartRequest struct {
	UserID        *uuid.UUID `json:"userId"`
	ItemID        uuid.UUID  `json:"itemId" validate:"required"`
	Quantity      int        `json:"quantity" validate:"required,gt=0"`
	Phone         string     `json:"phone" validate:"required"`
	AddressID     uuid.UUID  `json:"addressId" validate:"required"`
	PaymentMethod string     `json:"paymentMethod" validate:"required"`
	Price         *string    `json:"price"`
}

type updateCartItemRequest struct {
	CartItemID    uuid.UUID  `json:"cartItemId" validate:"required"`
	Phone         *string    `json:"phone"`
	AddressID     *uuid.UUID `json:"addressId"`
	PaymentMethod *string    `json:"paymentMethod"`
}

func AddToCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body addToCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.AddToCart(r.Context(), userID, cart.AddInput{
			VariantID:     body.ItemID,
			Quantity:      body.Quantity,
			Phone:         body.Phone,
			AddressID:     body.AddressID,
			PaymentMethod: body.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product variant added to cart successfully", "cart", result)
	}
}

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Cart fetched successfully", "cart", result)
	}
}

func UpdateCartItemInfo(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.UpdateItemInfo(r.Context(), userID, cart.UpdateItemInput{
			ItemID:        body.CartItemID,
			Phone:         body.Phone,
			AddressID:     body.AddressID,
			PaymentMethod: body.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Cart info updated successfully", "cartItem", item)
	}
}

func DeleteCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.DeleteItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Cart item deleted successfully", "cartItem", item)
	}
}

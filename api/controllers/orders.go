package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type orderRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

func GetAllOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Orders fetched successfully", "orders", list)
	}
}

func VerifyOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionOrder(svc, logg, "Order verified successfully", func(ctx context.Context, id uuid.UUID) (*cart.ItemDTO, error) {
		return svc.Verify(ctx, id)
	})
}

func ShipOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionOrder(svc, logg, "Order shipped successfully", func(ctx context.Context, id uuid.UUID) (*cart.ItemDTO, error) {
		return svc.Ship(ctx, id)
	})
}

// transitionOrder reads {id} from the body and applies step to it.
func transitionOrder(svc orders.Service, logg *logger.Logger, message string, step func(context.Context, uuid.UUID) (*cart.ItemDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
			return
		}
		var body orderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := step(r.Context(), body.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, message, "order", order)
	}
}

func DeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
			return
		}
		id, err := validators.ParseQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Delete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Order deleted successfully", "order", order)
	}
}

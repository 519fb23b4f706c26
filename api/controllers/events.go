package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/events"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type eventRequest struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description"`
	IsActive    bool        `json:"isActive"`
	ExpiresAt   *time.Time  `json:"expiresAt"`
	ProductIDs  []uuid.UUID `json:"productIds"`
}

type updateEventRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
	eventRequest
}

func (e eventRequest) toInput() events.Input {
	return events.Input{
		Title:       e.Title,
		Description: e.Description,
		IsActive:    e.IsActive,
		ExpiresAt:   e.ExpiresAt,
		ProductIDs:  e.ProductIDs,
	}
}

func GetAllEvents(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("event"))
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Events fetched successfully!", "events", list)
	}
}

func CreateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("event"))
			return
		}
		var body eventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Event created successfully", "event", event)
	}
}

// UpdateEvent reconciles the event's product links against productIds.
func UpdateEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("event"))
			return
		}
		var body updateEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.Update(r.Context(), body.ID, body.eventRequest.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Event updated successfully", "event", event)
	}
}

func DeleteEvent(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("event"))
			return
		}
		id, err := validators.ParseQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Event deleted successfully", "event", event)
	}
}

package events

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type EventDTO struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	IsActive    bool        `json:"isActive"`
	ExpiresAt   *time.Time  `json:"expiresAt"`
	ProductIDs  []uuid.UUID `json:"productIds"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func toDTO(e models.Event, productIDs []uuid.UUID) *EventDTO {
	if productIDs == nil {
		productIDs = []uuid.UUID{}
	}
	return &EventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		IsActive:    e.IsActive,
		ExpiresAt:   e.ExpiresAt,
		ProductIDs:  productIDs,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func newEvent(title string, input Input) *models.Event {
	return &models.Event{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		IsActive:    input.IsActive,
		ExpiresAt:   utcPtr(input.ExpiresAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Links persists product and event membership. Event.productIds and
// Product.eventIds are both read from the same product_events rows.
type Links struct {
	db *gorm.DB
}

func NewLinks(db *gorm.DB) *Links {
	return &Links{db: db}
}

func (l *Links) WithTx(tx *gorm.DB) *Links {
	return &Links{db: tx}
}

// ProductIDs returns the products attached to each event.
func (l *Links) ProductIDs(ctx context.Context, eventIDs ...uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	return l.group(ctx, "event_id", eventIDs, func(pe models.ProductEvent) (uuid.UUID, uuid.UUID) {
		return pe.EventID, pe.ProductID
	})
}

// EventIDs returns the events each product belongs to.
func (l *Links) EventIDs(ctx context.Context, productIDs ...uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	return l.group(ctx, "product_id", productIDs, func(pe models.ProductEvent) (uuid.UUID, uuid.UUID) {
		return pe.ProductID, pe.EventID
	})
}

func (l *Links) group(ctx context.Context, column string, ids []uuid.UUID, split func(models.ProductEvent) (uuid.UUID, uuid.UUID)) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductEvent
	if err := l.db.WithContext(ctx).
		Where(fmt.Sprintf("%s IN ?", column), ids).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		key, value := split(row)
		out[key] = append(out[key], value)
	}
	return out, nil
}

// ApplyForEvent adds and removes products on a single event.
func (l *Links) ApplyForEvent(ctx context.Context, eventID uuid.UUID, d Delta) error {
	return l.apply(ctx, d, func(productID uuid.UUID) models.ProductEvent {
		return models.ProductEvent{ProductID: productID, EventID: eventID}
	}, "event_id = ? AND product_id IN ?", eventID)
}

// ApplyForProduct adds and removes events on a single product.
func (l *Links) ApplyForProduct(ctx context.Context, productID uuid.UUID, d Delta) error {
	return l.apply(ctx, d, func(eventID uuid.UUID) models.ProductEvent {
		return models.ProductEvent{ProductID: productID, EventID: eventID}
	}, "product_id = ? AND event_id IN ?", productID)
}

func (l *Links) apply(ctx context.Context, d Delta, row func(uuid.UUID) models.ProductEvent, removeWhere string, owner uuid.UUID) error {
	tx := l.db.WithContext(ctx)
	if len(d.Removed) > 0 {
		if err := tx.Where(removeWhere, owner, d.Removed).Delete(&models.ProductEvent{}).Error; err != nil {
			return err
		}
	}
	if len(d.Added) == 0 {
		return nil
	}
	rows := make([]models.ProductEvent, 0, len(d.Added))
	for _, id := range d.Added {
		rows = append(rows, row(id))
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (l *Links) ClearEvent(ctx context.Context, eventID uuid.UUID) error {
	return l.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&models.ProductEvent{}).Error
}

func (l *Links) ClearProduct(ctx context.Context, productID uuid.UUID) error {
	return l.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductEvent{}).Error
}

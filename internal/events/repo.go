package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists events.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	var rows []models.Event
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var row models.Event
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"title":       e.Title,
			"description": e.Description,
			"is_active":   e.IsActive,
			"expires_at":  e.ExpiresAt,
		}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id).Error
}

// DeactivateExpired switches off active events whose expiry is at or before now.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// MissingProducts returns the ids that do not match a product row.
func (r *Repository) MissingProducts(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return missing(ctx, r.db, &models.Product{}, ids)
}

// MissingEvents returns the ids that do not match an event row.
func (r *Repository) MissingEvents(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return missing(ctx, r.db, &models.Event{}, ids)
}

func missing(ctx context.Context, db *gorm.DB, model any, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	have := toSet(found)
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

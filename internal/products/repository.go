package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository wires together product and variant persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Search applies the text and category match, the updatedAt order and paging.
// Query and Category are expected lower-cased.
func (r *Repository) Search(ctx context.Context, q SearchQuery) ([]models.Product, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Joins("JOIN categories ON categories.id = products.category_id")

	if q.Query != "" {
		tx = tx.Where(`LOWER(products.title) LIKE ? ESCAPE '\'`, containsPattern(q.Query))
	}
	if q.Category != "" {
		tx = tx.Where(`LOWER(categories.name) LIKE ? ESCAPE '\'`, containsPattern(q.Category))
	}

	direction := "DESC"
	if q.UpdatedAtOrder == enums.SortOrderAsc {
		direction = "ASC"
	}
	tx = tx.Order("products.updated_at " + direction).Order("products.id ASC")

	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []models.Product
	if err := tx.
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

// FindByID loads the product with its category and variants.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateProduct inserts the product row only. Variants are written separately.
func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Variants").Create(p).Error
}

func (r *Repository) UpdateProduct(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).
		Model(p).
		Select("title", "description", "display_images", "category_id").
		Updates(p).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

func (r *Repository) CreateVariants(ctx context.Context, variants []models.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&variants).Error
}

func (r *Repository) UpdateVariant(ctx context.Context, v *models.ProductVariant) error {
	return r.db.WithContext(ctx).
		Model(v).
		Select("name", "image", "price", "in_stock", "discount_price", "discount_expiry").
		Updates(v).Error
}

func (r *Repository) DeleteVariants(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ProductVariant{}).Error
}

func (r *Repository) DeleteVariantsByProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductVariant{}).Error
}

// DeleteCartLines removes cart items that point at the given variants.
func (r *Repository) DeleteCartLines(ctx context.Context, variantIDs []uuid.UUID) error {
	if len(variantIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("variant_id IN ?", variantIDs).Delete(&models.CartItem{}).Error
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository defines persistence operations for order lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.CartItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	// TransitionStatus moves the line from one status to the next and reports
	// whether a row matched.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.CartItemStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// VariantSummary is the variant snapshot shown next to a cart line.
type VariantSummary struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     string    `json:"price"`
}

// ItemDTO is a cart line. Orders reuse it since every line is also an order.
type ItemDTO struct {
	ID            uuid.UUID            `json:"id"`
	CartID        uuid.UUID            `json:"cartId"`
	VariantID     uuid.UUID            `json:"itemId"`
	Item          *VariantSummary      `json:"item"`
	AddressID     uuid.UUID            `json:"addressId"`
	Address       *types.Address       `json:"address"`
	Quantity      int                  `json:"quantity"`
	Price         string               `json:"price"`
	Phone         string               `json:"phone"`
	Status        enums.CartItemStatus `json:"status"`
	PaymentMethod enums.PaymentMethod  `json:"paymentMethod"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type CartDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CartItems []ItemDTO `json:"cartItems"`
}

// ItemFromModel converts a loaded cart item. Variant and Address may be nil.
func ItemFromModel(i *models.CartItem) *ItemDTO {
	if i == nil {
		return nil
	}
	out := &ItemDTO{
		ID:            i.ID,
		CartID:        i.CartID,
		VariantID:     i.VariantID,
		AddressID:     i.AddressID,
		Address:       types.AddressFromModel(i.Address),
		Quantity:      i.Quantity,
		Price:         i.Price,
		Phone:         i.Phone,
		Status:        i.Status,
		PaymentMethod: i.PaymentMethod,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
	if v := i.Variant; v != nil {
		out.Item = &VariantSummary{
			ID:        v.ID,
			ProductID: v.ProductID,
			Name:      v.Name,
			Image:     v.Image,
			Price:     v.Price,
		}
	}
	return out
}

func fromModel(c *models.Cart) *CartDTO {
	items := make([]ItemDTO, 0, len(c.Items))
	for i := range c.Items {
		items = append(items, *ItemFromModel(&c.Items[i]))
	}
	return &CartDTO{ID: c.ID, UserID: c.UserID, CartItems: items}
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service manages the signed-in user's cart.
type Service interface {
	AddToCart(ctx context.Context, userID uuid.UUID, input AddInput) (*CartDTO, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	UpdateItemInfo(ctx context.Context, userID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (*ItemDTO, error)
}

// AddInput describes one line added to the cart. The price is taken from the
// variant at the time of the call.
type AddInput struct {
	VariantID     uuid.UUID
	Quantity      int
	Phone         string
	AddressID     uuid.UUID
	PaymentMethod string
}

// UpdateItemInput carries the delivery details a shopper may change. Nil
// fields are left untouched.
type UpdateItemInput struct {
	ItemID        uuid.UUID
	Phone         *string
	AddressID     *uuid.UUID
	PaymentMethod *string
}

type service struct {
	repo *Repository
	tx   db.TxRunner
	now  func() time.Time
}

func NewService(repo *Repository, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// AddToCart creates the cart on first use and appends the line in the same transaction.
func (s *service) AddToCart(ctx context.Context, userID uuid.UUID, input AddInput) (*CartDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be greater than 0")
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Phone is required")
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid payment method")
	}

	var out *CartDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		variant, err := repo.FindVariant(ctx, input.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if err := ensureAddress(ctx, repo, input.AddressID, userID); err != nil {
			return err
		}

		cart, err := repo.FindByUser(ctx, userID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			cart = &models.Cart{UserID: userID}
			if err := repo.CreateCart(ctx, cart); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		item := &models.CartItem{
			CartID:        cart.ID,
			VariantID:     variant.ID,
			AddressID:     input.AddressID,
			Quantity:      input.Quantity,
			Price:         unitPrice(*variant, s.now()),
			Phone:         phone,
			Status:        enums.CartItemStatusUnverified,
			PaymentMethod: method,
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}

		final, err := repo.FindByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		out = fromModel(final)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetCart returns nil when the user has never added anything.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return fromModel(cart), nil
}

func (s *service) UpdateItemInfo(ctx context.Context, userID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	fields := map[string]any{}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Phone is required")
		}
		fields["phone"] = phone
	}
	if input.PaymentMethod != nil {
		method, err := enums.ParsePaymentMethod(*input.PaymentMethod)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid payment method")
		}
		fields["payment_method"] = method
	}

	var out *ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.ownedItem(ctx, repo, input.ItemID, userID); err != nil {
			return err
		}
		if input.AddressID != nil {
			if err := ensureAddress(ctx, repo, *input.AddressID, userID); err != nil {
				return err
			}
			fields["address_id"] = *input.AddressID
		}
		if err := repo.UpdateItemInfo(ctx, input.ItemID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		item, err := s.ownedItem(ctx, repo, input.ItemID, userID)
		if err != nil {
			return err
		}
		out = ItemFromModel(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.ownedItem(ctx, s.repo, itemID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return ItemFromModel(item), nil
}

// ownedItem hides items of other users behind a not found error.
func (s *service) ownedItem(ctx context.Context, repo *Repository, itemID, userID uuid.UUID) (*models.CartItem, error) {
	item, err := repo.FindOwnedItem(ctx, itemID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return item, nil
}

func ensureAddress(ctx context.Context, repo *Repository, addressID, userID uuid.UUID) error {
	if addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Address is required")
	}
	ok, err := repo.AddressOwnedBy(ctx, addressID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check address")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "Address not found")
	}
	return nil
}

// unitPrice snapshots the discounted price while the discount is running.
func unitPrice(v models.ProductVariant, now time.Time) string {
	if product.IsDiscountActive(v, now) {
		return strings.TrimSpace(*v.DiscountPrice)
	}
	return v.Price
}

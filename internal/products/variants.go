package product

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// VariantInput is a submitted variant. A nil ID creates a new one.
type VariantInput struct {
	ID             *uuid.UUID
	Name           string
	Image          string
	Price          string
	InStock        string
	DiscountPrice  *string
	DiscountExpiry *time.Time
}

// validateVariants checks each variant and the per-product name uniqueness.
func validateVariants(inputs []VariantInput) error {
	if len(inputs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "At least one variant is required")
	}

	names := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		field := func(name string) string { return fmt.Sprintf("variants[%d].%s", i, name) }

		name := strings.TrimSpace(in.Name)
		if name == "" {
			return variantError(field("name"), "Variant name is required")
		}
		if _, dup := names[name]; dup {
			return variantError(field("name"), "Variant names must be unique")
		}
		names[name] = struct{}{}

		price, err := parsePrice(in.Price)
		if err != nil || !price.IsPositive() {
			return variantError(field("price"), "Price must be a positive number")
		}

		stock, err := parseStock(in.InStock)
		if err != nil || stock <= 0 {
			return variantError(field("inStock"), "Stock must be a positive whole number")
		}

		if in.DiscountPrice != nil && strings.TrimSpace(*in.DiscountPrice) != "" {
			discount, err := parsePrice(*in.DiscountPrice)
			if err != nil || discount.IsNegative() || discount.GreaterThan(price) {
				return variantError(field("discountPrice"), "Discount price must be between 0 and the price")
			}
		}
	}
	return nil
}

func variantError(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
}

// variantPlan is how a submitted variant list maps onto the stored one.
type variantPlan struct {
	update []VariantInput
	create []VariantInput
	remove []models.ProductVariant
}

// planVariants splits inputs into updates (known id), creates (no id) and the
// stored variants that were left out. An id from another product is rejected.
func planVariants(existing []models.ProductVariant, inputs []VariantInput) (variantPlan, error) {
	byID := make(map[uuid.UUID]models.ProductVariant, len(existing))
	for _, v := range existing {
		byID[v.ID] = v
	}

	var plan variantPlan
	kept := make(map[uuid.UUID]struct{}, len(inputs))
	for _, in := range inputs {
		if in.ID == nil || *in.ID == uuid.Nil {
			plan.create = append(plan.create, in)
			continue
		}
		if _, ok := byID[*in.ID]; !ok {
			return variantPlan{}, pkgerrors.New(pkgerrors.CodeValidation, "Variant does not belong to this product").
				WithDetails(map[string]any{"variantId": in.ID.String()})
		}
		kept[*in.ID] = struct{}{}
		plan.update = append(plan.update, in)
	}
	for _, v := range existing {
		if _, ok := kept[v.ID]; !ok {
			plan.remove = append(plan.remove, v)
		}
	}
	return plan, nil
}

func (in VariantInput) toModel(productID uuid.UUID, image string) models.ProductVariant {
	v := models.ProductVariant{
		ProductID:      productID,
		Name:           strings.TrimSpace(in.Name),
		Image:          image,
		Price:          canonicalDecimal(in.Price),
		InStock:        strings.TrimSpace(in.InStock),
		DiscountExpiry: in.DiscountExpiry,
	}
	if in.ID != nil {
		v.ID = *in.ID
	}
	if in.DiscountPrice != nil && strings.TrimSpace(*in.DiscountPrice) != "" {
		d := canonicalDecimal(*in.DiscountPrice)
		v.DiscountPrice = &d
	}
	return v
}

// canonicalDecimal keeps the admin's formatting when it does not parse.
func canonicalDecimal(raw string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return d.String()
}

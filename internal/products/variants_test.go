package product

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestValidateVariants(t *testing.T) {
	ok := VariantInput{Name: "Small", Price: "10", InStock: "3"}

	tests := []struct {
		name    string
		inputs  []VariantInput
		wantErr bool
	}{
		{name: "valid", inputs: []VariantInput{ok}},
		{name: "valid discount", inputs: []VariantInput{{Name: "S", Price: "10", InStock: "1", DiscountPrice: strPtr("10")}}},
		{name: "empty discount ignored", inputs: []VariantInput{{Name: "S", Price: "10", InStock: "1", DiscountPrice: strPtr("")}}},
		{name: "no variants", inputs: nil, wantErr: true},
		{name: "duplicate names", inputs: []VariantInput{ok, ok}, wantErr: true},
		{name: "blank name", inputs: []VariantInput{{Name: " ", Price: "1", InStock: "1"}}, wantErr: true},
		{name: "zero price", inputs: []VariantInput{{Name: "S", Price: "0", InStock: "1"}}, wantErr: true},
		{name: "price not a number", inputs: []VariantInput{{Name: "S", Price: "ten", InStock: "1"}}, wantErr: true},
		{name: "zero stock", inputs: []VariantInput{{Name: "S", Price: "1", InStock: "0"}}, wantErr: true},
		{name: "fractional stock", inputs: []VariantInput{{Name: "S", Price: "1", InStock: "1.5"}}, wantErr: true},
		{name: "discount above price", inputs: []VariantInput{{Name: "S", Price: "10", InStock: "1", DiscountPrice: strPtr("11")}}, wantErr: true},
		{name: "negative discount", inputs: []VariantInput{{Name: "S", Price: "10", InStock: "1", DiscountPrice: strPtr("-1")}}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateVariants(tc.inputs)
			if tc.wantErr {
				if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPlanVariants(t *testing.T) {
	keep := models.ProductVariant{ID: uuid.New(), Name: "keep"}
	drop := models.ProductVariant{ID: uuid.New(), Name: "drop"}

	plan, err := planVariants([]models.ProductVariant{keep, drop}, []VariantInput{
		{ID: &keep.ID, Name: "keep"},
		{Name: "new"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.update) != 1 || *plan.update[0].ID != keep.ID {
		t.Fatalf("expected keep to be updated, got %+v", plan.update)
	}
	if len(plan.create) != 1 || plan.create[0].Name != "new" {
		t.Fatalf("expected one create, got %+v", plan.create)
	}
	if len(plan.remove) != 1 || plan.remove[0].ID != drop.ID {
		t.Fatalf("expected drop to be removed, got %+v", plan.remove)
	}

	foreign := uuid.New()
	if _, err := planVariants([]models.ProductVariant{keep}, []VariantInput{{ID: &foreign, Name: "x"}}); err == nil {
		t.Fatal("expected error for a variant id from another product")
	}
}

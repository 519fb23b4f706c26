package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type VariantDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"productId"`
	Name           string     `json:"name"`
	Image          string     `json:"image"`
	Price          string     `json:"price"`
	InStock        string     `json:"inStock"`
	DiscountPrice  *string    `json:"discountPrice"`
	DiscountExpiry *time.Time `json:"discountExpiry"`
	DiscountActive bool       `json:"discountActive"`
}

type ProductDTO struct {
	ID            uuid.UUID    `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	DisplayImages []string     `json:"displayImages"`
	CategoryID    uuid.UUID    `json:"categoryId"`
	Category      *CategoryRef `json:"category,omitempty"`
	Variants      []VariantDTO `json:"variants"`
	EventIDs      []uuid.UUID  `json:"eventIds"`
	DisplayPrice  string       `json:"displayPrice"`
	IsDiscounted  bool         `json:"isDiscounted"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// ProductWithPage is the listing response. Without Products it is exactly the
// filter that produced the page.
type ProductWithPage struct {
	Products       []*ProductDTO   `json:"products"`
	Page           int             `json:"page"`
	Query          string          `json:"query"`
	FilterCategory string          `json:"filterCategory"`
	PriceOrder     enums.SortOrder `json:"priceOrder"`
	PriceMin       string          `json:"priceMin"`
	PriceMax       string          `json:"priceMax"`
	UpdatedAtOrder enums.SortOrder `json:"updatedAtOrder"`
}

func toProductDTO(p models.Product, eventIDs []uuid.UUID, now time.Time) *ProductDTO {
	images := p.DisplayImages
	if images == nil {
		images = []string{}
	}
	if eventIDs == nil {
		eventIDs = []uuid.UUID{}
	}
	dto := &ProductDTO{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		DisplayImages: images,
		CategoryID:    p.CategoryID,
		Variants:      make([]VariantDTO, 0, len(p.Variants)),
		EventIDs:      eventIDs,
		DisplayPrice:  DisplayPrice(p.Variants),
		IsDiscounted:  IsDiscounted(p.Variants, now),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategoryRef{ID: p.Category.ID, Name: p.Category.Name}
	}
	for _, v := range p.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:             v.ID,
			ProductID:      v.ProductID,
			Name:           v.Name,
			Image:          v.Image,
			Price:          v.Price,
			InStock:        v.InStock,
			DiscountPrice:  v.DiscountPrice,
			DiscountExpiry: v.DiscountExpiry,
			DiscountActive: IsDiscountActive(v, now),
		})
	}
	return dto
}

func pageFromResult(res *Result, products []*ProductDTO) *ProductWithPage {
	return &ProductWithPage{
		Products:       products,
		Page:           res.Spec.Page,
		Query:          res.Spec.Query,
		FilterCategory: res.Spec.Category,
		PriceOrder:     res.Spec.PriceOrder,
		PriceMin:       res.Spec.PriceMin.Decimal.String(),
		PriceMax:       res.Spec.PriceMax.Decimal.String(),
		UpdatedAtOrder: res.Spec.UpdatedAtOrder,
	}
}

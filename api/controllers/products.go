package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type variantRequest struct {
	ID             *uuid.UUID `json:"id"`
	Name           string     `json:"name" validate:"required"`
	Image          string     `json:"image"`
	Price          string     `json:"price" validate:"required,decimal"`
	InStock        string     `json:"inStock" validate:"required,decimal"`
	DiscountPrice  *string    `json:"discountPrice" validate:"omitempty,decimal"`
	DiscountExpiry *time.Time `json:"discountExpiry"`
}

type productRequest struct {
	Title         string           `json:"title" validate:"required,min=3"`
	Description   string           `json:"description"`
	DisplayImages []string         `json:"displayImages"`
	CategoryID    uuid.UUID        `json:"categoryId" validate:"required"`
	Variants      []variantRequest `json:"variants" validate:"required,min=1,dive"`
	EventIDs      []uuid.UUID      `json:"eventIds"`
}

type updateProductRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
	productRequest
}

func (p productRequest) toInput() product.Input {
	variants := make([]product.VariantInput, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = product.VariantInput{
			ID:             v.ID,
			Name:           v.Name,
			Image:          v.Image,
			Price:          v.Price,
			InStock:        v.InStock,
			DiscountPrice:  v.DiscountPrice,
			DiscountExpiry: v.DiscountExpiry,
		}
	}
	return product.Input{
		Title:         p.Title,
		Description:   p.Description,
		DisplayImages: p.DisplayImages,
		CategoryID:    p.CategoryID,
		Variants:      variants,
		EventIDs:      p.EventIDs,
	}
}

// parseFilterSpec reads the listing query. Price bounds left out fall back to
// the catalog defaults inside the engine.
func parseFilterSpec(r *http.Request) (product.FilterSpec, error) {
	var spec product.FilterSpec
	var err error

	if spec.Page, err = validators.ParseQueryInt(r, "page", 1, 0, 1_000_000); err != nil {
		return spec, err
	}
	if spec.Limit, err = validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit); err != nil {
		return spec, err
	}
	spec.Query = validators.ParseQueryString(r, "query")
	spec.Category = validators.ParseQueryString(r, "category")
	if spec.PriceOrder, err = validators.ParseQueryEnum(r, "price_order", enums.ParseSortOrder); err != nil {
		return spec, err
	}
	if spec.UpdatedAtOrder, err = validators.ParseQueryEnum(r, "updateAt_order", enums.ParseSortOrder); err != nil {
		return spec, err
	}
	if spec.PriceMin, err = validators.ParseQueryDecimal(r, "price_min"); err != nil {
		return spec, err
	}
	if spec.PriceMax, err = validators.ParseQueryDecimal(r, "price_max"); err != nil {
		return spec, err
	}
	return spec, nil
}

func GetAllProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		spec, err := parseFilterSpec(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), spec)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Products fetched successfully", "products", page)
	}
}

// GetTotalPages counts every product, ignoring any filter.
func GetTotalPages(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := svc.TotalPages(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Total pages fetched successfully", "totalPages", total)
	}
}

func GetProductByID(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := validators.ParseQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product fetched successfully", "product", p)
	}
}

func CreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product created successfully", "product", p)
	}
}

// UpdateProduct replaces the product with the posted state: variants are
// matched by id, and events are reconciled against the new list.
func UpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := svc.Update(r.Context(), body.ID, body.productRequest.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product updated successfully", "product", p)
	}
}

func DeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := validators.ParseQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Product deleted successfully", "product", p)
	}
}

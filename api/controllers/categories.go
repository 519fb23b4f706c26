package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type createCategoryRequest struct {
	Name     string     `json:"name" validate:"required"`
	Image    string     `json:"image"`
	ParentID *uuid.UUID `json:"parentId"`
}

type updateCategoryRequest struct {
	ID       uuid.UUID  `json:"id" validate:"required"`
	Name     string     `json:"name" validate:"required"`
	Image    string     `json:"image"`
	ParentID *uuid.UUID `json:"parentId"`
}

// GetAllCategories returns the category forest with children nested.
func GetAllCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("category"))
			return
		}
		tree, err := svc.Tree(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Categories fetched successfully", "categories", categories.TreeDTO(tree))
	}
}

func CreateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("category"))
			return
		}
		var body createCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Create(r.Context(), categories.CreateInput{
			Name:     body.Name,
			Image:    body.Image,
			ParentID: body.ParentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category.Name+" has added to categories", "category", category)
	}
}

func UpdateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("category"))
			return
		}
		var body updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Update(r.Context(), categories.UpdateInput{
			ID:       body.ID,
			Name:     body.Name,
			Image:    body.Image,
			ParentID: body.ParentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category.Name+" has updated successfully", "category", category)
	}
}

// DeleteCategory refuses categories that still have children.
func DeleteCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("category"))
			return
		}
		id, err := validators.ParseQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "Deleted successfully", "id", id)
	}
}

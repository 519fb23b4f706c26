package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CategoryDTO is the API shape of a category. Children is only set in tree views.
type CategoryDTO struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Image     string         `json:"image"`
	ParentID  *uuid.UUID     `json:"parentId"`
	Children  []*CategoryDTO `json:"children,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func newCategory(name, image string, parentID *uuid.UUID) *models.Category {
	return &models.Category{Name: name, Image: image, ParentID: parentID}
}

func toDTO(c models.Category) *CategoryDTO {
	return &CategoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		Image:     c.Image,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// TreeDTO renders nested nodes.
func TreeDTO(nodes []Node) []*CategoryDTO {
	out := make([]*CategoryDTO, 0, len(nodes))
	for _, n := range nodes {
		dto := toDTO(n.Category)
		dto.Children = TreeDTO(n.Children)
		out = append(out, dto)
	}
	return out
}

package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service exposes category tree reads and admin writes.
type Service interface {
	Tree(ctx context.Context) ([]Node, error)
	Store(ctx context.Context) (*Store, error)
	Create(ctx context.Context, input CreateInput) (*CategoryDTO, error)
	Update(ctx context.Context, input UpdateInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type imageResolver interface {
	Resolve(ctx context.Context, folder, value string) (string, error)
	Remove(ctx context.Context, urls ...string)
}

type CreateInput struct {
	Name     string
	Image    string
	ParentID *uuid.UUID
}

// UpdateInput replaces name and parent. An empty Image keeps the current one.
type UpdateInput struct {
	ID       uuid.UUID
	Name     string
	Image    string
	ParentID *uuid.UUID
}

type service struct {
	repo   *Repository
	tx     db.TxRunner
	images imageResolver
}

func NewService(repo *Repository, tx db.TxRunner, images imageResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if images == nil {
		return nil, fmt.Errorf("image resolver required")
	}
	return &service{repo: repo, tx: tx, images: images}, nil
}

func (s *service) Store(ctx context.Context) (*Store, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return NewStore(rows), nil
}

func (s *service) Tree(ctx context.Context) ([]Node, error) {
	store, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}
	return store.Tree(), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CategoryDTO, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	image, err := s.images.Resolve(ctx, media.FolderCategories, input.Image)
	if err != nil {
		return nil, err
	}

	var created *CategoryDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.List(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
		}
		if err := mapTreeError(NewStore(rows).ValidateParent(uuid.Nil, input.ParentID)); err != nil {
			return err
		}

		row := newCategory(name, image, input.ParentID)
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
		}
		created = toDTO(*row)
		return nil
	})
	if err != nil {
		s.images.Remove(ctx, uploadedOnly(input.Image, image)...)
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*CategoryDTO, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	image, err := s.images.Resolve(ctx, media.FolderCategories, input.Image)
	if err != nil {
		return nil, err
	}

	var (
		updated  *CategoryDTO
		oldImage string
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.List(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
		}
		store := NewStore(rows)
		current, ok := store.Get(input.ID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
		}
		if err := mapTreeError(store.ValidateParent(input.ID, input.ParentID)); err != nil {
			return err
		}

		oldImage = current.Image
		current.Name = name
		current.ParentID = input.ParentID
		if image != "" {
			current.Image = image
		}
		if err := repo.Update(ctx, &current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
		}
		updated = toDTO(current)
		return nil
	})
	if err != nil {
		s.images.Remove(ctx, uploadedOnly(input.Image, image)...)
		return nil, err
	}
	if image != "" && image != oldImage {
		s.images.Remove(ctx, oldImage)
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var image string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.List(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
		}
		store := NewStore(rows)
		current, ok := store.Get(id)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Category not found")
		}
		if kids := store.DirectChildren(id); len(kids) > 0 {
			return mapTreeError(&HasChildrenError{ID: id, Children: len(kids)})
		}

		products, err := repo.CountProducts(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
		}
		if products > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "Category still has products").
				WithDetails(map[string]any{"products": products})
		}

		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
		}
		image = current.Image
		return nil
	})
	if err != nil {
		return err
	}
	s.images.Remove(ctx, image)
	return nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Category name is required")
	}
	if strings.Contains(name, "/") {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Category name must not contain '/'")
	}
	return name, nil
}

// mapTreeError attaches transport codes to the tree errors while keeping them
// reachable through errors.As.
func mapTreeError(err error) error {
	if err == nil {
		return nil
	}
	var (
		hasChildren *HasChildrenError
		cycle       *CycleError
		unknown     *UnknownParentError
	)
	switch {
	case errors.As(err, &hasChildren):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Category has subcategories").
			WithDetails(map[string]any{"children": hasChildren.Children})
	case errors.As(err, &cycle):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Category cannot be moved under its own descendant").
			WithDetails(map[string]any{"parentId": cycle.ParentID.String()})
	case errors.As(err, &unknown):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Parent category not found").
			WithDetails(map[string]any{"parentId": unknown.ParentID.String()})
	}
	return err
}

func uploadedOnly(submitted, resolved string) []string {
	if resolved == "" || resolved == submitted {
		return nil
	}
	return []string{resolved}
}

package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/events"
	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const minTitleLength = 3

// Service exposes catalog listing and admin product management.
type Service interface {
	List(ctx context.Context, spec FilterSpec) (*ProductWithPage, error)
	TotalPages(ctx context.Context, limit int) (int, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input Input) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Input is the full desired state of a product.
type Input struct {
	Title         string
	Description   string
	DisplayImages []string
	CategoryID    uuid.UUID
	Variants      []VariantInput
	EventIDs      []uuid.UUID
}

type imageResolver interface {
	Resolve(ctx context.Context, folder, value string) (string, error)
	ResolveAll(ctx context.Context, folder string, values []string) ([]string, error)
	Remove(ctx context.Context, urls ...string)
}

type service struct {
	repo      *Repository
	engine    *Engine
	eventRepo *events.Repository
	links     *events.Links
	tx        db.TxRunner
	images    imageResolver
	now       func() time.Time
}

func NewService(repo *Repository, engine *Engine, eventRepo *events.Repository, links *events.Links, tx db.TxRunner, images imageResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("query engine required")
	}
	if eventRepo == nil || links == nil {
		return nil, fmt.Errorf("event persistence required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if images == nil {
		return nil, fmt.Errorf("image resolver required")
	}
	return &service{
		repo:      repo,
		engine:    engine,
		eventRepo: eventRepo,
		links:     links,
		tx:        tx,
		images:    images,
		now:       time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, spec FilterSpec) (*ProductWithPage, error) {
	res, err := s.engine.Query(ctx, spec)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(res.Items))
	for i, it := range res.Items {
		ids[i] = it.Product.ID
	}
	eventIDs, err := s.links.EventIDs(ctx, ids...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product events")
	}

	now := s.now()
	products := make([]*ProductDTO, len(res.Items))
	for i, it := range res.Items {
		products[i] = toProductDTO(it.Product, eventIDs[it.Product.ID], now)
	}
	return pageFromResult(res, products), nil
}

func (s *service) TotalPages(ctx context.Context, limit int) (int, error) {
	return s.engine.TotalPages(ctx, limit)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	return s.load(ctx, s.repo, s.links, id)
}

func (s *service) load(ctx context.Context, repo *Repository, links *events.Links, id uuid.UUID) (*ProductDTO, error) {
	row, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	eventIDs, err := links.EventIDs(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product events")
	}
	return toProductDTO(*row, eventIDs[id], s.now()), nil
}

// resolvedImages tracks uploads made for one write so they can be undone.
type resolvedImages struct {
	display  []string
	variants []string
	uploaded []string
}

func (s *service) resolveImages(ctx context.Context, input Input) (*resolvedImages, error) {
	out := &resolvedImages{}
	display, err := s.images.ResolveAll(ctx, media.FolderProducts, input.DisplayImages)
	if err != nil {
		return nil, err
	}
	out.display = display
	out.uploaded = append(out.uploaded, media.Replaced(display, input.DisplayImages)...)

	for _, v := range input.Variants {
		url, err := s.images.Resolve(ctx, media.FolderVariants, v.Image)
		if err != nil {
			s.images.Remove(ctx, out.uploaded...)
			return nil, err
		}
		if url != strings.TrimSpace(v.Image) {
			out.uploaded = append(out.uploaded, url)
		}
		out.variants = append(out.variants, url)
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input Input) (*ProductDTO, error) {
	title, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	imgs, err := s.resolveImages(ctx, input)
	if err != nil {
		return nil, err
	}

	var out *ProductDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo, links := s.repo.WithTx(tx), s.links.WithTx(tx)
		if err := s.ensureRefs(ctx, tx, repo, input); err != nil {
			return err
		}

		row := &models.Product{
			Title:         title,
			Description:   input.Description,
			DisplayImages: imgs.display,
			CategoryID:    input.CategoryID,
		}
		if err := repo.CreateProduct(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}

		variants := make([]models.ProductVariant, len(input.Variants))
		for i, v := range input.Variants {
			v.ID = nil
			variants[i] = v.toModel(row.ID, imgs.variants[i])
		}
		if err := repo.CreateVariants(ctx, variants); err != nil {
			return mapWriteError(err, "create variants")
		}
		if err := links.ApplyForProduct(ctx, row.ID, events.Reconcile(nil, input.EventIDs)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link product events")
		}

		loaded, err := s.load(ctx, repo, links, row.ID)
		out = loaded
		return err
	})
	if err != nil {
		s.images.Remove(ctx, imgs.uploaded...)
		return nil, err
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*ProductDTO, error) {
	title, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	imgs, err := s.resolveImages(ctx, input)
	if err != nil {
		return nil, err
	}

	var (
		out   *ProductDTO
		stale []string
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo, links := s.repo.WithTx(tx), s.links.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if err := s.ensureRefs(ctx, tx, repo, input); err != nil {
			return err
		}

		plan, err := planVariants(current.Variants, input.Variants)
		if err != nil {
			return err
		}

		previous := imagesOf(current)
		current.Title = title
		current.Description = input.Description
		current.DisplayImages = imgs.display
		current.CategoryID = input.CategoryID
		if err := repo.UpdateProduct(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}

		removeIDs := make([]uuid.UUID, len(plan.remove))
		for i, v := range plan.remove {
			removeIDs[i] = v.ID
		}
		if err := repo.DeleteCartLines(ctx, removeIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart lines")
		}
		if err := repo.DeleteVariants(ctx, removeIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variants")
		}

		imageFor := variantImages(input.Variants, imgs.variants)
		for _, in := range plan.update {
			v := in.toModel(id, imageFor(in))
			if err := repo.UpdateVariant(ctx, &v); err != nil {
				return mapWriteError(err, "update variant")
			}
		}
		created := make([]models.ProductVariant, 0, len(plan.create))
		for _, in := range plan.create {
			created = append(created, in.toModel(id, imageFor(in)))
		}
		if err := repo.CreateVariants(ctx, created); err != nil {
			return mapWriteError(err, "create variants")
		}

		currentEvents, err := links.EventIDs(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product events")
		}
		if err := links.ApplyForProduct(ctx, id, events.Reconcile(currentEvents[id], input.EventIDs)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile product events")
		}

		stale = staleImages(previous, imgs)
		loaded, err := s.load(ctx, repo, links, id)
		out = loaded
		return err
	})
	if err != nil {
		s.images.Remove(ctx, imgs.uploaded...)
		return nil, err
	}
	s.images.Remove(ctx, stale...)
	return out, nil
}

// Delete clears event links, then cart lines and variants, then the product.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var stale []string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo, links := s.repo.WithTx(tx), s.links.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		if err := links.ClearProduct(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear product events")
		}
		variantIDs := make([]uuid.UUID, len(current.Variants))
		for i, v := range current.Variants {
			variantIDs[i] = v.ID
			stale = append(stale, v.Image)
		}
		if err := repo.DeleteCartLines(ctx, variantIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart lines")
		}
		if err := repo.DeleteVariantsByProduct(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variants")
		}
		if err := repo.DeleteProduct(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		stale = append(stale, current.DisplayImages...)
		return nil
	})
	if err != nil {
		return err
	}
	s.images.Remove(ctx, stale...)
	return nil
}

func (s *service) ensureRefs(ctx context.Context, tx *gorm.DB, repo *Repository, input Input) error {
	ok, err := repo.CategoryExists(ctx, input.CategoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "Category not found").
			WithDetails(map[string]any{"categoryId": input.CategoryID.String()})
	}

	missing, err := s.eventRepo.WithTx(tx).MissingEvents(ctx, input.EventIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check events")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Some events do not exist").
			WithDetails(map[string]any{"eventIds": missing})
	}
	return nil
}

func validateInput(input Input) (string, error) {
	title := strings.TrimSpace(input.Title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Title must be at least 3 characters")
	}
	if input.CategoryID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Category is required")
	}
	if err := validateVariants(input.Variants); err != nil {
		return "", err
	}
	return title, nil
}

// variantImages looks up resolved images by variant name, which is unique per product.
func variantImages(inputs []VariantInput, resolved []string) func(VariantInput) string {
	byName := make(map[string]string, len(inputs))
	for i, in := range inputs {
		byName[strings.TrimSpace(in.Name)] = resolved[i]
	}
	return func(in VariantInput) string {
		return byName[strings.TrimSpace(in.Name)]
	}
}

// imagesOf copies every image url a stored product references.
func imagesOf(p *models.Product) []string {
	out := make([]string, 0, len(p.DisplayImages)+len(p.Variants))
	out = append(out, p.DisplayImages...)
	for _, v := range p.Variants {
		out = append(out, v.Image)
	}
	return out
}

// staleImages lists stored images that the update no longer references.
func staleImages(previous []string, imgs *resolvedImages) []string {
	var current []string
	current = append(current, imgs.display...)
	current = append(current, imgs.variants...)
	return media.Replaced(previous, current)
}

func mapWriteError(err error, step string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Variant names must be unique")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step).WithDetails(map[string]any{"step": step})
}

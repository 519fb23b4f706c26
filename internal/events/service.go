package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const minTitleLength = 3

// Service manages promotional events and their product sets.
type Service interface {
	List(ctx context.Context) ([]*EventDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*EventDTO, error)
	Create(ctx context.Context, input Input) (*EventDTO, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*EventDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Input is the full desired state of an event.
type Input struct {
	Title       string
	Description string
	IsActive    bool
	ExpiresAt   *time.Time
	ProductIDs  []uuid.UUID
}

type service struct {
	repo  *Repository
	links *Links
	tx    db.TxRunner
}

func NewService(repo *Repository, links *Links, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if links == nil {
		return nil, fmt.Errorf("product event links required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, links: links, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]*EventDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	products, err := s.links.ProductIDs(ctx, ids...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list event products")
	}
	out := make([]*EventDTO, len(rows))
	for i, row := range rows {
		out[i] = toDTO(row, products[row.ID])
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*EventDTO, error) {
	return s.load(ctx, s.repo, s.links, id)
}

func (s *service) load(ctx context.Context, repo *Repository, links *Links, id uuid.UUID) (*EventDTO, error) {
	row, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	products, err := links.ProductIDs(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event products")
	}
	return toDTO(*row, products[id]), nil
}

func (s *service) Create(ctx context.Context, input Input) (*EventDTO, error) {
	title, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	var out *EventDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo, links := s.repo.WithTx(tx), s.links.WithTx(tx)
		if err := ensureProducts(ctx, repo, input.ProductIDs); err != nil {
			return err
		}

		row := newEvent(title, input)
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
		}
		if err := links.ApplyForEvent(ctx, row.ID, Reconcile(nil, input.ProductIDs)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link event products")
		}
		loaded, err := s.load(ctx, repo, links, row.ID)
		out = loaded
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*EventDTO, error) {
	title, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	var out *EventDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo, links := s.repo.WithTx(tx), s.links.WithTx(tx)
		current, err := s.load(ctx, repo, links, id)
		if err != nil {
			return err
		}
		if err := ensureProducts(ctx, repo, input.ProductIDs); err != nil {
			return err
		}

		row := newEvent(title, input)
		row.ID = id
		if err := repo.Update(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event")
		}
		if err := links.ApplyForEvent(ctx, id, Reconcile(current.ProductIDs, input.ProductIDs)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile event products")
		}
		out, err = s.load(ctx, repo, links, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo, links := s.repo.WithTx(tx), s.links.WithTx(tx)
		if _, err := s.load(ctx, repo, links, id); err != nil {
			return err
		}
		if err := links.ClearEvent(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear event products")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete event")
		}
		return nil
	})
}

func (s *service) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.DeactivateExpired(ctx, now.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate expired events")
	}
	return n, nil
}

func validateInput(input Input) (string, error) {
	title := strings.TrimSpace(input.Title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Title must be at least 3 characters")
	}
	return title, nil
}

func ensureProducts(ctx context.Context, repo *Repository, ids []uuid.UUID) error {
	missing, err := repo.MissingProducts(ctx, dedupe(ids))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check event products")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Some products do not exist").
			WithDetails(map[string]any{"productIds": missing})
	}
	return nil
}

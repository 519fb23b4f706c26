package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Service exposes the admin view over placed cart lines.
type Service interface {
	List(ctx context.Context) ([]cart.ItemDTO, error)
	Verify(ctx context.Context, id uuid.UUID) (*cart.ItemDTO, error)
	Ship(ctx context.Context, id uuid.UUID) (*cart.ItemDTO, error)
	Delete(ctx context.Context, id uuid.UUID) (*cart.ItemDTO, error)
}

type service struct {
	repo Repository
	tx   db.TxRunner
	logg *logger.Logger
}

func NewService(repo Repository, tx db.TxRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]cart.ItemDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]cart.ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *cart.ItemFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Verify(ctx context.Context, id uuid.UUID) (*cart.ItemDTO, error) {
	return s.advance(ctx, id, enums.CartItemStatusVerified)
}

func (s *service) Ship(ctx context.Context, id uuid.UUID) (*cart.ItemDTO, error) {
	return s.advance(ctx, id, enums.CartItemStatusShipped)
}

// advance moves a line one step forward. Skipping or repeating a step is a state conflict.
func (s *service) advance(ctx context.Context, id uuid.UUID, to enums.CartItemStatus) (*cart.ItemDTO, error) {
	var out *cart.ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := find(ctx, repo, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("Order is %s and cannot become %s", current.Status, to)).
				WithDetails(map[string]any{"status": current.Status, "requested": to})
		}
		ok, err := repo.TransitionStatus(ctx, id, current.Status, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Order status changed concurrently")
		}
		updated, err := find(ctx, repo, id)
		if err != nil {
			return err
		}
		out = cart.ItemFromModel(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", id.String()), fmt.Sprintf("order moved to %s", to))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) (*cart.ItemDTO, error) {
	var out *cart.ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := find(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		out = cart.ItemFromModel(current)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func find(ctx context.Context, repo Repository, id uuid.UUID) (*models.CartItem, error) {
	item, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return item, nil
}

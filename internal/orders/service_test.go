package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubOrdersRepo struct {
	items      map[uuid.UUID]*models.CartItem
	transitErr error
	deleted    []uuid.UUID
}

func newStubRepo(items ...models.CartItem) *stubOrdersRepo {
	repo := &stubOrdersRepo{items: map[uuid.UUID]*models.CartItem{}}
	for i := range items {
		item := items[i]
		repo.items[item.ID] = &item
	}
	return repo
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) List(ctx context.Context) ([]models.CartItem, error) {
	out := make([]models.CartItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *stubOrdersRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.CartItemStatus) (bool, error) {
	if s.transitErr != nil {
		return false, s.transitErr
	}
	item, ok := s.items[id]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	return true, nil
}

func (s *stubOrdersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTx{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceAdvancesForwardOnly(t *testing.T) {
	id := uuid.New()
	repo := newStubRepo(models.CartItem{ID: id, Status: enums.CartItemStatusUnverified})
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.Ship(ctx, id); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict shipping an unverified order, got %v", err)
	}

	verified, err := svc.Verify(ctx, id)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Status != enums.CartItemStatusVerified {
		t.Fatalf("expected VERIFIED, got %s", verified.Status)
	}

	if _, err := svc.Verify(ctx, id); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict verifying twice, got %v", err)
	}

	shipped, err := svc.Ship(ctx, id)
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if shipped.Status != enums.CartItemStatusShipped {
		t.Fatalf("expected SHIPPED, got %s", shipped.Status)
	}

	if _, err := svc.Verify(ctx, id); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict moving backward, got %v", err)
	}
}

func TestServiceMissingOrder(t *testing.T) {
	svc := newTestService(t, newStubRepo())
	ctx := context.Background()

	if _, err := svc.Verify(ctx, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Delete(ctx, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceTransitionFailureIsDependency(t *testing.T) {
	id := uuid.New()
	repo := newStubRepo(models.CartItem{ID: id, Status: enums.CartItemStatusUnverified})
	repo.transitErr = errors.New("connection reset")
	svc := newTestService(t, repo)

	if _, err := svc.Verify(context.Background(), id); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceDeleteReturnsRemovedLine(t *testing.T) {
	id := uuid.New()
	repo := newStubRepo(models.CartItem{ID: id, Phone: "555", Status: enums.CartItemStatusShipped})
	svc := newTestService(t, repo)

	out, err := svc.Delete(context.Background(), id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out.ID != id || out.Phone != "555" {
		t.Fatalf("unexpected deleted line %+v", out)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != id {
		t.Fatalf("expected repo delete for %s, got %v", id, repo.deleted)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, stubTx{}, nil); err == nil {
		t.Fatal("expected error without repository")
	}
	if _, err := NewService(newStubRepo(), nil, nil); err == nil {
		t.Fatal("expected error without tx runner")
	}
}

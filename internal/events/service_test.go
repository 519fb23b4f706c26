package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fixture struct {
	client *db.Client
	svc    Service
	links  *Links
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	links := NewLinks(client.DB())
	svc, err := NewService(NewRepository(client.DB()), links, client)
	require.NoError(t, err)
	return fixture{client: client, svc: svc, links: links}
}

func (f fixture) seedProduct(t *testing.T, title string) uuid.UUID {
	t.Helper()
	category := &models.Category{Name: "Seasonal"}
	require.NoError(t, f.client.DB().Create(category).Error)
	product := &models.Product{Title: title, CategoryID: category.ID}
	require.NoError(t, f.client.DB().Create(product).Error)
	return product.ID
}

func (f fixture) eventsOf(t *testing.T, productID uuid.UUID) []uuid.UUID {
	t.Helper()
	byProduct, err := f.links.EventIDs(context.Background(), productID)
	require.NoError(t, err)
	return byProduct[productID]
}

func TestUpdateReconcilesProductEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seedProduct(t, "Product A")
	b := f.seedProduct(t, "Product B")
	c := f.seedProduct(t, "Product C")

	created, err := f.svc.Create(ctx, Input{Title: "Summer Sale", IsActive: true, ProductIDs: []uuid.UUID{a, b}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, created.ProductIDs)

	bBefore := f.eventsOf(t, b)

	updated, err := f.svc.Update(ctx, created.ID, Input{Title: "Summer Sale", IsActive: true, ProductIDs: []uuid.UUID{b, c}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{b, c}, updated.ProductIDs)

	assert.NotContains(t, f.eventsOf(t, a), created.ID)
	assert.Contains(t, f.eventsOf(t, c), created.ID)
	assert.Equal(t, bBefore, f.eventsOf(t, b))
}

func TestCreateRejectsUnknownProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	known := f.seedProduct(t, "Known")
	unknown := uuid.New()

	_, err := f.svc.Create(ctx, Input{Title: "Flash", ProductIDs: []uuid.UUID{known, unknown}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "a rejected create must not leave a partial event behind")
}

func TestCreateValidatesTitle(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), Input{Title: " ab "})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateKeepsInactiveFlag(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Create(context.Background(), Input{Title: "Draft promo", IsActive: false})
	require.NoError(t, err)
	assert.False(t, created.IsActive)
}

func TestDeleteClearsLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "Lamp")

	created, err := f.svc.Create(ctx, Input{Title: "Clearance", IsActive: true, ProductIDs: []uuid.UUID{p}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	assert.Empty(t, f.eventsOf(t, p))

	_, err = f.svc.Get(ctx, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
}

func TestDeactivateExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired, err := f.svc.Create(ctx, Input{Title: "Old promo", IsActive: true, ExpiresAt: &past})
	require.NoError(t, err)
	running, err := f.svc.Create(ctx, Input{Title: "New promo", IsActive: true, ExpiresAt: &future})
	require.NoError(t, err)
	open, err := f.svc.Create(ctx, Input{Title: "Evergreen", IsActive: true})
	require.NoError(t, err)

	n, err := f.svc.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for id, want := range map[uuid.UUID]bool{expired.ID: false, running.ID: true, open.ID: true} {
		got, err := f.svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.IsActive, got.Title)
	}
}

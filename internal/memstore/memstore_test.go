package memstore

import (
	"context"
	"testing"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *Store {
	return New(clockwork.NewFakeClock())
}

func TestItemLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	item := &domain.CatalogItem{Category: "apple", OriginalPrice: 5.0, CurrentPrice: 5.0}
	require.NoError(t, s.CreateItem(ctx, item))
	require.NotEqual(t, uuid.Nil, item.ID)

	loaded, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "apple", loaded.Category)

	loaded.Quantity = 7
	require.NoError(t, s.UpdateItem(ctx, loaded))

	reloaded, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.Quantity)

	require.NoError(t, s.DeleteItem(ctx, item.ID))
	_, err = s.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestGetItemReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	item := &domain.CatalogItem{Category: "apple", OriginalPrice: 5.0}
	require.NoError(t, s.CreateItem(ctx, item))

	first, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	first.Quantity = 99

	second, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Quantity, "mutating a read result must not leak into the store")
}

func TestListItemsFilters(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	require.NoError(t, s.CreateItem(ctx, &domain.CatalogItem{Category: "apple", Status: domain.StatusFresh, DiscountPercent: 0}))
	require.NoError(t, s.CreateItem(ctx, &domain.CatalogItem{Category: "apple", Status: domain.StatusWarning, DiscountPercent: 25}))
	require.NoError(t, s.CreateItem(ctx, &domain.CatalogItem{Category: "banana", Status: domain.StatusCritical, DiscountPercent: 50}))

	all, err := s.ListItems(ctx, domain.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	apples, err := s.ListItems(ctx, domain.ItemFilter{Category: "apple"})
	require.NoError(t, err)
	assert.Len(t, apples, 2)

	discounted, err := s.ListItems(ctx, domain.ItemFilter{MinDiscount: 20})
	require.NoError(t, err)
	assert.Len(t, discounted, 2)

	critical, err := s.ListItems(ctx, domain.ItemFilter{Status: domain.StatusCritical})
	require.NoError(t, err)
	assert.Len(t, critical, 1)
}

func TestDeleteItemCascadesRecommendations(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	item := &domain.CatalogItem{Category: "apple"}
	require.NoError(t, s.CreateItem(ctx, item))

	rec := domain.Recommendation{ID: uuid.New(), CustomerID: uuid.New(), ItemID: item.ID}
	require.NoError(t, s.CommitPricing(ctx, item, []domain.Recommendation{rec}))

	require.NoError(t, s.DeleteItem(ctx, item.ID))

	recs, err := s.ActiveForItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCommitPricingReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	item := &domain.CatalogItem{Category: "apple", OriginalPrice: 4.0, CurrentPrice: 4.0}
	require.NoError(t, s.CreateItem(ctx, item))

	item.DiscountPercent = 25
	item.CurrentPrice = 3.0
	rec := domain.Recommendation{ID: uuid.New(), CustomerID: uuid.New(), ItemID: item.ID, PriorityScore: 25}
	require.NoError(t, s.CommitPricing(ctx, item, []domain.Recommendation{rec}))

	loaded, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, loaded.CurrentPrice)

	active, err := s.ActiveForItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, rec.ID, active[0].ID)
}

func TestCommitPricingUnknownItem(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	item := &domain.CatalogItem{ID: uuid.New()}
	assert.ErrorIs(t, s.CommitPricing(ctx, item, nil), domain.ErrItemNotFound)
}

func TestListForCustomerOrdering(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	customerID := uuid.New()

	item := &domain.CatalogItem{Category: "apple"}
	require.NoError(t, s.CreateItem(ctx, item))

	low := domain.Recommendation{ID: uuid.New(), CustomerID: customerID, ItemID: item.ID, PriorityScore: 10}
	high := domain.Recommendation{ID: uuid.New(), CustomerID: customerID, ItemID: item.ID, PriorityScore: 50}
	viewed := domain.Recommendation{ID: uuid.New(), CustomerID: customerID, ItemID: item.ID, PriorityScore: 90, Viewed: true}
	require.NoError(t, s.CommitPricing(ctx, item, []domain.Recommendation{low, high, viewed}))

	recs, err := s.ListForCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// Active first, by priority; viewed history trails.
	assert.Equal(t, high.ID, recs[0].ID)
	assert.Equal(t, low.ID, recs[1].ID)
	assert.Equal(t, viewed.ID, recs[2].ID)
}

func TestMarkViewed(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	item := &domain.CatalogItem{Category: "apple"}
	require.NoError(t, s.CreateItem(ctx, item))

	rec := domain.Recommendation{ID: uuid.New(), CustomerID: uuid.New(), ItemID: item.ID}
	require.NoError(t, s.CommitPricing(ctx, item, []domain.Recommendation{rec}))

	require.NoError(t, s.MarkViewed(ctx, rec.ID))

	active, err := s.ActiveForItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, s.MarkViewed(ctx, uuid.New()), domain.ErrRecommendationNotFound)
}

package app

import (
	"context"
	"sync"
	"testing"

	"github.com/AntoDono/suscart/internal/dispatch"
	"github.com/AntoDono/suscart/internal/domain"
	apperrors "github.com/AntoDono/suscart/internal/errors"
	"github.com/AntoDono/suscart/internal/memstore"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *stubPublisher) BroadcastAdmin(eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *stubPublisher) NotifyCustomer(customerID uuid.UUID, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *stubPublisher) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newTestService(t *testing.T) (*Service, *memstore.Store, *stubPublisher) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := memstore.New(clock)
	publisher := &stubPublisher{}
	dispatcher := dispatch.New(store, nil, publisher, clock)
	return NewService(store, dispatcher, publisher, clock), store, publisher
}

func TestAddItemBroadcastsAndNormalizes(t *testing.T) {
	svc, store, publisher := newTestService(t)
	ctx := context.Background()

	item := &domain.CatalogItem{Category: "banana", OriginalPrice: 2.50, Quantity: 12}
	require.NoError(t, svc.AddItem(ctx, item))

	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, 2.50, item.CurrentPrice)
	assert.Equal(t, 100.0, item.FreshnessScore)
	assert.Equal(t, domain.StatusFresh, item.Status)
	assert.Equal(t, []string{domain.EventItemAdded}, publisher.recorded())

	_, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
}

func TestAddItemValidation(t *testing.T) {
	svc, _, publisher := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		item domain.CatalogItem
	}{
		{"missing category", domain.CatalogItem{OriginalPrice: 2}},
		{"zero price", domain.CatalogItem{Category: "apple"}},
		{"negative quantity", domain.CatalogItem{Category: "apple", OriginalPrice: 2, Quantity: -1}},
		{"score out of range", domain.CatalogItem{Category: "apple", OriginalPrice: 2, FreshnessScore: 150}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.AddItem(ctx, &tc.item)
			require.Error(t, err)
			assert.Equal(t, apperrors.TypeValidation, apperrors.AsStructuredError(err).Type)
		})
	}

	// Rejected payloads never reach the fan-out.
	assert.Empty(t, publisher.recorded())
}

func TestUpdateItemRederivesPrice(t *testing.T) {
	svc, _, publisher := newTestService(t)
	ctx := context.Background()

	item := &domain.CatalogItem{Category: "apple", OriginalPrice: 4.00}
	require.NoError(t, svc.AddItem(ctx, item))

	item.OriginalPrice = 6.00
	item.DiscountPercent = 50
	require.NoError(t, svc.UpdateItem(ctx, item))

	assert.Equal(t, 3.00, item.CurrentPrice)
	assert.Equal(t, []string{domain.EventItemAdded, domain.EventItemUpdated}, publisher.recorded())
}

func TestRemoveItem(t *testing.T) {
	svc, store, publisher := newTestService(t)
	ctx := context.Background()

	item := &domain.CatalogItem{Category: "pear", OriginalPrice: 3.00}
	require.NoError(t, svc.AddItem(ctx, item))
	require.NoError(t, svc.RemoveItem(ctx, item.ID))

	_, err := store.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.Equal(t, []string{domain.EventItemAdded, domain.EventItemRemoved}, publisher.recorded())
}

func TestRemoveItemNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.RemoveItem(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.TypeNotFound, apperrors.AsStructuredError(err).Type)
}

func TestCreateCustomerAppliesDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	customer := &domain.CustomerProfile{Name: "Robin"}
	require.NoError(t, svc.CreateCustomer(context.Background(), customer))

	assert.Empty(t, customer.Preferences.FavoriteCategories)
	assert.NotNil(t, customer.Preferences.FavoriteCategories)
	assert.Equal(t, defaultMaxPrice, customer.Preferences.MaxPrice)
	assert.Equal(t, defaultMinDiscountThreshold, customer.Preferences.MinDiscountThreshold)
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	err := svc.CreateCustomer(ctx, &domain.CustomerProfile{Name: "  "})
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeValidation, apperrors.AsStructuredError(err).Type)

	err = svc.CreateCustomer(ctx, &domain.CustomerProfile{
		Name:        "Alex",
		Preferences: domain.Preferences{MinDiscountThreshold: 120},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeValidation, apperrors.AsStructuredError(err).Type)
}

func TestRecommendationsRequiresCustomer(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Recommendations(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.TypeNotFound, apperrors.AsStructuredError(err).Type)
}

func TestRecommendationsFlow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item := &domain.CatalogItem{Category: "apple", OriginalPrice: 4.00}
	require.NoError(t, svc.AddItem(ctx, item))

	customer := &domain.CustomerProfile{
		Name: "Dana",
		Preferences: domain.Preferences{
			FavoriteCategories:   []string{"apple"},
			MaxPrice:             5.00,
			MinDiscountThreshold: 20,
		},
	}
	require.NoError(t, svc.CreateCustomer(ctx, customer))

	_, err := svc.IngestFreshness(ctx, domain.FreshnessObservation{ItemID: item.ID, Score: 45})
	require.NoError(t, err)

	recs, err := svc.Recommendations(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Active())

	require.NoError(t, svc.MarkRecommendationViewed(ctx, recs[0].ID))

	recs, err = svc.Recommendations(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Viewed)
}

func TestMarkViewedNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.MarkRecommendationViewed(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.TypeNotFound, apperrors.AsStructuredError(err).Type)
}

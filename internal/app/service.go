package app

import (
	"context"
	"errors"
	"strings"

	"github.com/AntoDono/suscart/internal/dispatch"
	"github.com/AntoDono/suscart/internal/domain"
	apperrors "github.com/AntoDono/suscart/internal/errors"
	"github.com/AntoDono/suscart/internal/pricing"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Defaults applied to partial preference payloads at the ingestion boundary.
// The matcher itself never fills gaps.
const (
	defaultMaxPrice             = 10.0
	defaultMinDiscountThreshold = 0.0
)

// Service is the application layer, the only component that references
// multiple domain components. It orchestrates catalog and customer use cases
// and hands freshness observations to the dispatcher.
type Service struct {
	store      domain.Store
	dispatcher *dispatch.Dispatcher
	publisher  dispatch.Publisher
	clock      clockwork.Clock

	// pullGroup collapses concurrent recommendation pulls per customer.
	pullGroup singleflight.Group
}

func NewService(store domain.Store, dispatcher *dispatch.Dispatcher, publisher dispatch.Publisher, clock clockwork.Clock) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		publisher:  publisher,
		clock:      clock,
	}
}

// IngestFreshness runs one observation through the dispatch pipeline.
func (s *Service) IngestFreshness(ctx context.Context, obs domain.FreshnessObservation) (*dispatch.Result, error) {
	return s.dispatcher.Ingest(ctx, obs)
}

// --- Catalog ---

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err, "failed to load item")
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.CatalogItem, error) {
	items, err := s.store.ListItems(ctx, filter)
	if err != nil {
		return nil, apperrors.PersistenceError("failed to list items", err)
	}
	return items, nil
}

// AddItem creates a catalog item and broadcasts item_added to admins. New
// items start fresh and undiscounted; only the pipeline reprices them.
func (s *Service) AddItem(ctx context.Context, item *domain.CatalogItem) error {
	if err := validateItem(item); err != nil {
		return err
	}

	item.CurrentPrice = item.OriginalPrice
	item.DiscountPercent = 0
	if item.FreshnessScore == 0 {
		item.FreshnessScore = pricing.MaxScore
	}
	item.Status = pricing.StatusFor(item.FreshnessScore)

	if err := s.store.CreateItem(ctx, item); err != nil {
		return apperrors.PersistenceError("failed to create item", err)
	}

	s.publisher.BroadcastAdmin(domain.EventItemAdded, item)
	return nil
}

// UpdateItem applies manual edits to an item and broadcasts item_updated.
// Pricing fields stay derived: the current price is recomputed from the
// stored discount whenever the original price changes.
func (s *Service) UpdateItem(ctx context.Context, item *domain.CatalogItem) error {
	if err := validateItem(item); err != nil {
		return err
	}

	item.CurrentPrice = pricing.Price(item.OriginalPrice, item.DiscountPercent)
	item.Status = pricing.StatusFor(item.FreshnessScore)

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return wrapStoreError(err, "failed to update item")
	}

	s.publisher.BroadcastAdmin(domain.EventItemUpdated, item)
	return nil
}

// RemoveItem deletes an item and broadcasts item_removed. Recommendations
// targeting the item are removed with it.
func (s *Service) RemoveItem(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return wrapStoreError(err, "failed to delete item")
	}

	s.publisher.BroadcastAdmin(domain.EventItemRemoved, map[string]any{"id": id})
	return nil
}

// --- Customers ---

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.CustomerProfile, error) {
	customer, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err, "failed to load customer")
	}
	return customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.CustomerProfile, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, apperrors.PersistenceError("failed to list customers", err)
	}
	return customers, nil
}

// CreateCustomer validates and persists a profile. Partial preference
// payloads are completed with defaults here, so every stored profile is
// fully specified by the time the matcher sees it.
func (s *Service) CreateCustomer(ctx context.Context, customer *domain.CustomerProfile) error {
	if strings.TrimSpace(customer.Name) == "" {
		return apperrors.ValidationError("customer name is required")
	}

	applyPreferenceDefaults(&customer.Preferences)
	if err := validatePreferences(customer.Preferences); err != nil {
		return err
	}

	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return apperrors.PersistenceError("failed to create customer", err)
	}
	return nil
}

// --- Recommendations ---

// Recommendations returns a customer's recommendations, active first, ordered
// by priority score. Concurrent pulls for the same customer are collapsed
// into a single store read.
func (s *Service) Recommendations(ctx context.Context, customerID uuid.UUID) ([]domain.Recommendation, error) {
	result, err, _ := s.pullGroup.Do(customerID.String(), func() (any, error) {
		if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
			return nil, wrapStoreError(err, "failed to load customer")
		}

		recs, err := s.store.ListForCustomer(ctx, customerID)
		if err != nil {
			return nil, apperrors.PersistenceError("failed to list recommendations", err)
		}
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Recommendation), nil
}

func (s *Service) MarkRecommendationViewed(ctx context.Context, id uuid.UUID) error {
	if err := s.store.MarkViewed(ctx, id); err != nil {
		return wrapStoreError(err, "failed to mark recommendation viewed")
	}
	return nil
}

// --- Health ---

func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// --- Validation helpers ---

func validateItem(item *domain.CatalogItem) error {
	if strings.TrimSpace(item.Category) == "" {
		return apperrors.ValidationError("item category is required")
	}
	if item.OriginalPrice <= 0 {
		return apperrors.ValidationError("original price must be positive").
			WithField("original_price", item.OriginalPrice)
	}
	if item.Quantity < 0 {
		return apperrors.ValidationError("quantity must not be negative").
			WithField("quantity", item.Quantity)
	}
	if err := pricing.ValidateScore(item.FreshnessScore); err != nil {
		return apperrors.ValidationError(err.Error()).WithField("freshness_score", item.FreshnessScore)
	}
	return nil
}

func applyPreferenceDefaults(prefs *domain.Preferences) {
	if prefs.FavoriteCategories == nil {
		prefs.FavoriteCategories = []string{}
	}
	if prefs.MaxPrice == 0 {
		prefs.MaxPrice = defaultMaxPrice
	}
	if prefs.MinDiscountThreshold == 0 {
		prefs.MinDiscountThreshold = defaultMinDiscountThreshold
	}
}

func validatePreferences(prefs domain.Preferences) error {
	if prefs.MaxPrice < 0 {
		return apperrors.ValidationError("max_price must not be negative").
			WithField("max_price", prefs.MaxPrice)
	}
	if prefs.MinDiscountThreshold < 0 || prefs.MinDiscountThreshold > 100 {
		return apperrors.ValidationError("min_discount_threshold must be between 0 and 100").
			WithField("min_discount_threshold", prefs.MinDiscountThreshold)
	}
	return nil
}

func wrapStoreError(err error, message string) error {
	switch {
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrRecommendationNotFound):
		return apperrors.NotFoundError(err.Error())
	default:
		return apperrors.PersistenceError(message, err)
	}
}

// Package dispatch runs the ingestion state machine that turns a freshness
// observation into a price change and targeted notifications.
//
// Each event moves RECEIVED -> PRICED -> MATCHED -> DEDUPED -> PERSISTED ->
// DISPATCHED, with FAILED reachable from any non-terminal state. Persistence
// strictly precedes fan-out: a client may miss a notification, but never
// receives one referencing state the store did not commit.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AntoDono/suscart/internal/dedup"
	"github.com/AntoDono/suscart/internal/domain"
	apperrors "github.com/AntoDono/suscart/internal/errors"
	"github.com/AntoDono/suscart/internal/matching"
	"github.com/AntoDono/suscart/internal/metrics"
	"github.com/AntoDono/suscart/internal/pricing"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// State labels a position in the event state machine.
type State string

const (
	StateReceived   State = "received"
	StatePriced     State = "priced"
	StateMatched    State = "matched"
	StateDeduped    State = "deduped"
	StatePersisted  State = "persisted"
	StateDispatched State = "dispatched"
	StateFailed     State = "failed"
)

// Store is the slice of the persistence contract the dispatcher consumes.
type Store interface {
	GetItem(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error)
	ListCustomers(ctx context.Context) ([]domain.CustomerProfile, error)
	ActiveForItem(ctx context.Context, itemID uuid.UUID) ([]domain.Recommendation, error)
	CommitPricing(ctx context.Context, item *domain.CatalogItem, recs []domain.Recommendation) error
}

// Publisher delivers events after they are persisted.
type Publisher interface {
	BroadcastAdmin(eventType string, payload any)
	NotifyCustomer(customerID uuid.UUID, eventType string, payload any)
}

// Result summarizes one successfully dispatched ingestion event.
type Result struct {
	State      State
	Item       *domain.CatalogItem
	Created    int
	Superseded int
}

// Dispatcher orchestrates pricing, matching, deduplication, persistence and
// fan-out for ingestion events.
type Dispatcher struct {
	store     Store
	scorer    domain.Scorer
	publisher Publisher
	clock     clockwork.Clock
	itemLocks *keyedMutex

	// publishMu covers commit plus fan-out enqueue, so enqueue order equals
	// commit order for every customer. Writer channels are FIFO, which
	// extends that order to each connection.
	publishMu sync.Mutex
}

// New creates a dispatcher. scorer may be nil, defaulting to discount-based
// priority scoring.
func New(store Store, scorer domain.Scorer, publisher Publisher, clock clockwork.Clock) *Dispatcher {
	if scorer == nil {
		scorer = domain.DiscountScorer
	}
	return &Dispatcher{
		store:     store,
		scorer:    scorer,
		publisher: publisher,
		clock:     clock,
		itemLocks: newKeyedMutex(),
	}
}

// Ingest processes one freshness observation through the full state machine.
// It is idempotent on (item_id, freshness_score, observed_at): a retried
// observation reprices to the same values and produces no duplicate
// recommendations.
func (d *Dispatcher) Ingest(ctx context.Context, obs domain.FreshnessObservation) (*Result, error) {
	start := d.clock.Now()
	defer func() {
		metrics.DispatchDuration.Observe(d.clock.Since(start).Seconds())
	}()

	// RECEIVED: validate before any side effect.
	if err := pricing.ValidateScore(obs.Score); err != nil {
		metrics.DispatchEventsTotal.WithLabelValues("failed_validation").Inc()
		return nil, apperrors.ValidationError(err.Error()).WithField("item_id", obs.ItemID.String())
	}
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = d.clock.Now().UTC()
	}

	// Events for the same item are serialized; independent items proceed
	// concurrently.
	unlock := d.itemLocks.Lock(obs.ItemID)
	defer unlock()

	item, err := d.store.GetItem(ctx, obs.ItemID)
	if errors.Is(err, domain.ErrItemNotFound) {
		metrics.DispatchEventsTotal.WithLabelValues("failed_validation").Inc()
		return nil, apperrors.NotFoundError("catalog item not found").WithField("item_id", obs.ItemID.String())
	}
	if err != nil {
		return nil, d.failPersistence("failed to load item", obs.ItemID, err)
	}

	// RECEIVED -> PRICED
	if err := pricing.Apply(item, obs.Score, obs.ObservedAt); err != nil {
		metrics.DispatchEventsTotal.WithLabelValues("failed_validation").Inc()
		return nil, apperrors.ValidationError(err.Error()).WithField("item_id", obs.ItemID.String())
	}
	item.UpdatedAt = d.clock.Now().UTC()

	// PRICED -> MATCHED
	candidates, err := d.matchCustomers(ctx, *item)
	if err != nil {
		return nil, d.failPersistence("failed to list customers", obs.ItemID, err)
	}

	// MATCHED -> DEDUPED
	active, err := d.store.ActiveForItem(ctx, item.ID)
	if err != nil {
		return nil, d.failPersistence("failed to load active recommendations", obs.ItemID, err)
	}
	collapsed := dedup.Collapse(item.ID, candidates, active, d.clock.Now().UTC())

	// DEDUPED -> PERSISTED -> DISPATCHED. Commit and enqueue under one lock
	// so no later event's notifications can overtake this one's.
	d.publishMu.Lock()
	if err := d.store.CommitPricing(ctx, item, collapsed.Upserts); err != nil {
		d.publishMu.Unlock()
		return nil, d.failPersistence("failed to commit pricing event", obs.ItemID, err)
	}
	d.emit(*item, collapsed.Upserts)
	d.publishMu.Unlock()

	metrics.DispatchEventsTotal.WithLabelValues(string(StateDispatched)).Inc()
	metrics.RecommendationsCreatedTotal.Add(float64(collapsed.Created))
	metrics.RecommendationsSupersededTotal.Add(float64(collapsed.Superseded))

	slog.Info("Ingestion event dispatched",
		"item_id", item.ID.String(),
		"freshness_score", item.FreshnessScore,
		"discount_percent", item.DiscountPercent,
		"status", item.Status,
		"recommendations_created", collapsed.Created,
		"recommendations_superseded", collapsed.Superseded,
	)

	return &Result{
		State:      StateDispatched,
		Item:       item,
		Created:    collapsed.Created,
		Superseded: collapsed.Superseded,
	}, nil
}

// matchCustomers evaluates every active customer against the priced item. A
// customer with malformed preference data is skipped for this cycle only.
func (d *Dispatcher) matchCustomers(ctx context.Context, item domain.CatalogItem) ([]dedup.Candidate, error) {
	customers, err := d.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []dedup.Candidate
	for _, customer := range customers {
		metrics.MatcherEvaluationsTotal.Inc()

		matched, reason, err := matching.Evaluate(item, customer)
		if err != nil {
			metrics.MatcherSkippedCustomersTotal.Inc()
			slog.Warn("Skipping customer with malformed preferences", "customer_id", customer.ID.String(), "error", err)
			continue
		}
		if !matched {
			continue
		}

		candidates = append(candidates, dedup.Candidate{
			CustomerID: customer.ID,
			Score:      d.scorer.Score(item, customer),
			Reason:     reason,
		})
	}
	return candidates, nil
}

// emit fans out the persisted event: one unconditional admin broadcast, a
// critical-status alert when warranted, and a targeted notification per
// freshly persisted recommendation. Failures inside the publisher are
// per-connection and never surface here.
func (d *Dispatcher) emit(item domain.CatalogItem, recs []domain.Recommendation) {
	d.publisher.BroadcastAdmin(domain.EventItemUpdated, item)

	if item.Status == domain.StatusCritical {
		d.publisher.BroadcastAdmin(domain.EventFreshnessAlert, map[string]any{
			"message":         fmt.Sprintf("Item %s is in critical condition", item.Category),
			"item_id":         item.ID,
			"freshness_score": item.FreshnessScore,
		})
	}

	for _, rec := range recs {
		d.publisher.NotifyCustomer(rec.CustomerID, domain.EventNewRecommendation, rec)
	}
}

func (d *Dispatcher) failPersistence(message string, itemID uuid.UUID, cause error) error {
	metrics.DispatchEventsTotal.WithLabelValues("failed_persistence").Inc()
	return apperrors.PersistenceError(message, cause).WithField("item_id", itemID.String())
}

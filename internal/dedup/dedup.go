// Package dedup collapses repeated preference matches into a single active
// recommendation per (customer, item) pair.
package dedup

import (
	"time"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/google/uuid"
)

// Candidate is one freshly matched (customer, item) pair from a dispatch
// cycle, before deduplication.
type Candidate struct {
	CustomerID uuid.UUID
	Score      float64
	Reason     domain.MatchReason
}

// Result is the deduplicated outcome of one cycle.
type Result struct {
	// Upserts are the recommendations to persist: brand new records and
	// superseded active records updated in place.
	Upserts    []domain.Recommendation
	Created    int
	Superseded int
}

// Collapse reconciles a cycle's candidates with the item's current active
// recommendations. An active record for a pair is updated in place when the
// discount changed, never duplicated; an unchanged discount produces no write.
// Viewed or purchased records are immutable history and are never touched.
//
// When one cycle carries several candidates for the same pair, the higher
// discount wins; on equal discount the most recent candidate wins.
func Collapse(itemID uuid.UUID, candidates []Candidate, active []domain.Recommendation, now time.Time) Result {
	best := make(map[uuid.UUID]Candidate)
	order := make([]uuid.UUID, 0, len(candidates))
	for _, cand := range candidates {
		current, exists := best[cand.CustomerID]
		if !exists {
			best[cand.CustomerID] = cand
			order = append(order, cand.CustomerID)
			continue
		}
		// Candidates arrive in cycle order, so on an equal discount the
		// later one is the most recent and replaces the earlier.
		if cand.Reason.DiscountPercent >= current.Reason.DiscountPercent {
			best[cand.CustomerID] = cand
		}
	}

	activeByCustomer := make(map[uuid.UUID]domain.Recommendation, len(active))
	for _, rec := range active {
		if !rec.Active() {
			continue
		}
		activeByCustomer[rec.CustomerID] = rec
	}

	var result Result
	for _, customerID := range order {
		cand := best[customerID]

		if existing, ok := activeByCustomer[customerID]; ok {
			if existing.Reason.DiscountPercent == cand.Reason.DiscountPercent {
				// Same discount already recommended; nothing to write.
				continue
			}
			existing.PriorityScore = cand.Score
			existing.Reason = cand.Reason
			existing.CreatedAt = now
			result.Upserts = append(result.Upserts, existing)
			result.Superseded++
			continue
		}

		result.Upserts = append(result.Upserts, domain.Recommendation{
			ID:            uuid.New(),
			CustomerID:    customerID,
			ItemID:        itemID,
			PriorityScore: cand.Score,
			Reason:        cand.Reason,
			CreatedAt:     now,
		})
		result.Created++
	}

	return result
}

// Package pricing maps freshness scores to markdown percentages and prices.
//
// The mapping is a discrete tier table applied uniformly to every freshness
// source. It is deterministic and idempotent: the same score always produces
// the same discount, with no time or randomness dependence.
package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/AntoDono/suscart/internal/domain"
)

// MaxScore bounds the freshness scale; scores outside [0, MaxScore] are
// rejected before any state is touched.
const MaxScore = 100.0

// discountTiers maps a minimum freshness score to its markdown. Rows are
// ordered from freshest to most expired; the first row whose threshold the
// score meets wins.
var discountTiers = []struct {
	minScore float64
	discount float64
}{
	{80, 0},
	{60, 10},
	{40, 25},
	{20, 50},
	{0, 75},
}

// Discount returns the markdown percentage for a freshness score.
func Discount(score float64) (float64, error) {
	if err := ValidateScore(score); err != nil {
		return 0, err
	}
	for _, tier := range discountTiers {
		if score >= tier.minScore {
			return tier.discount, nil
		}
	}
	// Unreachable: the last tier's threshold is 0 and the score is validated.
	return discountTiers[len(discountTiers)-1].discount, nil
}

// ValidateScore rejects scores outside the sensing scale.
func ValidateScore(score float64) error {
	if math.IsNaN(score) || score < 0 || score > MaxScore {
		return fmt.Errorf("freshness score %v out of range [0, %v]", score, MaxScore)
	}
	return nil
}

// Price applies a discount percentage to an original price, rounded to cents.
func Price(originalPrice, discountPercent float64) float64 {
	return math.Round(originalPrice*(1-discountPercent/100)*100) / 100
}

// StatusFor buckets a freshness score into a shelf-life status.
func StatusFor(score float64) domain.FreshnessStatus {
	switch {
	case score >= 70:
		return domain.StatusFresh
	case score >= 40:
		return domain.StatusWarning
	case score >= 10:
		return domain.StatusCritical
	default:
		return domain.StatusExpired
	}
}

// Apply reprices an item from a freshness observation, mutating its score,
// discount, price, status and check timestamp.
func Apply(item *domain.CatalogItem, score float64, observedAt time.Time) error {
	discount, err := Discount(score)
	if err != nil {
		return err
	}

	item.FreshnessScore = score
	item.DiscountPercent = discount
	item.CurrentPrice = Price(item.OriginalPrice, discount)
	item.Status = StatusFor(score)
	item.LastCheckedAt = observedAt
	return nil
}

// Package matching evaluates priced catalog items against customer
// preference profiles. Evaluation is pure: no clock, no store, no side
// effects.
package matching

import (
	"fmt"

	"github.com/AntoDono/suscart/internal/domain"
)

// MatchTypeFavoriteCategory is the rule that fires when an item's category,
// price and discount all clear a customer's thresholds.
const MatchTypeFavoriteCategory = "favorite_category"

// Evaluate applies the preference rule to one item and one customer. All
// clauses must hold: the category is a favorite, the current price is within
// budget, and the discount meets the customer's threshold.
//
// Two vetoes apply before any clause: an item with no discount never matches,
// and a customer with no favorite categories matches nothing.
//
// The error return signals malformed preference data; the caller skips that
// customer for the cycle without affecting others.
func Evaluate(item domain.CatalogItem, customer domain.CustomerProfile) (bool, domain.MatchReason, error) {
	prefs := customer.Preferences
	if prefs.MaxPrice < 0 {
		return false, domain.MatchReason{}, fmt.Errorf("customer %s: negative max_price %v", customer.ID, prefs.MaxPrice)
	}
	if prefs.MinDiscountThreshold < 0 || prefs.MinDiscountThreshold > 100 {
		return false, domain.MatchReason{}, fmt.Errorf("customer %s: min_discount_threshold %v out of range [0, 100]", customer.ID, prefs.MinDiscountThreshold)
	}

	// An undiscounted item is never recommended, whatever the thresholds say.
	if item.DiscountPercent == 0 {
		return false, domain.MatchReason{}, nil
	}

	// An empty favorites set matches nothing, never everything.
	if len(prefs.FavoriteCategories) == 0 {
		return false, domain.MatchReason{}, nil
	}

	if !containsCategory(prefs.FavoriteCategories, item.Category) {
		return false, domain.MatchReason{}, nil
	}
	if item.CurrentPrice > prefs.MaxPrice {
		return false, domain.MatchReason{}, nil
	}
	if item.DiscountPercent < prefs.MinDiscountThreshold {
		return false, domain.MatchReason{}, nil
	}

	reason := domain.MatchReason{
		MatchType:            MatchTypeFavoriteCategory,
		Category:             item.Category,
		DiscountPercent:      item.DiscountPercent,
		Price:                item.CurrentPrice,
		OriginalPrice:        item.OriginalPrice,
		MaxPrice:             prefs.MaxPrice,
		MinDiscountThreshold: prefs.MinDiscountThreshold,
	}
	return true, reason, nil
}

func containsCategory(categories []string, category string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}

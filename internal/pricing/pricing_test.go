package pricing

import (
	"testing"
	"time"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountTiers(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected float64
	}{
		{"pristine", 100, 0},
		{"tier boundary fresh", 80, 0},
		{"just below fresh", 79.9, 10},
		{"mid tier", 65, 10},
		{"reference scenario", 45, 25},
		{"tier boundary warning", 40, 25},
		{"declining", 25, 50},
		{"near expired", 10, 75},
		{"fully expired", 0, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount, err := Discount(tt.score)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, discount)
		})
	}
}

func TestDiscountRejectsOutOfRangeScores(t *testing.T) {
	for _, score := range []float64{-0.1, -50, 100.1, 1000} {
		_, err := Discount(score)
		assert.Error(t, err, "score %v should be rejected", score)
	}
}

func TestDiscountMonotoneNonIncreasing(t *testing.T) {
	prev := 100.0
	for score := 0.0; score <= 100; score += 0.5 {
		discount, err := Discount(score)
		require.NoError(t, err)
		assert.LessOrEqual(t, discount, prev, "discount must not increase with freshness (score %v)", score)
		assert.GreaterOrEqual(t, discount, 0.0)
		assert.LessOrEqual(t, discount, 100.0)
		prev = discount
	}
}

func TestDiscountIdempotent(t *testing.T) {
	for _, score := range []float64{0, 13.7, 45, 80, 100} {
		first, err := Discount(score)
		require.NoError(t, err)
		second, err := Discount(score)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestPriceRounding(t *testing.T) {
	assert.Equal(t, 2.99, Price(3.99, 25))
	assert.Equal(t, 3.99, Price(3.99, 0))
	assert.Equal(t, 1.0, Price(4.0, 75))
	assert.Equal(t, 0.0, Price(0.0, 50))
}

func TestPriceReferenceScenario(t *testing.T) {
	// score 45 -> 25% off -> price = original * 0.75
	discount, err := Discount(45)
	require.NoError(t, err)
	assert.Equal(t, 25.0, discount)
	assert.Equal(t, 7.5, Price(10.0, discount))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, domain.StatusFresh, StatusFor(100))
	assert.Equal(t, domain.StatusFresh, StatusFor(70))
	assert.Equal(t, domain.StatusWarning, StatusFor(69.9))
	assert.Equal(t, domain.StatusWarning, StatusFor(40))
	assert.Equal(t, domain.StatusCritical, StatusFor(39.9))
	assert.Equal(t, domain.StatusCritical, StatusFor(10))
	assert.Equal(t, domain.StatusExpired, StatusFor(9.9))
	assert.Equal(t, domain.StatusExpired, StatusFor(0))
}

func TestApply(t *testing.T) {
	observedAt := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	item := domain.CatalogItem{
		Category:      "apple",
		OriginalPrice: 5.32,
		CurrentPrice:  5.32,
	}

	require.NoError(t, Apply(&item, 45, observedAt))

	assert.Equal(t, 45.0, item.FreshnessScore)
	assert.Equal(t, 25.0, item.DiscountPercent)
	assert.Equal(t, 3.99, item.CurrentPrice)
	assert.Equal(t, domain.StatusWarning, item.Status)
	assert.Equal(t, observedAt, item.LastCheckedAt)
}

func TestApplyInvalidScoreLeavesItemUntouched(t *testing.T) {
	item := domain.CatalogItem{OriginalPrice: 5.0, CurrentPrice: 5.0, Status: domain.StatusFresh}
	before := item

	err := Apply(&item, 150, time.Now())

	require.Error(t, err)
	assert.Equal(t, before, item)
}

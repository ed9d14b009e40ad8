package trend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"EMAScan/internal/domain/models"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want models.TrendCategory
		icon models.TrendIcon
	}{
		{25, models.TrendVeryBullish, models.IconStrongUp},
		{10.0001, models.TrendVeryBullish, models.IconStrongUp},
		{10, models.TrendBullish, models.IconUp},
		{7, models.TrendBullish, models.IconUp},
		{5, models.TrendSlightlyBullish, models.IconUp},
		{0.01, models.TrendSlightlyBullish, models.IconUp},
		{0, models.TrendNeutral, models.IconFlat},
		{-4.99, models.TrendNeutral, models.IconFlat},
		{-5, models.TrendSlightlyBearish, models.IconDown},
		{-9.99, models.TrendSlightlyBearish, models.IconDown},
		{-10, models.TrendBearish, models.IconStrongDown},
		{-80, models.TrendBearish, models.IconStrongDown},
	}
	for _, tc := range cases {
		got := Classify(tc.pct)
		assert.Equal(t, tc.want, got.Category, "pct=%v", tc.pct)
		assert.Equal(t, tc.icon, got.Icon, "pct=%v", tc.pct)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	order := map[models.TrendCategory]int{
		models.TrendBearish:         0,
		models.TrendSlightlyBearish: 1,
		models.TrendNeutral:         2,
		models.TrendSlightlyBullish: 3,
		models.TrendBullish:         4,
		models.TrendVeryBullish:     5,
	}
	prev := -1
	for pct := -30.0; pct <= 30.0; pct += 0.25 {
		rank, ok := order[Classify(pct).Category]
		assert.True(t, ok, "unknown category at %v", pct)
		assert.GreaterOrEqual(t, rank, prev, "category regressed at %v", pct)
		prev = rank
	}
}

func TestIsValidDistance(t *testing.T) {
	assert.True(t, IsValidDistance(-12.5))
	assert.False(t, IsValidDistance(math.NaN()))
	assert.False(t, IsValidDistance(math.Inf(1)))
}

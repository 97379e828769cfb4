package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// points builds a newest-first window from oldest-first prices, one day
// apart, so tests can be written in chronological order.
func points(oldestFirst ...float64) []Point {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Point, len(oldestFirst))
	for i, p := range oldestFirst {
		out[len(oldestFirst)-1-i] = Point{Price: p, At: base.Add(time.Duration(i) * 24 * time.Hour)}
	}
	return out
}

func TestTrendClassification(t *testing.T) {
	cases := []struct {
		name   string
		prices []float64
		want   string
	}{
		{"flat", []float64{100, 100, 100}, TrendStable},
		{"drop beyond threshold", []float64{100, 80}, TrendDecreasing},
		{"rise beyond threshold", []float64{80, 100}, TrendIncreasing},
		{"small move is stable", []float64{100, 104}, TrendStable},
		{"small drop is stable", []float64{100, 96}, TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Trend(points(tc.prices...)).Trend)
		})
	}
}

func TestTrendReportFields(t *testing.T) {
	r := Trend(points(100, 90, 80))

	assert.Equal(t, TrendDecreasing, r.Trend)
	assert.Equal(t, -20.0, r.ChangePercent)
	assert.Equal(t, 80.0, r.LowestPrice)
	assert.Equal(t, 100.0, r.HighestPrice)
	assert.Equal(t, 90.0, r.AveragePrice)
	assert.Equal(t, 80.0, r.CurrentPrice)
	assert.Equal(t, 10.0, r.Volatility) // sample stdev of {80,90,100}
}

func TestTrendInsufficientData(t *testing.T) {
	assert.Equal(t, TrendInsufficient, Trend(nil).Trend)
	assert.Equal(t, TrendInsufficient, Trend(points(100)).Trend)
	assert.Zero(t, Trend(points(100)).Volatility)
}

func TestRecommendBuyNowAtWindowMin(t *testing.T) {
	// Current price equals the window minimum.
	r := Recommend(points(120, 115, 110, 112, 118, 111, 100))

	assert.Equal(t, ActionBuyNow, r.Action)
	assert.Equal(t, 100.0, r.CurrentPrice)
	assert.Equal(t, 100.0, r.LowestPrice)
	assert.Equal(t, 0.0, r.PricePosition)
	assert.Equal(t, "medium", r.Confidence)
}

func TestRecommendGoodTimeBelowAverage(t *testing.T) {
	// Average is 100; current 90 = 0.9*avg, but well above the window min.
	r := Recommend(points(70, 110, 110, 120, 100, 100, 90))

	require.Equal(t, 90.0, r.CurrentPrice)
	assert.Equal(t, ActionGoodTime, r.Action)
}

func TestRecommendWaitAboveAverage(t *testing.T) {
	// Average is 100; current 120 = 1.2*avg.
	r := Recommend(points(95, 95, 95, 95, 100, 100, 120))

	require.Equal(t, 120.0, r.CurrentPrice)
	assert.Equal(t, ActionWait, r.Action)
}

func TestRecommendNeutralAroundAverage(t *testing.T) {
	r := Recommend(points(80, 104, 104, 104, 104, 104, 100))

	assert.Equal(t, ActionNeutral, r.Action)
}

func TestRecommendNeedsHistory(t *testing.T) {
	r := Recommend(points(100, 90))
	assert.Equal(t, ActionNeedMoreData, r.Action)
}

func TestRecommendConfidenceHigh(t *testing.T) {
	prices := make([]float64, 31)
	for i := range prices {
		prices[i] = 100
	}
	prices[30] = 90 // current

	r := Recommend(points(prices...))
	assert.Equal(t, "high", r.Confidence)
}

func TestComparePlatforms(t *testing.T) {
	entries := []PlatformPrice{
		{Platform: "Amazon", Price: 50000},
		{Platform: "Flipkart", Price: 48000},
		{Platform: "Snapdeal", Price: 52000},
	}

	r := ComparePlatforms(entries)
	require.NotNil(t, r)

	assert.Equal(t, "Flipkart", r.BestDeal.Platform)
	assert.Equal(t, 4000.0, r.PotentialSavings)
	assert.InDelta(t, 7.69, r.SavingsPercent, 0.01)
	assert.Len(t, r.Comparison, 3)
}

func TestComparePlatformsEmpty(t *testing.T) {
	assert.Nil(t, ComparePlatforms(nil))
}

func TestSavings(t *testing.T) {
	r := Savings(points(100, 120, 90))

	assert.Equal(t, 90.0, r.CurrentPrice)
	assert.Equal(t, 120.0, r.HighestPrice)
	assert.Equal(t, 30.0, r.Savings)
	assert.Equal(t, 25.0, r.SavingsPercent)

	assert.Zero(t, Savings(points(100)).Savings)
}

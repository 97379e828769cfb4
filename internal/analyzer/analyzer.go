// Package analyzer derives trend, dispersion, and buy-recommendation
// summaries from a product's price history. Everything here is a pure
// function over (price, timestamp) points; the newest point comes first,
// matching the store's read order.
package analyzer

import (
	"math"
	"time"
)

type Point struct {
	Price float64   `json:"price"`
	At    time.Time `json:"timestamp"`
}

const (
	TrendIncreasing   = "increasing"
	TrendDecreasing   = "decreasing"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient_data"
)

// trendThreshold is the percent change below which movement counts as noise.
const trendThreshold = 5.0

type TrendReport struct {
	Trend         string  `json:"trend"`
	ChangePercent float64 `json:"change_percent"`
	LowestPrice   float64 `json:"lowest_price"`
	HighestPrice  float64 `json:"highest_price"`
	AveragePrice  float64 `json:"average_price"`
	CurrentPrice  float64 `json:"current_price"`
	Volatility    float64 `json:"volatility"`
}

// Trend classifies the window by the percent change between its oldest and
// newest points. Volatility is the sample standard deviation, zero when the
// window has fewer than two points.
func Trend(points []Point) TrendReport {
	if len(points) < 2 {
		return TrendReport{Trend: TrendInsufficient}
	}

	prices := pricesOf(points)
	oldest := prices[len(prices)-1]
	newest := prices[0]
	change := (newest - oldest) / oldest * 100

	trend := TrendStable
	switch {
	case change > trendThreshold:
		trend = TrendIncreasing
	case change < -trendThreshold:
		trend = TrendDecreasing
	}

	low, high := minMax(prices)
	return TrendReport{
		Trend:         trend,
		ChangePercent: round2(change),
		LowestPrice:   low,
		HighestPrice:  high,
		AveragePrice:  round2(mean(prices)),
		CurrentPrice:  newest,
		Volatility:    round2(sampleStdev(prices)),
	}
}

const (
	ActionBuyNow       = "buy_now"
	ActionGoodTime     = "good_time"
	ActionWait         = "wait"
	ActionNeutral      = "neutral"
	ActionNeedMoreData = "need_more_data"
)

// minRecommendPoints is how much history a recommendation needs before it
// says anything beyond "need more data".
const minRecommendPoints = 7

type Recommendation struct {
	Action        string  `json:"recommendation"`
	Reason        string  `json:"reason"`
	CurrentPrice  float64 `json:"current_price"`
	AveragePrice  float64 `json:"average_price"`
	LowestPrice   float64 `json:"lowest_price"`
	PricePosition float64 `json:"price_position"`
	Confidence    string  `json:"confidence"`
}

// Recommend positions the current price against the window's min and mean:
// at or within 5% of the historical low it says buy now, more than 5% below
// average is a good time, more than 10% above average means wait.
func Recommend(points []Point) Recommendation {
	if len(points) < minRecommendPoints {
		return Recommendation{Action: ActionNeedMoreData, Reason: "not enough price history yet"}
	}

	prices := pricesOf(points)
	current := prices[0]
	avg := mean(prices)
	low, high := minMax(prices)

	position := 0.0
	if high > low {
		position = (current - low) / (high - low) * 100
	}

	var action, reason string
	switch {
	case current <= low*1.05:
		action, reason = ActionBuyNow, "price is at or near historical low"
	case current <= avg*0.95:
		action, reason = ActionGoodTime, "price is below average"
	case current >= avg*1.1:
		action, reason = ActionWait, "price is above average, consider waiting"
	default:
		action, reason = ActionNeutral, "price is around average"
	}

	confidence := "medium"
	if len(points) > 30 {
		confidence = "high"
	}

	return Recommendation{
		Action:        action,
		Reason:        reason,
		CurrentPrice:  current,
		AveragePrice:  round2(avg),
		LowestPrice:   low,
		PricePosition: round2(position),
		Confidence:    confidence,
	}
}

type PlatformPrice struct {
	Platform   string    `json:"platform"`
	Price      float64   `json:"price"`
	URL        string    `json:"url"`
	RecordedAt time.Time `json:"last_updated"`
}

type ComparisonReport struct {
	Comparison       []PlatformPrice `json:"comparison"`
	BestDeal         PlatformPrice   `json:"best_deal"`
	PotentialSavings float64         `json:"potential_savings"`
	SavingsPercent   float64         `json:"savings_percent"`
}

// ComparePlatforms finds the best deal among per-platform latest prices.
// Returns nil when there is nothing to compare.
func ComparePlatforms(entries []PlatformPrice) *ComparisonReport {
	if len(entries) == 0 {
		return nil
	}

	best, worst := entries[0], entries[0]
	for _, e := range entries[1:] {
		if e.Price < best.Price {
			best = e
		}
		if e.Price > worst.Price {
			worst = e
		}
	}

	savings := worst.Price - best.Price
	percent := 0.0
	if worst.Price > 0 {
		percent = savings / worst.Price * 100
	}

	return &ComparisonReport{
		Comparison:       entries,
		BestDeal:         best,
		PotentialSavings: round2(savings),
		SavingsPercent:   round2(percent),
	}
}

type SavingsReport struct {
	CurrentPrice   float64 `json:"current_price"`
	HighestPrice   float64 `json:"highest_price"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savings_percent"`
}

// Savings measures how far the current price sits below the window high.
func Savings(points []Point) SavingsReport {
	if len(points) < 2 {
		return SavingsReport{}
	}

	prices := pricesOf(points)
	current := prices[0]
	_, high := minMax(prices)

	saved := high - current
	percent := 0.0
	if high > 0 {
		percent = saved / high * 100
	}
	return SavingsReport{
		CurrentPrice:   current,
		HighestPrice:   high,
		Savings:        round2(saved),
		SavingsPercent: round2(percent),
	}
}

func pricesOf(points []Point) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func minMax(xs []float64) (low, high float64) {
	low, high = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < low {
			low = x
		}
		if x > high {
			high = x
		}
	}
	return low, high
}

func sampleStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

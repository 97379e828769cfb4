package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var laptopKey = ProductKey{Name: "Laptop X", Platform: "Amazon", URL: "https://amazon.example/laptop-x"}

func TestSaveObservationCreatesProductOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id1, err := s.SaveObservation(ctx, laptopKey, 50000, "INR", time.Now())
	require.NoError(t, err)
	id2, err := s.SaveObservation(ctx, laptopKey, 49000, "INR", time.Now())
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// Same name on another platform is a different product.
	id3, err := s.SaveObservation(ctx, ProductKey{Name: "Laptop X", Platform: "Flipkart"}, 48000, "INR", time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestLatestObservationByTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Appended out of timestamp order: the store must sort, not trust
	// insertion order.
	id, err := s.SaveObservation(ctx, laptopKey, 50000, "INR", base.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = s.SaveObservation(ctx, laptopKey, 52000, "INR", base)
	require.NoError(t, err)
	_, err = s.SaveObservation(ctx, laptopKey, 51000, "INR", base.Add(time.Hour))
	require.NoError(t, err)

	latest, err := s.LatestObservation(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 50000.0, latest.Price)
}

func TestLatestObservationTieBreaksByInsertion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.SaveObservation(ctx, laptopKey, 100, "INR", at)
	require.NoError(t, err)
	_, err = s.SaveObservation(ctx, laptopKey, 200, "INR", at)
	require.NoError(t, err)

	latest, err := s.LatestObservation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 200.0, latest.Price)
}

func TestLatestObservationEmpty(t *testing.T) {
	s := NewMemoryStore()
	latest, err := s.LatestObservation(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestHistoryNewestFirstWithinWindow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	id, _ := s.SaveObservation(ctx, laptopKey, 100, "INR", now.Add(-48*time.Hour))
	_, _ = s.SaveObservation(ctx, laptopKey, 90, "INR", now.Add(-24*time.Hour))
	_, _ = s.SaveObservation(ctx, laptopKey, 80, "INR", now.Add(-10*24*time.Hour)) // outside window

	history, err := s.History(ctx, id, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 90.0, history[0].Price)
	assert.Equal(t, 100.0, history[1].Price)
}

func TestRetentionKeepsMostRecentObservation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	// All observations are older than the cutoff; the newest must survive.
	id, _ := s.SaveObservation(ctx, laptopKey, 100, "INR", now.Add(-200*24*time.Hour))
	_, _ = s.SaveObservation(ctx, laptopKey, 110, "INR", now.Add(-150*24*time.Hour))
	_, _ = s.SaveObservation(ctx, laptopKey, 120, "INR", now.Add(-120*24*time.Hour))

	deleted, err := s.DeleteObservationsOlderThan(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	latest, err := s.LatestObservation(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 120.0, latest.Price)
}

func TestRetentionDeletesExactlyOlderRows(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	id, _ := s.SaveObservation(ctx, laptopKey, 100, "INR", now.Add(-100*24*time.Hour))
	_, _ = s.SaveObservation(ctx, laptopKey, 110, "INR", now.Add(-30*24*time.Hour))
	_, _ = s.SaveObservation(ctx, laptopKey, 120, "INR", now.Add(-1*24*time.Hour))

	deleted, err := s.DeleteObservationsOlderThan(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	history, err := s.History(ctx, id, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestTrackedProducts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Explicitly registered pair, no observations yet.
	registered, err := s.RegisterProduct(ctx, ProductKey{Name: "Phone Y", Platform: "Flipkart"})
	require.NoError(t, err)
	assert.True(t, registered.Tracked)

	// Product referenced by an active alert.
	alertedID, _ := s.SaveObservation(ctx, laptopKey, 50000, "INR", time.Now())
	_, err = s.CreateAlert(ctx, alertedID, 45000, "user@example.com")
	require.NoError(t, err)

	// Product with neither.
	_, _ = s.SaveObservation(ctx, ProductKey{Name: "Headphones Z", Platform: "Snapdeal"}, 2000, "INR", time.Now())

	tracked, err := s.TrackedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, tracked, 2)

	names := []string{tracked[0].Name, tracked[1].Name}
	assert.Contains(t, names, "Phone Y")
	assert.Contains(t, names, "Laptop X")
}

func TestTrackedProductsDropsTriggeredAlerts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, _ := s.SaveObservation(ctx, laptopKey, 50000, "INR", time.Now())
	alertID, _ := s.CreateAlert(ctx, id, 45000, "user@example.com")

	tracked, _ := s.TrackedProducts(ctx)
	require.Len(t, tracked, 1)

	require.NoError(t, s.MarkTriggered(ctx, alertID))

	tracked, _ = s.TrackedProducts(ctx)
	assert.Empty(t, tracked)
}

func TestMarkTriggeredIsOneWay(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, _ := s.SaveObservation(ctx, laptopKey, 50000, "INR", time.Now())
	alertID, _ := s.CreateAlert(ctx, id, 45000, "user@example.com")

	require.NoError(t, s.MarkTriggered(ctx, alertID))
	// Marking again is a no-op, not an error.
	require.NoError(t, s.MarkTriggered(ctx, alertID))

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestActiveAlertsJoinProductFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, _ := s.SaveObservation(ctx, laptopKey, 50000, "INR", time.Now())
	_, _ = s.CreateAlert(ctx, id, 45000, "user@example.com")

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Laptop X", active[0].ProductName)
	assert.Equal(t, laptopKey.URL, active[0].ProductURL)
}

func TestAlertDestinationsAndProducts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id1, _ := s.SaveObservation(ctx, laptopKey, 50000, "INR", time.Now())
	id2, _ := s.SaveObservation(ctx, ProductKey{Name: "Phone Y", Platform: "Flipkart"}, 20000, "INR", time.Now())

	_, _ = s.CreateAlert(ctx, id1, 45000, "a@example.com")
	_, _ = s.CreateAlert(ctx, id2, 18000, "a@example.com")
	_, _ = s.CreateAlert(ctx, id1, 40000, "b@example.com")

	emails, err := s.AlertDestinations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, emails)

	products, err := s.ProductsForDestination(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = s.ProductsForDestination(ctx, "b@example.com")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Laptop X", products[0].Name)
}

func TestLatestByName(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	_, _ = s.SaveObservation(ctx, laptopKey, 50000, "INR", now)
	_, _ = s.SaveObservation(ctx, ProductKey{Name: "Laptop X", Platform: "Flipkart"}, 48000, "INR", now)
	_, _ = s.SaveObservation(ctx, ProductKey{Name: "Other", Platform: "Amazon"}, 100, "INR", now)

	entries, err := s.LatestByName(ctx, "laptop x")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Sorted cheapest first.
	assert.Equal(t, "Flipkart", entries[0].Platform)
	assert.Equal(t, 48000.0, entries[0].Price)
}

func TestTrendingRanksByObservationCount(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	hotID, _ := s.SaveObservation(ctx, laptopKey, 50000, "INR", now)
	_, _ = s.SaveObservation(ctx, laptopKey, 49000, "INR", now)
	_, _ = s.SaveObservation(ctx, ProductKey{Name: "Phone Y", Platform: "Flipkart"}, 20000, "INR", now)
	// Stale observations don't count.
	_, _ = s.SaveObservation(ctx, ProductKey{Name: "Old Thing", Platform: "Amazon"}, 10, "INR", now.Add(-30*24*time.Hour))

	trending, err := s.Trending(ctx, 7*24*time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, hotID, trending[0].ID)
	assert.Equal(t, 2, trending[0].Observations)
}

func TestPlatformStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	_, _ = s.SaveObservation(ctx, laptopKey, 100, "INR", now)
	_, _ = s.SaveObservation(ctx, laptopKey, 200, "INR", now)
	_, _ = s.SaveObservation(ctx, ProductKey{Name: "Phone Y", Platform: "Flipkart"}, 300, "INR", now)

	stats, err := s.PlatformStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "Amazon", stats[0].Platform)
	assert.Equal(t, 1, stats[0].Products)
	assert.Equal(t, 2, stats[0].Observations)
	assert.Equal(t, 150.0, stats[0].AveragePrice)
}

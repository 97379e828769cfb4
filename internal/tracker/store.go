package tracker

import (
	"context"
	"time"
)

// Store is the persistence contract the tracking core depends on. Two
// implementations exist: Repository on Postgres and MemoryStore for tests
// and local development. All operations are safe to call on a freshly
// initialized store.
type Store interface {
	// SaveObservation appends a price reading, creating the product for a
	// never-seen (name, platform) pair. Returns the owning product id.
	SaveObservation(ctx context.Context, key ProductKey, price float64, currency string, at time.Time) (int, error)

	// RegisterProduct marks a (name, platform) pair as explicitly tracked,
	// creating the product row if needed. No observation is written.
	RegisterProduct(ctx context.Context, key ProductKey) (Product, error)

	// LatestObservation returns the observation with the maximum timestamp,
	// ties broken by the highest id (most recently inserted). Nil when the
	// product has no observations yet.
	LatestObservation(ctx context.Context, productID int) (*Observation, error)

	// History returns observations no older than maxAge, newest first.
	History(ctx context.Context, productID int, maxAge time.Duration) ([]Observation, error)

	// TrackedProducts returns every distinct product that is explicitly
	// tracked or referenced by at least one active alert.
	TrackedProducts(ctx context.Context) ([]Product, error)

	ActiveAlerts(ctx context.Context) ([]Alert, error)
	CreateAlert(ctx context.Context, productID int, targetPrice float64, email string) (int, error)

	// MarkTriggered transitions an alert from active to triggered. The
	// transition is one-way; marking an already-triggered alert is a no-op.
	MarkTriggered(ctx context.Context, alertID int) error

	// DeleteObservationsOlderThan removes observations older than age,
	// always keeping each product's most recent one. Returns the number of
	// rows deleted.
	DeleteObservationsOlderThan(ctx context.Context, age time.Duration) (int64, error)

	// AlertDestinations returns the distinct emails holding at least one
	// alert; ProductsForDestination the products those alerts reference.
	AlertDestinations(ctx context.Context) ([]string, error)
	ProductsForDestination(ctx context.Context, email string) ([]Product, error)

	// Read surface for the HTTP API.
	ListProducts(ctx context.Context) ([]Product, error)
	ProductByID(ctx context.Context, id int) (*Product, error)
	LatestByName(ctx context.Context, name string) ([]PlatformPrice, error)
	Trending(ctx context.Context, window time.Duration, limit int) ([]TrendingProduct, error)
	PlatformStats(ctx context.Context) ([]PlatformStat, error)
}

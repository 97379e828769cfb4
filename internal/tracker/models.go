package tracker

import "time"

// ProductKey identifies a product by what the user tracks: a (name,
// platform) pair. The URL rides along so lazy product creation can store a
// canonical link.
type ProductKey struct {
	Name     string
	Platform string
	URL      string
}

type Product struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Platform     string    `json:"platform"`
	URL          string    `json:"url"`
	Tracked      bool      `json:"tracked"`
	CurrentPrice *float64  `json:"current_price,omitempty"` // nullable
	CreatedAt    time.Time `json:"created_at"`
}

// Observation is one immutable price reading. Rows are append-only; reads
// sort by timestamp because insertion order is not guaranteed to match it.
type Observation struct {
	ID         int       `json:"id"`
	ProductID  int       `json:"product_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	RecordedAt time.Time `json:"recorded_at"`
}

type AlertState string

const (
	AlertActive    AlertState = "active"
	AlertTriggered AlertState = "triggered"
)

// Alert fires a notification the first time its product's price drops to or
// below the target. triggered is terminal; the user creates a new alert to
// re-arm.
type Alert struct {
	ID          int        `json:"id"`
	ProductID   int        `json:"product_id"`
	TargetPrice float64    `json:"target_price"`
	Email       string     `json:"email"`
	State       AlertState `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`

	// Joined from products for evaluation and notification rendering.
	ProductName string `json:"product_name,omitempty"`
	ProductURL  string `json:"product_url,omitempty"`
}

// PlatformPrice is a product's latest price on one platform, for
// cross-platform comparison.
type PlatformPrice struct {
	ProductID  int       `json:"product_id"`
	Platform   string    `json:"platform"`
	Price      float64   `json:"price"`
	URL        string    `json:"url"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TrendingProduct is a product ranked by recent observation volume.
type TrendingProduct struct {
	Product
	Observations int `json:"observations"`
}

type PlatformStat struct {
	Platform     string  `json:"platform"`
	Products     int     `json:"products"`
	Observations int     `json:"observations"`
	AveragePrice float64 `json:"average_price"`
}

package tracker

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. It backs the test suites and
// local development without Postgres, and is the reference implementation
// of the store contract.
type MemoryStore struct {
	mu           sync.Mutex
	products     []Product
	observations []Observation
	alerts       []Alert
	nextProduct  int
	nextObs      int
	nextAlert    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextProduct: 1, nextObs: 1, nextAlert: 1}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) findProduct(key ProductKey) *Product {
	for i := range m.products {
		if m.products[i].Name == key.Name && m.products[i].Platform == key.Platform {
			return &m.products[i]
		}
	}
	return nil
}

func (m *MemoryStore) SaveObservation(_ context.Context, key ProductKey, price float64, currency string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.findProduct(key)
	if p == nil {
		m.products = append(m.products, Product{
			ID:        m.nextProduct,
			Name:      key.Name,
			Platform:  key.Platform,
			URL:       key.URL,
			CreatedAt: at,
		})
		p = &m.products[len(m.products)-1]
		m.nextProduct++
	} else if key.URL != "" {
		p.URL = key.URL
	}

	m.observations = append(m.observations, Observation{
		ID:         m.nextObs,
		ProductID:  p.ID,
		Price:      price,
		Currency:   currency,
		RecordedAt: at,
	})
	m.nextObs++
	return p.ID, nil
}

func (m *MemoryStore) RegisterProduct(_ context.Context, key ProductKey) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.findProduct(key); p != nil {
		p.Tracked = true
		return *p, nil
	}
	p := Product{
		ID:        m.nextProduct,
		Name:      key.Name,
		Platform:  key.Platform,
		URL:       key.URL,
		Tracked:   true,
		CreatedAt: time.Now(),
	}
	m.products = append(m.products, p)
	m.nextProduct++
	return p, nil
}

// latestLocked picks the max timestamp, breaking ties by highest id.
func (m *MemoryStore) latestLocked(productID int) *Observation {
	var best *Observation
	for i := range m.observations {
		o := &m.observations[i]
		if o.ProductID != productID {
			continue
		}
		if best == nil || o.RecordedAt.After(best.RecordedAt) ||
			(o.RecordedAt.Equal(best.RecordedAt) && o.ID > best.ID) {
			best = o
		}
	}
	return best
}

func (m *MemoryStore) LatestObservation(_ context.Context, productID int) (*Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if best := m.latestLocked(productID); best != nil {
		o := *best
		return &o, nil
	}
	return nil, nil
}

func (m *MemoryStore) History(_ context.Context, productID int, maxAge time.Duration) ([]Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var out []Observation
	for _, o := range m.observations {
		if o.ProductID == productID && !o.RecordedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) withPrice(p Product) Product {
	if o := m.latestLocked(p.ID); o != nil {
		price := o.Price
		p.CurrentPrice = &price
	}
	return p
}

func (m *MemoryStore) TrackedProducts(_ context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := make(map[int]bool)
	for _, a := range m.alerts {
		if a.State == AlertActive {
			active[a.ProductID] = true
		}
	}

	var out []Product
	for _, p := range m.products {
		if p.Tracked || active[p.ID] {
			out = append(out, m.withPrice(p))
		}
	}
	return out, nil
}

func (m *MemoryStore) ActiveAlerts(_ context.Context) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Alert
	for _, a := range m.alerts {
		if a.State != AlertActive {
			continue
		}
		for _, p := range m.products {
			if p.ID == a.ProductID {
				a.ProductName = p.Name
				a.ProductURL = p.URL
				break
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *MemoryStore) CreateAlert(_ context.Context, productID int, targetPrice float64, email string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := Alert{
		ID:          m.nextAlert,
		ProductID:   productID,
		TargetPrice: targetPrice,
		Email:       email,
		State:       AlertActive,
		CreatedAt:   time.Now(),
	}
	m.alerts = append(m.alerts, a)
	m.nextAlert++
	return a.ID, nil
}

func (m *MemoryStore) MarkTriggered(_ context.Context, alertID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == alertID && m.alerts[i].State == AlertActive {
			m.alerts[i].State = AlertTriggered
		}
	}
	return nil
}

func (m *MemoryStore) DeleteObservationsOlderThan(_ context.Context, age time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-age)
	keepLatest := make(map[int]int) // product id -> observation id to keep
	for _, p := range m.products {
		if o := m.latestLocked(p.ID); o != nil {
			keepLatest[p.ID] = o.ID
		}
	}

	var kept []Observation
	var deleted int64
	for _, o := range m.observations {
		if o.RecordedAt.Before(cutoff) && keepLatest[o.ProductID] != o.ID {
			deleted++
			continue
		}
		kept = append(kept, o)
	}
	m.observations = kept
	return deleted, nil
}

func (m *MemoryStore) AlertDestinations(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, a := range m.alerts {
		if !seen[a.Email] {
			seen[a.Email] = true
			out = append(out, a.Email)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) ProductsForDestination(_ context.Context, email string) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make(map[int]bool)
	for _, a := range m.alerts {
		if a.Email == email {
			ids[a.ProductID] = true
		}
	}

	var out []Product
	for _, p := range m.products {
		if ids[p.ID] {
			out = append(out, m.withPrice(p))
		}
	}
	return out, nil
}

func (m *MemoryStore) ListProducts(_ context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, m.withPrice(p))
	}
	return out, nil
}

func (m *MemoryStore) ProductByID(_ context.Context, id int) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.products {
		if p.ID == id {
			found := m.withPrice(p)
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) LatestByName(_ context.Context, name string) ([]PlatformPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PlatformPrice
	for _, p := range m.products {
		if !strings.EqualFold(p.Name, name) {
			continue
		}
		if o := m.latestLocked(p.ID); o != nil {
			out = append(out, PlatformPrice{
				ProductID:  p.ID,
				Platform:   p.Platform,
				Price:      o.Price,
				URL:        p.URL,
				RecordedAt: o.RecordedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (m *MemoryStore) Trending(_ context.Context, window time.Duration, limit int) ([]TrendingProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-window)
	counts := make(map[int]int)
	for _, o := range m.observations {
		if !o.RecordedAt.Before(cutoff) {
			counts[o.ProductID]++
		}
	}

	var out []TrendingProduct
	for _, p := range m.products {
		if counts[p.ID] > 0 {
			out = append(out, TrendingProduct{Product: m.withPrice(p), Observations: counts[p.ID]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Observations != out[j].Observations {
			return out[i].Observations > out[j].Observations
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) PlatformStats(_ context.Context) ([]PlatformStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byPlatform := make(map[string]*PlatformStat)
	sums := make(map[string]float64)
	for _, p := range m.products {
		s := byPlatform[p.Platform]
		if s == nil {
			s = &PlatformStat{Platform: p.Platform}
			byPlatform[p.Platform] = s
		}
		s.Products++
	}
	for _, o := range m.observations {
		for _, p := range m.products {
			if p.ID == o.ProductID {
				byPlatform[p.Platform].Observations++
				sums[p.Platform] += o.Price
				break
			}
		}
	}

	var out []PlatformStat
	for _, s := range byPlatform {
		if s.Observations > 0 {
			s.AveragePrice = sums[s.Platform] / float64(s.Observations)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

package tracker

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements Store on Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

func (r *Repository) SaveObservation(ctx context.Context, key ProductKey, price float64, currency string, at time.Time) (int, error) {
	var productID int
	err := r.db.QueryRow(ctx, `
INSERT INTO products (name, platform, url)
VALUES ($1, $2, $3)
ON CONFLICT (name, platform) DO UPDATE SET url = EXCLUDED.url
RETURNING id`,
		key.Name, key.Platform, key.URL).Scan(&productID)
	if err != nil {
		return 0, err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO price_history (product_id, price, currency, recorded_at) VALUES ($1, $2, $3, $4)`,
		productID, price, currency, at)
	if err != nil {
		return 0, err
	}
	return productID, nil
}

func (r *Repository) RegisterProduct(ctx context.Context, key ProductKey) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `
INSERT INTO products (name, platform, url, tracked)
VALUES ($1, $2, $3, true)
ON CONFLICT (name, platform) DO UPDATE SET tracked = true
RETURNING id, name, platform, url, tracked, created_at`,
		key.Name, key.Platform, key.URL).Scan(&p.ID, &p.Name, &p.Platform, &p.URL, &p.Tracked, &p.CreatedAt)
	return p, err
}

func (r *Repository) LatestObservation(ctx context.Context, productID int) (*Observation, error) {
	var o Observation
	err := r.db.QueryRow(ctx, `
SELECT id, product_id, (price::double precision), currency, recorded_at
FROM price_history
WHERE product_id = $1
ORDER BY recorded_at DESC, id DESC
LIMIT 1`, productID).Scan(&o.ID, &o.ProductID, &o.Price, &o.Currency, &o.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *Repository) History(ctx context.Context, productID int, maxAge time.Duration) ([]Observation, error) {
	cutoff := time.Now().Add(-maxAge)
	rows, err := r.db.Query(ctx, `
SELECT id, product_id, (price::double precision), currency, recorded_at
FROM price_history
WHERE product_id = $1 AND recorded_at >= $2
ORDER BY recorded_at DESC, id DESC`, productID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Price, &o.Currency, &o.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const productColumns = `
SELECT p.id, p.name, p.platform, p.url, p.tracked, p.created_at,
       (ph.price::double precision) AS price
FROM products p
LEFT JOIN LATERAL (
    SELECT price FROM price_history ph2
    WHERE ph2.product_id = p.id
    ORDER BY ph2.recorded_at DESC, ph2.id DESC
    LIMIT 1
) ph ON true`

func (r *Repository) TrackedProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, productColumns+`
WHERE p.tracked
   OR EXISTS (SELECT 1 FROM alerts a WHERE a.product_id = p.id AND a.state = 'active')
ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, productColumns+` ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repository) ProductByID(ctx context.Context, id int) (*Product, error) {
	row := r.db.QueryRow(ctx, productColumns+` WHERE p.id = $1 LIMIT 1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ProductsForDestination(ctx context.Context, email string) ([]Product, error) {
	rows, err := r.db.Query(ctx, productColumns+`
WHERE EXISTS (SELECT 1 FROM alerts a WHERE a.product_id = p.id AND a.email = $1)
ORDER BY p.id`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repository) ActiveAlerts(ctx context.Context) ([]Alert, error) {
	rows, err := r.db.Query(ctx, `
SELECT a.id, a.product_id, (a.target_price::double precision), a.email, a.state, a.created_at,
       p.name, p.url
FROM alerts a
JOIN products p ON p.id = a.product_id
WHERE a.state = 'active'
ORDER BY a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.ProductID, &a.TargetPrice, &a.Email, &a.State, &a.CreatedAt,
			&a.ProductName, &a.ProductURL); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) CreateAlert(ctx context.Context, productID int, targetPrice float64, email string) (int, error) {
	var id int
	err := r.db.QueryRow(ctx,
		`INSERT INTO alerts (product_id, target_price, email) VALUES ($1, $2, $3) RETURNING id`,
		productID, targetPrice, email).Scan(&id)
	return id, err
}

func (r *Repository) MarkTriggered(ctx context.Context, alertID int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE alerts SET state = 'triggered' WHERE id = $1 AND state = 'active'`, alertID)
	return err
}

func (r *Repository) DeleteObservationsOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	tag, err := r.db.Exec(ctx, `
DELETE FROM price_history ph
WHERE ph.recorded_at < $1
  AND ph.id <> (
      SELECT ph2.id FROM price_history ph2
      WHERE ph2.product_id = ph.product_id
      ORDER BY ph2.recorded_at DESC, ph2.id DESC
      LIMIT 1
  )`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) AlertDestinations(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT email FROM alerts ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (r *Repository) LatestByName(ctx context.Context, name string) ([]PlatformPrice, error) {
	rows, err := r.db.Query(ctx, `
SELECT p.id, p.platform, (ph.price::double precision), p.url, ph.recorded_at
FROM products p
JOIN LATERAL (
    SELECT price, recorded_at FROM price_history ph2
    WHERE ph2.product_id = p.id
    ORDER BY ph2.recorded_at DESC, ph2.id DESC
    LIMIT 1
) ph ON true
WHERE p.name ILIKE $1
ORDER BY ph.price`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlatformPrice
	for rows.Next() {
		var e PlatformPrice
		if err := rows.Scan(&e.ProductID, &e.Platform, &e.Price, &e.URL, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Trending(ctx context.Context, window time.Duration, limit int) ([]TrendingProduct, error) {
	cutoff := time.Now().Add(-window)
	rows, err := r.db.Query(ctx, `
SELECT p.id, p.name, p.platform, p.url, p.tracked, p.created_at,
       (latest.price::double precision),
       count(ph.id) AS observations
FROM products p
JOIN price_history ph ON ph.product_id = p.id AND ph.recorded_at >= $1
LEFT JOIN LATERAL (
    SELECT price FROM price_history ph2
    WHERE ph2.product_id = p.id
    ORDER BY ph2.recorded_at DESC, ph2.id DESC
    LIMIT 1
) latest ON true
GROUP BY p.id, p.name, p.platform, p.url, p.tracked, p.created_at, latest.price
ORDER BY observations DESC, p.id
LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendingProduct
	for rows.Next() {
		var t TrendingProduct
		var priceNull sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.Name, &t.Platform, &t.URL, &t.Tracked, &t.CreatedAt,
			&priceNull, &t.Observations); err != nil {
			return nil, err
		}
		if priceNull.Valid {
			v := priceNull.Float64
			t.CurrentPrice = &v
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) PlatformStats(ctx context.Context) ([]PlatformStat, error) {
	rows, err := r.db.Query(ctx, `
SELECT p.platform,
       count(DISTINCT p.id),
       count(ph.id),
       coalesce(avg(ph.price::double precision), 0)
FROM products p
LEFT JOIN price_history ph ON ph.product_id = p.id
GROUP BY p.platform
ORDER BY p.platform`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlatformStat
	for rows.Next() {
		var s PlatformStat
		if err := rows.Scan(&s.Platform, &s.Products, &s.Observations, &s.AveragePrice); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	var priceNull sql.NullFloat64
	if err := row.Scan(&p.ID, &p.Name, &p.Platform, &p.URL, &p.Tracked, &p.CreatedAt, &priceNull); err != nil {
		return Product{}, err
	}
	if priceNull.Valid {
		v := priceNull.Float64
		p.CurrentPrice = &v
	}
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

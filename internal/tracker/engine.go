package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mbelyaev/pricepulse/internal/notify"
	"github.com/mbelyaev/pricepulse/internal/scraper"
)

// Config tunes the engine's periodic jobs. Zero values fall back to
// defaults, except ScrapeDelay where zero disables pacing.
type Config struct {
	// ScrapeTimeout bounds a single adapter call.
	ScrapeTimeout time.Duration
	// ScrapeDelay paces consecutive adapter calls so storefronts don't see
	// a request burst. Politeness, not correctness.
	ScrapeDelay time.Duration
	// SummaryWindow is the trailing window of the weekly digest.
	SummaryWindow time.Duration
	// Retention is the age past which observations are cleaned up.
	Retention time.Duration
}

func DefaultConfig() Config {
	return Config{
		ScrapeTimeout: 10 * time.Second,
		ScrapeDelay:   2 * time.Second,
		SummaryWindow: 7 * 24 * time.Hour,
		Retention:     90 * 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ScrapeTimeout <= 0 {
		c.ScrapeTimeout = d.ScrapeTimeout
	}
	if c.ScrapeDelay < 0 {
		c.ScrapeDelay = d.ScrapeDelay
	}
	if c.SummaryWindow <= 0 {
		c.SummaryWindow = d.SummaryWindow
	}
	if c.Retention <= 0 {
		c.Retention = d.Retention
	}
	return c
}

// Engine orchestrates the periodic price-tracking pipeline: re-scrape
// tracked products, persist observations, evaluate alerts, send digests,
// clean up old history. It owns its collaborators explicitly; there is no
// process-wide state.
type Engine struct {
	store    Store
	adapters scraper.Registry
	sender   notify.Sender
	log      *zap.Logger
	cfg      Config
}

func NewEngine(store Store, adapters scraper.Registry, sender notify.Sender, log *zap.Logger, cfg Config) *Engine {
	return &Engine{
		store:    store,
		adapters: adapters,
		sender:   sender,
		log:      log.Named("engine"),
		cfg:      cfg.withDefaults(),
	}
}

// UpdateTrackedPrices re-scrapes every tracked (name, platform) pair and
// appends the resulting observations. The tracked set is a snapshot taken
// at the start of the run. A single pair's failure is logged and skipped,
// never aborting the rest; only a store failure listing the snapshot aborts
// the run.
func (e *Engine) UpdateTrackedPrices(ctx context.Context) error {
	products, err := e.store.TrackedProducts(ctx)
	if err != nil {
		return fmt.Errorf("list tracked products: %w", err)
	}

	for i, p := range products {
		if i > 0 {
			if err := e.pace(ctx); err != nil {
				return err
			}
		}

		adapter, ok := e.adapters.Lookup(p.Platform)
		if !ok {
			e.log.Warn("no adapter for platform", zap.String("platform", p.Platform))
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.ScrapeTimeout)
		res, err := adapter.Fetch(fetchCtx, p.Name)
		cancel()
		if err != nil {
			// Routine: timeouts, blocks, and layout changes all land here.
			e.log.Warn("scrape failed",
				zap.String("product", p.Name),
				zap.String("platform", p.Platform),
				zap.Error(err))
			continue
		}

		// The observation belongs to the tracked pair, not to whatever
		// title the storefront returned for the query.
		key := ProductKey{Name: p.Name, Platform: p.Platform, URL: res.URL}
		if _, err := e.store.SaveObservation(ctx, key, res.Price, res.Currency, res.FetchedAt); err != nil {
			e.log.Error("save observation failed",
				zap.String("product", p.Name),
				zap.String("platform", p.Platform),
				zap.Error(err))
			continue
		}

		e.log.Info("price updated",
			zap.String("product", p.Name),
			zap.String("platform", p.Platform),
			zap.Float64("price", res.Price))
	}
	return nil
}

func (e *Engine) pace(ctx context.Context) error {
	if e.cfg.ScrapeDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.cfg.ScrapeDelay):
		return nil
	}
}

// CheckAlerts evaluates every active alert against its product's latest
// observation. A crossing dispatches exactly one notification and then
// flips the alert to triggered whether or not delivery succeeded
// (at-least-once on dispatch). Triggered alerts never come back from
// ActiveAlerts, so they are never re-evaluated.
func (e *Engine) CheckAlerts(ctx context.Context) error {
	alerts, err := e.store.ActiveAlerts(ctx)
	if err != nil {
		return fmt.Errorf("list active alerts: %w", err)
	}

	for _, a := range alerts {
		obs, err := e.store.LatestObservation(ctx, a.ProductID)
		if err != nil {
			e.log.Error("latest observation failed", zap.Int("alert_id", a.ID), zap.Error(err))
			continue
		}
		if obs == nil {
			// No data yet; the alert stays active until a scrape lands.
			continue
		}
		if obs.Price > a.TargetPrice {
			continue
		}

		subject, body, err := notify.RenderPriceAlert(notify.PriceAlert{
			ProductName:  a.ProductName,
			CurrentPrice: obs.Price,
			TargetPrice:  a.TargetPrice,
			ProductURL:   a.ProductURL,
		})
		if err != nil {
			e.log.Error("render alert failed", zap.Int("alert_id", a.ID), zap.Error(err))
		} else if err := e.sender.Send(ctx, a.Email, subject, body); err != nil {
			// Logged and lost: the transition below still happens.
			e.log.Warn("notification delivery failed",
				zap.Int("alert_id", a.ID),
				zap.String("email", a.Email),
				zap.Error(err))
		}

		if err := e.store.MarkTriggered(ctx, a.ID); err != nil {
			e.log.Error("mark triggered failed", zap.Int("alert_id", a.ID), zap.Error(err))
			continue
		}

		e.log.Info("alert triggered",
			zap.Int("alert_id", a.ID),
			zap.String("product", a.ProductName),
			zap.Float64("price", obs.Price),
			zap.Float64("target", a.TargetPrice))
	}
	return nil
}

// SendWeeklySummaries mails each destination a digest of its tracked
// products: latest price plus the low over the trailing window. Purely
// informational, no state transition, safe to replay. One user's failure
// never blocks another's.
func (e *Engine) SendWeeklySummaries(ctx context.Context) error {
	emails, err := e.store.AlertDestinations(ctx)
	if err != nil {
		return fmt.Errorf("list alert destinations: %w", err)
	}

	for _, email := range emails {
		products, err := e.store.ProductsForDestination(ctx, email)
		if err != nil {
			e.log.Error("list products for destination failed", zap.String("email", email), zap.Error(err))
			continue
		}

		var items []notify.DigestItem
		for _, p := range products {
			history, err := e.store.History(ctx, p.ID, e.cfg.SummaryWindow)
			if err != nil || len(history) == 0 {
				continue
			}
			low := history[0].Price
			for _, o := range history {
				if o.Price < low {
					low = o.Price
				}
			}
			items = append(items, notify.DigestItem{
				Name:         p.Name,
				CurrentPrice: history[0].Price,
				LowestPrice:  low,
				URL:          p.URL,
			})
		}
		if len(items) == 0 {
			continue
		}

		subject, body, err := notify.RenderWeeklySummary(items)
		if err != nil {
			e.log.Error("render summary failed", zap.String("email", email), zap.Error(err))
			continue
		}
		if err := e.sender.Send(ctx, email, subject, body); err != nil {
			e.log.Warn("summary delivery failed", zap.String("email", email), zap.Error(err))
			continue
		}
		e.log.Info("weekly summary sent", zap.String("email", email), zap.Int("products", len(items)))
	}
	return nil
}

// CleanupOldObservations trims history past the retention cutoff and
// reports how many rows went away.
func (e *Engine) CleanupOldObservations(ctx context.Context) (int64, error) {
	deleted, err := e.store.DeleteObservationsOlderThan(ctx, e.cfg.Retention)
	if err != nil {
		return 0, fmt.Errorf("delete old observations: %w", err)
	}
	e.log.Info("cleanup finished", zap.Int64("deleted", deleted))
	return deleted, nil
}

package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Result is one normalized price reading extracted from a storefront
// search page.
type Result struct {
	Platform  string    `json:"platform"`
	Name      string    `json:"product_name"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"timestamp"`
}

// ErrNoMatch is returned when the search page was fetched but no product
// could be extracted from it. Callers treat it the same as any other fetch
// failure: skip and move on.
var ErrNoMatch = errors.New("scraper: no matching product on page")

// Adapter fetches the first search result for a query on one platform.
type Adapter interface {
	Platform() string
	Fetch(ctx context.Context, query string) (*Result, error)
}

// Registry maps a platform identifier to its adapter. Adding a platform
// means adding an Adapter implementation and registering it here.
type Registry map[string]Adapter

func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		r[a.Platform()] = a
	}
	return r
}

func (r Registry) Lookup(platform string) (Adapter, bool) {
	a, ok := r[platform]
	return a, ok
}

// Platforms returns the registered platform names in stable order.
func (r Registry) Platforms() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const defaultCurrency = "INR"

const maxRetries = 3

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Connection":      "keep-alive",
}

// fetchDocument GETs the URL with browser-like headers and parses the body.
// Transport errors are retried with a short backoff; HTTP error statuses and
// parse failures are not.
func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var resp *http.Response
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range browserHeaders {
			req.Header.Set(k, v)
		}

		resp, err = client.Do(req)
		if err == nil {
			break
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// firstOf returns the first non-empty match among the selectors, or nil.
func firstOf(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, s := range selectors {
		if sel := doc.Find(s).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// textOf returns the trimmed text of the first selector that matches
// anything inside sel.
func textOf(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if found := sel.Find(s).First(); found.Length() > 0 {
			return strings.TrimSpace(found.Text())
		}
	}
	return ""
}

func truncateName(name string) string {
	const max = 200
	if len(name) > max {
		return name[:max]
	}
	return name
}

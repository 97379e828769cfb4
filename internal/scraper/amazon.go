package scraper

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Amazon scrapes the first result of an amazon.in search page.
type Amazon struct {
	// BaseURL overrides the storefront origin, used by tests.
	BaseURL string
	Client  *http.Client
}

func NewAmazon(client *http.Client) *Amazon {
	return &Amazon{Client: client}
}

func (a *Amazon) Platform() string { return "Amazon" }

func (a *Amazon) base() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return "https://www.amazon.in"
}

func (a *Amazon) Fetch(ctx context.Context, query string) (*Result, error) {
	searchURL := a.base() + "/s?k=" + url.QueryEscape(query)

	doc, err := fetchDocument(ctx, a.Client, searchURL)
	if err != nil {
		return nil, err
	}

	card := doc.Find(`div[data-component-type="s-search-result"]`).First()
	if card.Length() == 0 {
		return nil, ErrNoMatch
	}

	title := strings.TrimSpace(card.Find("h2.a-size-mini").First().Text())
	if title == "" {
		title = strings.TrimSpace(card.Find("span.a-text-normal").First().Text())
	}

	price, err := ParsePrice(card.Find("span.a-price-whole").First().Text())
	if err != nil || title == "" {
		return nil, ErrNoMatch
	}

	productURL := searchURL
	if href, ok := card.Find("a.a-link-normal").First().Attr("href"); ok && href != "" {
		productURL = a.base() + href
	}

	return &Result{
		Platform:  a.Platform(),
		Name:      truncateName(title),
		Price:     price,
		Currency:  defaultCurrency,
		URL:       productURL,
		FetchedAt: time.Now(),
	}, nil
}

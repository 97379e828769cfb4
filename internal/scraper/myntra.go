package scraper

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Myntra scrapes a myntra.com category listing. The site renders most
// content client-side, so this only works for listings with server-rendered
// product cards.
type Myntra struct {
	BaseURL string
	Client  *http.Client
}

func NewMyntra(client *http.Client) *Myntra {
	return &Myntra{Client: client}
}

func (m *Myntra) Platform() string { return "Myntra" }

func (m *Myntra) base() string {
	if m.BaseURL != "" {
		return m.BaseURL
	}
	return "https://www.myntra.com"
}

func (m *Myntra) Fetch(ctx context.Context, query string) (*Result, error) {
	searchURL := m.base() + "/" + strings.ReplaceAll(query, " ", "-")

	doc, err := fetchDocument(ctx, m.Client, searchURL)
	if err != nil {
		return nil, err
	}

	card := doc.Find("li.product-base").First()
	if card.Length() == 0 {
		return nil, ErrNoMatch
	}

	title := strings.TrimSpace(card.Find("h4.product-product").First().Text())
	price, err := ParsePrice(card.Find("span.product-discountedPrice").First().Text())
	if err != nil || title == "" {
		return nil, ErrNoMatch
	}

	productURL := searchURL
	if href, ok := card.Find("a").First().Attr("href"); ok && href != "" {
		productURL = m.base() + "/" + strings.TrimPrefix(href, "/")
	}

	return &Result{
		Platform:  m.Platform(),
		Name:      truncateName(title),
		Price:     price,
		Currency:  defaultCurrency,
		URL:       productURL,
		FetchedAt: time.Now(),
	}, nil
}

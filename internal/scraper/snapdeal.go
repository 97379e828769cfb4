package scraper

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Snapdeal scrapes the first result of a snapdeal.com search page.
type Snapdeal struct {
	BaseURL string
	Client  *http.Client
}

func NewSnapdeal(client *http.Client) *Snapdeal {
	return &Snapdeal{Client: client}
}

func (s *Snapdeal) Platform() string { return "Snapdeal" }

func (s *Snapdeal) base() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return "https://www.snapdeal.com"
}

func (s *Snapdeal) Fetch(ctx context.Context, query string) (*Result, error) {
	searchURL := s.base() + "/search?keyword=" + url.QueryEscape(query)

	doc, err := fetchDocument(ctx, s.Client, searchURL)
	if err != nil {
		return nil, err
	}

	card := doc.Find("div.product-tuple-listing").First()
	if card.Length() == 0 {
		return nil, ErrNoMatch
	}

	title := strings.TrimSpace(card.Find("p.product-title").First().Text())
	price, err := ParsePrice(card.Find("span.product-price").First().Text())
	if err != nil || title == "" {
		return nil, ErrNoMatch
	}

	// Snapdeal links are absolute, unlike the other storefronts.
	productURL := searchURL
	if href, ok := card.Find("a.dp-widget-link").First().Attr("href"); ok && href != "" {
		productURL = href
	}

	return &Result{
		Platform:  s.Platform(),
		Name:      truncateName(title),
		Price:     price,
		Currency:  defaultCurrency,
		URL:       productURL,
		FetchedAt: time.Now(),
	}, nil
}

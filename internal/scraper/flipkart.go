package scraper

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Flipkart scrapes the first result of a flipkart.com search page. The site
// rotates its obfuscated class names now and then, so several selectors are
// tried per field.
type Flipkart struct {
	BaseURL string
	Client  *http.Client
}

func NewFlipkart(client *http.Client) *Flipkart {
	return &Flipkart{Client: client}
}

func (f *Flipkart) Platform() string { return "Flipkart" }

func (f *Flipkart) base() string {
	if f.BaseURL != "" {
		return f.BaseURL
	}
	return "https://www.flipkart.com"
}

func (f *Flipkart) Fetch(ctx context.Context, query string) (*Result, error) {
	searchURL := f.base() + "/search?q=" + url.QueryEscape(query)

	doc, err := fetchDocument(ctx, f.Client, searchURL)
	if err != nil {
		return nil, err
	}

	card := firstOf(doc, "div._1AtVbE", "div._2kHMtA", "div._13oc-S")
	if card == nil {
		return nil, ErrNoMatch
	}

	title := strings.TrimSpace(textOf(card, "div._4rR01T", "a.s1Q9rs"))
	priceText := textOf(card, "div._30jeq3", "div._25b18c")

	price, err := ParsePrice(priceText)
	if err != nil || title == "" {
		return nil, ErrNoMatch
	}

	productURL := searchURL
	if href, ok := card.Find("a._1fQZEK").First().Attr("href"); ok && href != "" {
		productURL = f.base() + href
	} else if href, ok := card.Find("a").First().Attr("href"); ok && href != "" {
		productURL = f.base() + href
	}

	return &Result{
		Platform:  f.Platform(),
		Name:      truncateName(title),
		Price:     price,
		Currency:  defaultCurrency,
		URL:       productURL,
		FetchedAt: time.Now(),
	}, nil
}

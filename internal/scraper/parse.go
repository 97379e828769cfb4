package scraper

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePrice normalizes storefront price text ("₹1,23,456", "Rs. 999.00")
// into a number.
func ParsePrice(text string) (float64, error) {
	s := strings.TrimSpace(text)
	for _, junk := range []string{"₹", "Rs.", "Rs", ",", " "} {
		s = strings.ReplaceAll(s, junk, "")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty price text")
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %q", text)
	}
	return price, nil
}

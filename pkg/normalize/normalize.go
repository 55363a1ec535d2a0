// Package normalize turns raw scraped values into canonical product records.
package normalize

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"agrisync/pkg/models"
)

const (
	// MaxRating caps derived ratings.
	MaxRating = 5.0

	defaultName     = "Unknown Product"
	defaultCategory = "General"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	pricePattern      = regexp.MustCompile(`[₹$€£]?\s*[\d,]+\.?\d*`)
	currencyPattern   = regexp.MustCompile(`[₹$€£,\s]`)
)

// CleanText collapses runs of whitespace (including newlines) to single
// spaces and trims the result. Empty input yields "".
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ExtractPrice returns the first price-looking substring of text, currency
// symbol included, or the literal "0" when none is found. The symbol is kept
// so callers can still display the original text; CleanPrice produces the
// stored number.
func ExtractPrice(text string) string {
	if text == "" {
		return "0"
	}
	if match := pricePattern.FindString(text); match != "" {
		return match
	}
	return "0"
}

// CleanPrice strips currency symbols, thousands separators and whitespace
// from a price string and parses the remainder. Anything unparseable is 0.0.
func CleanPrice(text string) float64 {
	if text == "" {
		return 0
	}
	cleaned := currencyPattern.ReplaceAllString(text, "")
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || val < 0 {
		return 0
	}
	return val
}

// ResolveURL makes ref absolute against base. Already-absolute refs pass
// through untouched; unresolvable input yields "".
func ResolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}

// ClampRating caps a rating at MaxRating. Negative ratings collapse to 0.
func ClampRating(r float64) float64 {
	if r > MaxRating {
		return MaxRating
	}
	if r < 0 {
		return 0
	}
	return r
}

// FromRaw builds a canonical product record from a scraped candidate.
// Missing names and categories get placeholders, prices are canonicalized,
// relative URLs are resolved against baseURL, ratings are clamped and
// negative review counts dropped. It never fails: malformed fields degrade
// to their defaults.
func FromRaw(raw models.RawProduct, baseURL string) models.Product {
	p := models.Product{
		Name:         CleanText(raw.Name),
		Description:  CleanText(raw.Description),
		Price:        CleanPrice(raw.Price.String()),
		Category:     CleanText(raw.Category),
		Brand:        CleanText(raw.Brand),
		ImageURL:     ResolveURL(baseURL, raw.ImageURL),
		Availability: CleanText(raw.Availability),
		SourceURL:    ResolveURL(baseURL, raw.SourceURL),
		SourceSite:   raw.SourceSite,
	}

	if p.Name == "" {
		p.Name = defaultName
	}
	if p.Category == "" {
		p.Category = defaultCategory
	}

	if raw.OriginalPrice != nil && *raw.OriginalPrice != "" {
		if op := CleanPrice(raw.OriginalPrice.String()); op > 0 {
			p.OriginalPrice = &op
		}
	}
	if raw.Rating != nil {
		r := ClampRating(*raw.Rating)
		p.Rating = &r
	}
	if raw.ReviewsCount != nil && *raw.ReviewsCount >= 0 {
		rc := *raw.ReviewsCount
		p.ReviewsCount = &rc
	}

	return p
}

// Records converts a batch of candidates, preserving order.
func Records(raws []models.RawProduct, baseURL string) []models.Product {
	products := make([]models.Product, 0, len(raws))
	for _, raw := range raws {
		products = append(products, FromRaw(raw, baseURL))
	}
	return products
}

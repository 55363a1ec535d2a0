// Package dedup collapses near-identical product records scraped from one or
// more sites into a single entry per distinct product.
package dedup

import (
	"strings"
	"unicode"

	"agrisync/pkg/models"
)

// Key normalizes a product name for duplicate comparison: lower-cased,
// stripped of everything that is not a letter, digit or whitespace, with
// whitespace runs collapsed to single spaces.
func Key(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Filter keeps the first record seen for each distinct name key and drops
// later ones, preserving input order. The key deliberately ignores price,
// brand and source site: two listings sharing a normalized name are treated
// as the same product and the earliest-scraped one wins.
func Filter(products []models.Product) []models.Product {
	if len(products) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(products))
	unique := make([]models.Product, 0, len(products))
	for _, p := range products {
		key := Key(p.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

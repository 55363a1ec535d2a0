// Package scrapers wires source-specific scrapers behind one capability:
// producing product candidates from a configured site.
package scrapers

import (
	"context"
	"fmt"

	"agrisync/pkg/config"
	"agrisync/pkg/models"
	"agrisync/pkg/scrapers/agrostar"
	"agrisync/pkg/scrapers/bighaat"
	"agrisync/pkg/scrapers/krishijagran"
	"agrisync/pkg/scrapers/sample"
)

// Source produces product candidates from one site. Implementations acquire
// and release their own resources (collectors, browser contexts) inside
// Scrape; nothing is held between calls.
type Source interface {
	Name() string
	BaseURL() string
	Scrape(ctx context.Context) ([]models.RawProduct, error)
}

// NewSample returns the generated-data source, used directly for fallback.
func NewSample(count int) Source {
	return sample.NewSource(count)
}

// New builds the source for a config entry.
func New(cfg config.SourceConfig, sampleCount int) (Source, error) {
	switch cfg.Type {
	case config.TypeBigHaat:
		return bighaat.NewScraper(cfg), nil
	case config.TypeAgroStar:
		return agrostar.NewScraper(cfg), nil
	case config.TypeKrishiJagran:
		return krishijagran.NewScraper(cfg), nil
	case config.TypeSample:
		return sample.NewSource(sampleCount), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

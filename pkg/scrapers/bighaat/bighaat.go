package bighaat

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocolly/colly/v2"
	log "github.com/sirupsen/logrus"

	"agrisync/pkg/config"
	"agrisync/pkg/models"
	"agrisync/pkg/normalize"
)

const Site = "BigHaat"

type Scraper struct {
	Collector *colly.Collector
	cfg       config.SourceConfig
}

func NewScraper(cfg config.SourceConfig) *Scraper {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
	)
	return &Scraper{
		Collector: c,
		cfg:       cfg,
	}
}

func (s *Scraper) Name() string    { return Site }
func (s *Scraper) BaseURL() string { return s.cfg.BaseURL }

// Scrape walks the configured category listing pages and collects one
// candidate per product card. Pagination stops for a category as soon as a
// page yields no cards.
func (s *Scraper) Scrape(ctx context.Context) ([]models.RawProduct, error) {
	var products []models.RawProduct
	var pageCount int

	s.Collector.OnHTML(".product-item, .product-card, .grid__item", func(e *colly.HTMLElement) {
		name := normalize.CleanText(firstChildText(e, "h3", "h4", ".product-title", ".card__heading", "a"))
		if name == "" {
			return
		}

		category := e.Request.Ctx.Get("category")
		raw := models.RawProduct{
			Name:         name,
			Price:        models.PriceText(normalize.ExtractPrice(firstChildText(e, ".price", ".money", ".product-price"))),
			ImageURL:     firstChildAttr(e, "img", "data-src", "src"),
			Category:     category,
			Availability: "In Stock",
			SourceURL:    e.Request.AbsoluteURL(e.ChildAttr("a", "href")),
			SourceSite:   Site,
		}
		if strike := firstChildText(e, ".price--compare", "s", ".was-price"); strike != "" {
			op := models.PriceText(normalize.ExtractPrice(strike))
			raw.OriginalPrice = &op
		}

		pageCount++
		products = append(products, raw)
	})

	s.Collector.OnError(func(r *colly.Response, err error) {
		log.WithFields(log.Fields{
			"url":         r.Request.URL.String(),
			"status_code": r.StatusCode,
		}).WithError(err).Warn("BigHaat request failed")
	})

	for _, categoryPath := range s.cfg.Categories {
		category := categoryLabel(categoryPath)
		for page := 1; page <= s.cfg.MaxPages; page++ {
			if err := ctx.Err(); err != nil {
				return products, err
			}

			url := fmt.Sprintf("%s%s?page=%d", s.cfg.BaseURL, categoryPath, page)
			log.WithField("url", url).Debug("Scraping BigHaat page")

			pageCount = 0
			cctx := colly.NewContext()
			cctx.Put("category", category)
			if err := s.Collector.Request("GET", url, nil, cctx, nil); err != nil {
				log.WithError(err).WithField("url", url).Warn("Skipping BigHaat page")
				break
			}
			if pageCount == 0 {
				break
			}
		}
	}

	log.WithField("count", len(products)).Info("BigHaat scraping completed")
	return products, nil
}

// categoryLabel derives a display category from a path like
// "/collections/farm-implements" -> "Farm Implements".
func categoryLabel(path string) string {
	segment := path
	if idx := strings.LastIndex(segment, "/"); idx >= 0 {
		segment = segment[idx+1:]
	}
	words := strings.Fields(strings.ReplaceAll(segment, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func firstChildText(e *colly.HTMLElement, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(e.ChildText(sel)); text != "" {
			return text
		}
	}
	return ""
}

func firstChildAttr(e *colly.HTMLElement, sel string, attrs ...string) string {
	for _, attr := range attrs {
		if val := e.ChildAttr(sel, attr); val != "" {
			return val
		}
	}
	return ""
}

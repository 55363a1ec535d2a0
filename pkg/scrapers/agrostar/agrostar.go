package agrostar

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

const Site = "AgroStar"

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

func (s *Scraper) Scrape(ctx context.Context) ([]models.RawProduct, error) {
	var products []models.RawProduct
	var pageCount int

	s.Collector.OnHTML(".product-card, .product, [data-product-id]", func(e *colly.HTMLElement) {
		name := normalize.CleanText(e.ChildText("h3"))
		if name == "" {
			name = normalize.CleanText(e.ChildText(".product-name"))
		}
		if name == "" {
			return
		}

		price := e.ChildText(".price")
		if price == "" {
			price = e.ChildText(".rupee")
		}

		pageCount++
		products = append(products, models.RawProduct{
			Name:         name,
			Price:        models.PriceText(normalize.ExtractPrice(price)),
			ImageURL:     imageURL(e),
			Category:     e.Request.Ctx.Get("category"),
			Availability: "Available",
			SourceURL:    e.Request.AbsoluteURL(e.ChildAttr("a", "href")),
			SourceSite:   Site,
		})
	})

	s.Collector.OnError(func(r *colly.Response, err error) {
		log.WithFields(log.Fields{
			"url":         r.Request.URL.String(),
			"status_code": r.StatusCode,
		}).WithError(err).Warn("AgroStar request failed")
	})

	for _, categoryPath := range s.cfg.Categories {
		category := label(categoryPath)
		for page := 1; page <= s.cfg.MaxPages; page++ {
			if err := ctx.Err(); err != nil {
				return products, err
			}

			url := fmt.Sprintf("%s%s?page=%d", s.cfg.BaseURL, categoryPath, page)
			log.WithField("url", url).Debug("Scraping AgroStar page")

			pageCount = 0
			cctx := colly.NewContext()
			cctx.Put("category", category)
			if err := s.Collector.Request("GET", url, nil, cctx, nil); err != nil {
				log.WithError(err).WithField("url", url).Warn("Skipping AgroStar page")
				break
			}
			if pageCount == 0 {
				break
			}
		}
	}

	log.WithField("count", len(products)).Info("AgroStar scraping completed")
	return products, nil
}

func imageURL(e *colly.HTMLElement) string {
	if src := e.ChildAttr("img", "data-src"); src != "" {
		return src
	}
	return e.ChildAttr("img", "src")
}

func label(path string) string {
	segment := strings.TrimPrefix(path, "/")
	if idx := strings.LastIndex(segment, "/"); idx >= 0 {
		segment = segment[idx+1:]
	}
	words := strings.Fields(strings.ReplaceAll(segment, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Package krishijagran scrapes the Krishi Jagran shop, which renders its
// product grid client-side and needs a real browser.
package krishijagran

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"

	"agrisync/pkg/config"
	"agrisync/pkg/models"
	"agrisync/pkg/normalize"
)

const Site = "KrishiJagran"

// extractJS pulls the visible product cards into plain objects so a single
// round trip returns the whole grid.
const extractJS = `
(function() {
	const cards = document.querySelectorAll(".product-item, .product-card, [data-product-id]");
	const out = [];
	for (const card of cards) {
		const nameEl = card.querySelector("h3, h4, .product-title, .title, a");
		const priceEl = card.querySelector(".price, .product-price, .amount");
		const imgEl = card.querySelector("img");
		const linkEl = card.querySelector("a");
		out.push({
			name: nameEl ? nameEl.innerText : "",
			price: priceEl ? priceEl.innerText : "",
			image: imgEl ? (imgEl.getAttribute("data-src") || imgEl.getAttribute("src") || "") : "",
			url: linkEl ? (linkEl.getAttribute("href") || "") : "",
		});
	}
	return out;
})()
`

type card struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
	URL   string `json:"url"`
}

type Scraper struct {
	cfg config.SourceConfig
}

func NewScraper(cfg config.SourceConfig) *Scraper {
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() string    { return Site }
func (s *Scraper) BaseURL() string { return s.cfg.BaseURL }

// Scrape drives a headless browser over the configured category pages. The
// browser is allocated per call and torn down on every exit path.
func (s *Scraper) Scrape(ctx context.Context) ([]models.RawProduct, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var products []models.RawProduct
	for _, categoryPath := range s.cfg.Categories {
		cards, err := s.scrapeCategory(browserCtx, categoryPath)
		if err != nil {
			log.WithError(err).WithField("category", categoryPath).Warn("Krishi Jagran category failed")
			continue
		}

		category := label(categoryPath)
		for _, c := range cards {
			name := normalize.CleanText(c.Name)
			if name == "" {
				continue
			}
			products = append(products, models.RawProduct{
				Name:         name,
				Price:        models.PriceText(normalize.ExtractPrice(c.Price)),
				ImageURL:     c.Image,
				Category:     category,
				Availability: "In Stock",
				SourceURL:    c.URL,
				SourceSite:   Site,
			})
		}
	}

	log.WithField("count", len(products)).Info("Krishi Jagran scraping completed")
	return products, nil
}

func (s *Scraper) scrapeCategory(browserCtx context.Context, categoryPath string) ([]card, error) {
	scrapeCtx, cancel := context.WithTimeout(browserCtx, time.Duration(s.cfg.TimeoutSec)*time.Second)
	defer cancel()

	url := s.cfg.BaseURL + categoryPath
	log.WithField("url", url).Debug("Navigating")

	var cards []card
	err := chromedp.Run(scrapeCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),

		// Trigger lazy loading of the rest of the grid.
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(1*time.Second),

		chromedp.Evaluate(extractJS, &cards),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp run for %s: %w", url, err)
	}
	return cards, nil
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

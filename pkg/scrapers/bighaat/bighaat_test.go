package bighaat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrisync/pkg/config"
)

func TestScraper_Scrape(t *testing.T) {
	var pages int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Logf("Received request for: %s", r.URL.String())
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}

		pages++
		if r.URL.Query().Get("page") != "1" {
			// Second page is empty so pagination stops.
			fmt.Fprintln(w, `<html><body></body></html>`)
			return
		}

		fmt.Fprintln(w, `
<!DOCTYPE html>
<html>
<body>
	<div class="product-item">
		<h3>NPK 19:19:19 Fertilizer 50kg</h3>
		<span class="price">₹1,250.50</span>
		<span class="price--compare">₹1,500</span>
		<img data-src="/cdn/npk.png" />
		<a href="/products/npk-19-19-19"></a>
	</div>
	<div class="product-item">
		<h3>Urea 46% Nitrogen 45kg</h3>
		<span class="price">Price: ₹500 only</span>
		<img src="/cdn/urea.png" />
		<a href="/products/urea-46"></a>
	</div>
	<div class="product-item">
		<span class="price">₹99</span>
	</div>
</body>
</html>`)
	}))
	defer ts.Close()

	scraper := NewScraper(config.SourceConfig{
		Name:       "BigHaat",
		Type:       config.TypeBigHaat,
		BaseURL:    ts.URL,
		Categories: []string{"/collections/fertilizers"},
		MaxPages:   3,
	})

	products, err := scraper.Scrape(context.Background())
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	if len(products) != 2 {
		t.Fatalf("got %d products, want 2 (nameless card skipped)", len(products))
	}

	npk := products[0]
	if npk.Name != "NPK 19:19:19 Fertilizer 50kg" {
		t.Errorf("Name = %q", npk.Name)
	}
	if npk.Price != "₹1,250.50" {
		t.Errorf("Price = %q, want display text with currency", npk.Price)
	}
	if npk.OriginalPrice == nil || *npk.OriginalPrice != "₹1,500" {
		t.Errorf("OriginalPrice = %v, want ₹1,500", npk.OriginalPrice)
	}
	if npk.Category != "Fertilizers" {
		t.Errorf("Category = %q, want Fertilizers", npk.Category)
	}
	if npk.ImageURL != "/cdn/npk.png" {
		t.Errorf("ImageURL = %q", npk.ImageURL)
	}
	if npk.SourceURL != ts.URL+"/products/npk-19-19-19" {
		t.Errorf("SourceURL = %q, want absolute", npk.SourceURL)
	}
	if npk.SourceSite != Site {
		t.Errorf("SourceSite = %q", npk.SourceSite)
	}

	urea := products[1]
	if urea.Price != "₹500" {
		t.Errorf("Price = %q, want ₹500 extracted from text", urea.Price)
	}
	if urea.ImageURL != "/cdn/urea.png" {
		t.Errorf("ImageURL = %q, want src fallback", urea.ImageURL)
	}

	// Page 1 had products, page 2 was empty, page 3 never requested.
	if pages != 2 {
		t.Errorf("fetched %d listing pages, want 2", pages)
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/collections/fertilizers", "Fertilizers"},
		{"/collections/farm-implements", "Farm Implements"},
		{"/seeds", "Seeds"},
	}
	for _, tt := range tests {
		if got := categoryLabel(tt.path); got != tt.want {
			t.Errorf("categoryLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

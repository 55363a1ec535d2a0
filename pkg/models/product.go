package models

import (
	"encoding/json"
	"time"
)

// PriceText is display price text as scraped ("₹1,250.50"). Interchange
// files may carry prices as JSON strings or numbers; both decode to text.
type PriceText string

func (p PriceText) String() string { return string(p) }

func (p *PriceText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PriceText(s)
		return nil
	}
	*p = PriceText(data)
	return nil
}

// RawProduct is a product candidate as produced by a scraping source or read
// from an interchange file. Price fields are still display text.
type RawProduct struct {
	Name          string     `json:"name"`
	Price         PriceText  `json:"price"`
	OriginalPrice *PriceText `json:"original_price,omitempty"`
	ImageURL      string     `json:"image_url"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Brand         string     `json:"brand"`
	Availability  string     `json:"availability"`
	Rating        *float64   `json:"rating,omitempty"`
	ReviewsCount  *int       `json:"reviews_count,omitempty"`
	SourceURL     string     `json:"source_url"`
	SourceSite    string     `json:"source_site"`
}

// Product is the canonical record the pipeline works with. Prices are
// currency-free numbers. ID and CreatedAt are zero until the store assigns
// them at ingestion; nothing else mutates a Product after construction.
type Product struct {
	ID            int64     `json:"id,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	ImageURL      string    `json:"image_url"`
	Availability  string    `json:"availability"`
	Rating        *float64  `json:"rating,omitempty"`
	ReviewsCount  *int      `json:"reviews_count,omitempty"`
	SourceURL     string    `json:"source_url"`
	SourceSite    string    `json:"source_site"`
	CreatedAt     time.Time `json:"created_at"`
}

// Category is a lookup entity derived from ingested products.
// Created if absent, never updated or deleted by the pipeline.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Brand is a lookup entity derived from ingested products. An empty brand
// string means "unknown" and never becomes a Brand row.
type Brand struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IntegrationSummary reports what one Integrate call did.
type IntegrationSummary struct {
	ProductsInserted   int `json:"products_inserted"`
	DistinctCategories int `json:"distinct_categories"`
	DistinctBrands     int `json:"distinct_brands"`
}

// StoreStats holds current row counts.
type StoreStats struct {
	Products   int `json:"products"`
	Categories int `json:"categories"`
	Brands     int `json:"brands"`
}

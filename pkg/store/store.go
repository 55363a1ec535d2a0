// Package store persists normalized product records in sqlite and maintains
// the category and brand lookup tables.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"agrisync/pkg/logger"
	"agrisync/pkg/models"
)

// Store wraps the sqlite database holding products, categories and brands.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the three tables if they do not exist yet.
// Safe to call on every startup.
func (s *Store) EnsureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			price REAL NOT NULL,
			original_price REAL,
			category TEXT NOT NULL,
			brand TEXT,
			image_url TEXT,
			availability TEXT DEFAULT 'In Stock',
			rating REAL,
			reviews_count INTEGER,
			source_url TEXT,
			source_site TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			description TEXT,
			image_url TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS brands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			description TEXT,
			logo_url TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// UpsertCategories creates a row for each distinct non-empty category name
// not already present. Existing rows are never touched. Returns the number
// of distinct names presented, not the number actually created.
func (s *Store) UpsertCategories(names []string) (int, error) {
	distinct := distinctNonEmpty(names)
	if len(distinct) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("upsert categories: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, name := range distinct {
		_, err := squirrel.Insert("categories").
			Options("OR IGNORE").
			Columns("name", "description", "created_at").
			Values(name, fmt.Sprintf("Agricultural products in %s category", name), now).
			RunWith(tx).
			Exec()
		if err != nil {
			return 0, fmt.Errorf("upsert category %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("upsert categories: %w", err)
	}
	return len(distinct), nil
}

// UpsertBrands has the same contract as UpsertCategories, after filtering
// out empty brand names.
func (s *Store) UpsertBrands(names []string) (int, error) {
	distinct := distinctNonEmpty(names)
	if len(distinct) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("upsert brands: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, name := range distinct {
		_, err := squirrel.Insert("brands").
			Options("OR IGNORE").
			Columns("name", "description", "created_at").
			Values(name, fmt.Sprintf("Agricultural products by %s", name), now).
			RunWith(tx).
			Exec()
		if err != nil {
			return 0, fmt.Errorf("upsert brand %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("upsert brands: %w", err)
	}
	return len(distinct), nil
}

// InsertProducts stores the given records. Records with an empty name are
// skipped, as are records matching an existing row on (name, price). The
// whole batch runs in one transaction: a storage error aborts it with
// nothing committed. Returns the number of rows actually inserted.
func (s *Store) InsertProducts(products []models.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("insert products: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	inserted := 0
	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}

		var existing int64
		err := squirrel.Select("id").
			From("products").
			Where(squirrel.Eq{"name": name, "price": p.Price}).
			RunWith(tx).
			QueryRow().
			Scan(&existing)
		switch {
		case err == nil:
			logger.Dedup("store: skipped duplicate product")
			continue
		case err != sql.ErrNoRows:
			return 0, fmt.Errorf("check duplicate for %q: %w", name, err)
		}

		_, err = squirrel.Insert("products").
			SetMap(map[string]interface{}{
				"name":           name,
				"description":    p.Description,
				"price":          p.Price,
				"original_price": nullableFloat(p.OriginalPrice),
				"category":       p.Category,
				"brand":          p.Brand,
				"image_url":      p.ImageURL,
				"availability":   p.Availability,
				"rating":         nullableFloat(p.Rating),
				"reviews_count":  nullableInt(p.ReviewsCount),
				"source_url":     p.SourceURL,
				"source_site":    p.SourceSite,
				"created_at":     now,
				"updated_at":     now,
			}).
			RunWith(tx).
			Exec()
		if err != nil {
			return 0, fmt.Errorf("insert product %q: %w", name, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert products: %w", err)
	}
	return inserted, nil
}

// Integrate ingests a batch end to end: categories and brands derived from
// the records are upserted first, then the products are inserted. The three
// steps are separate transactions; a failure between them can leave lookup
// rows without products, which the next successful run repairs.
func (s *Store) Integrate(products []models.Product) (models.IntegrationSummary, error) {
	var summary models.IntegrationSummary

	categories := make([]string, 0, len(products))
	brands := make([]string, 0, len(products))
	for _, p := range products {
		categories = append(categories, p.Category)
		brands = append(brands, p.Brand)
	}

	var err error
	if summary.DistinctCategories, err = s.UpsertCategories(categories); err != nil {
		return summary, err
	}
	if summary.DistinctBrands, err = s.UpsertBrands(brands); err != nil {
		return summary, err
	}
	if summary.ProductsInserted, err = s.InsertProducts(products); err != nil {
		return summary, err
	}
	return summary, nil
}

// Stats returns current row counts.
func (s *Store) Stats() (models.StoreStats, error) {
	var stats models.StoreStats
	counts := []struct {
		table string
		dst   *int
	}{
		{"products", &stats.Products},
		{"categories", &stats.Categories},
		{"brands", &stats.Brands},
	}
	for _, c := range counts {
		err := squirrel.Select("COUNT(*)").
			From(c.table).
			RunWith(s.db).
			QueryRow().
			Scan(c.dst)
		if err != nil {
			return stats, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return stats, nil
}

// Projection reads the full store contents back out: all products newest
// first, plus the sorted distinct category and non-empty brand names.
// Read-only; the export document is assembled from it.
func (s *Store) Projection() ([]models.Product, []string, []string, error) {
	rows, err := squirrel.Select(
		"id", "name", "description", "price", "original_price",
		"category", "brand", "image_url", "availability",
		"rating", "reviews_count", "source_url", "source_site", "created_at",
	).
		From("products").
		OrderBy("created_at DESC", "id DESC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var (
			p             models.Product
			description   sql.NullString
			originalPrice sql.NullFloat64
			brand         sql.NullString
			imageURL      sql.NullString
			availability  sql.NullString
			rating        sql.NullFloat64
			reviewsCount  sql.NullInt64
			sourceURL     sql.NullString
			sourceSite    sql.NullString
		)
		err := rows.Scan(
			&p.ID, &p.Name, &description, &p.Price, &originalPrice,
			&p.Category, &brand, &imageURL, &availability,
			&rating, &reviewsCount, &sourceURL, &sourceSite, &p.CreatedAt,
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("scan product: %w", err)
		}
		p.Description = description.String
		p.Brand = brand.String
		p.ImageURL = imageURL.String
		p.Availability = availability.String
		p.SourceURL = sourceURL.String
		p.SourceSite = sourceSite.String
		if originalPrice.Valid {
			v := originalPrice.Float64
			p.OriginalPrice = &v
		}
		if rating.Valid {
			v := rating.Float64
			p.Rating = &v
		}
		if reviewsCount.Valid {
			v := int(reviewsCount.Int64)
			p.ReviewsCount = &v
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate products: %w", err)
	}

	categories, err := s.names("categories", squirrel.Expr("1=1"))
	if err != nil {
		return nil, nil, nil, err
	}
	brands, err := s.names("brands", squirrel.NotEq{"name": ""})
	if err != nil {
		return nil, nil, nil, err
	}

	return products, categories, brands, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) names(table string, pred interface{}) ([]string, error) {
	rows, err := squirrel.Select("name").
		From(table).
		Where(pred).
		OrderBy("name").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan %s name: %w", table, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func distinctNonEmpty(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	distinct := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		distinct = append(distinct, name)
	}
	return distinct
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

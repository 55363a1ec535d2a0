// Package export writes the flat document view of the store for the frontend
// and reads interchange files produced by earlier runs.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"agrisync/pkg/models"
)

// Document is the sole contract with the frontend-sync consumer.
type Document struct {
	Products      []models.Product `json:"products"`
	Categories    []string         `json:"categories"`
	Brands        []string         `json:"brands"`
	TotalProducts int              `json:"total_products"`
	ExportedAt    string           `json:"exported_at"`
}

// Build assembles a document from a store projection. Products are expected
// newest-first already; category and brand lists are sorted here.
func Build(products []models.Product, categories, brands []string) Document {
	sort.Strings(categories)
	sort.Strings(brands)
	if products == nil {
		products = []models.Product{}
	}
	return Document{
		Products:      products,
		Categories:    categories,
		Brands:        brands,
		TotalProducts: len(products),
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

// WriteFile saves the document as indented JSON under dir, with a timestamped
// file name, and returns the written path.
func WriteFile(doc Document, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("agrisync_export_%s.json", time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"file":  path,
		"count": doc.TotalProducts,
	}).Info("Exported products")
	return path, nil
}

// SyncFrontend copies the document to the well-known frontend data path,
// writing a temp file first so the consumer never reads a half-written file.
func SyncFrontend(doc Document, frontendPath string) error {
	dir := filepath.Dir(frontendPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create frontend directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".agrisync-*.json")
	if err != nil {
		return fmt.Errorf("create temp export file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp export file: %w", err)
	}
	if err := os.Rename(tmpPath, frontendPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace frontend data file: %w", err)
	}

	log.WithField("file", frontendPath).Info("Frontend data updated")
	return nil
}

// Load reads raw product candidates from an interchange file. The file may
// be either a full document ({"products": [...]}) or a bare array. Missing
// keys or malformed content yield an empty slice, not an error, so a caller
// can treat a bad file as "nothing to do".
func Load(path string) []models.RawProduct {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("Could not read interchange file")
		return nil
	}

	var doc struct {
		Products []models.RawProduct `json:"products"`
	}
	if err := json.Unmarshal(data, &doc); err == nil && doc.Products != nil {
		return doc.Products
	}

	var list []models.RawProduct
	if err := json.Unmarshal(data, &list); err == nil {
		return list
	}

	log.WithField("file", path).Warn("Interchange file has no products key, treating as empty")
	return nil
}

// CleanupOld deletes all but the newest keep export files in dir.
func CleanupOld(dir string, keep int) error {
	matches, err := filepath.Glob(filepath.Join(dir, "agrisync_export_*.json"))
	if err != nil {
		return fmt.Errorf("glob export files: %w", err)
	}
	if len(matches) <= keep {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	for _, path := range matches[keep:] {
		if err := os.Remove(path); err != nil {
			log.WithError(err).WithField("file", path).Warn("Could not remove old export")
		}
	}
	return nil
}

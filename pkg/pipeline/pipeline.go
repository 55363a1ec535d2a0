// Package pipeline composes one full sync cycle: scrape, normalize,
// deduplicate, ingest, export, copy to the frontend.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"agrisync/pkg/config"
	"agrisync/pkg/dedup"
	"agrisync/pkg/export"
	"agrisync/pkg/models"
	"agrisync/pkg/normalize"
	"agrisync/pkg/scrapers"
	"agrisync/pkg/store"
)

// ErrRunInFlight is returned when a run is requested while another is active.
var ErrRunInFlight = errors.New("a sync run is already in flight")

// Report summarizes one completed run.
type Report struct {
	Scraped    int                       `json:"scraped"`
	AfterDedup int                       `json:"after_dedup"`
	Summary    models.IntegrationSummary `json:"summary"`
	ExportFile string                    `json:"export_file"`
	FinishedAt time.Time                 `json:"finished_at"`
}

// Status is the service view exposed by the stats endpoint.
type Status struct {
	DatabaseStats        models.StoreStats `json:"database_stats"`
	FrontendFileExists   bool              `json:"frontend_file_exists"`
	FrontendLastModified string            `json:"frontend_last_modified,omitempty"`
	LastSync             string            `json:"last_sync,omitempty"`
	SyncIntervalMinutes  int               `json:"sync_interval_minutes"`
	ServiceStatus        string            `json:"service_status"`
}

// Runner owns the store and runs sync cycles. Runs are serialized: at most
// one ingestion is in flight at a time.
type Runner struct {
	mu       sync.Mutex
	store    *store.Store
	settings config.Settings
	sources  *config.Sources

	statusMu   sync.Mutex
	lastRun    time.Time
	lastReport Report
}

func NewRunner(st *store.Store, settings config.Settings, sources *config.Sources) *Runner {
	return &Runner{
		store:    st,
		settings: settings,
		sources:  sources,
	}
}

// RunOnce executes a complete cycle and blocks until it finishes or fails.
// A second concurrent call gets ErrRunInFlight instead of queueing.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	if !r.mu.TryLock() {
		return Report{}, ErrRunInFlight
	}
	defer r.mu.Unlock()

	log.Info("Starting sync cycle")

	products := r.collect(ctx)
	report := Report{Scraped: len(products)}

	unique := dedup.Filter(products)
	report.AfterDedup = len(unique)
	if dropped := len(products) - len(unique); dropped > 0 {
		log.WithField("dropped", dropped).Info("Removed duplicate products")
	}

	summary, err := r.store.Integrate(unique)
	if err != nil {
		return report, fmt.Errorf("integrate products: %w", err)
	}
	report.Summary = summary

	path, err := r.Export()
	if err != nil {
		return report, err
	}
	report.ExportFile = path
	report.FinishedAt = time.Now()

	r.statusMu.Lock()
	r.lastRun = report.FinishedAt
	r.lastReport = report
	r.statusMu.Unlock()

	log.WithFields(log.Fields{
		"scraped":     report.Scraped,
		"after_dedup": report.AfterDedup,
		"inserted":    summary.ProductsInserted,
		"categories":  summary.DistinctCategories,
		"brands":      summary.DistinctBrands,
	}).Info("Sync cycle completed")
	return report, nil
}

// collect gathers canonical records from every enabled source. A failing
// source is logged and skipped; a run with no real results falls back to
// generated sample data when the sources file allows it.
func (r *Runner) collect(ctx context.Context) []models.Product {
	var products []models.Product
	for _, cfg := range r.sources.Enabled() {
		src, err := scrapers.New(cfg, r.sources.SampleCount)
		if err != nil {
			log.WithError(err).WithField("source", cfg.Name).Error("Skipping source")
			continue
		}

		raws, err := src.Scrape(ctx)
		if err != nil {
			log.WithError(err).WithField("source", src.Name()).Warn("Source failed")
			continue
		}
		products = append(products, normalize.Records(raws, src.BaseURL())...)
	}

	if len(products) == 0 && r.sources.SampleFallback {
		log.Warn("No products from configured sources, falling back to sample data")
		fallback := scrapers.NewSample(r.sources.SampleCount)
		raws, _ := fallback.Scrape(ctx)
		products = normalize.Records(raws, fallback.BaseURL())
	}
	return products
}

// ImportFile ingests product candidates from an interchange JSON file,
// running them through the same normalize/dedup/ingest path as scraped data.
// A malformed file counts as zero candidates.
func (r *Runner) ImportFile(path string) (models.IntegrationSummary, error) {
	if !r.mu.TryLock() {
		return models.IntegrationSummary{}, ErrRunInFlight
	}
	defer r.mu.Unlock()

	raws := export.Load(path)
	products := dedup.Filter(normalize.Records(raws, ""))
	return r.store.Integrate(products)
}

// Export writes the current store contents to a timestamped file in the
// export directory, prunes old exports, and refreshes the frontend copy.
func (r *Runner) Export() (string, error) {
	doc, err := r.Document()
	if err != nil {
		return "", err
	}

	path, err := export.WriteFile(doc, r.settings.ExportDir)
	if err != nil {
		return "", err
	}
	if err := export.CleanupOld(r.settings.ExportDir, r.settings.KeepExports); err != nil {
		log.WithError(err).Warn("Export cleanup failed")
	}
	if err := export.SyncFrontend(doc, r.settings.FrontendDataPath); err != nil {
		return path, err
	}
	return path, nil
}

// Document builds the export projection of the current store contents.
func (r *Runner) Document() (export.Document, error) {
	products, categories, brands, err := r.store.Projection()
	if err != nil {
		return export.Document{}, fmt.Errorf("read store projection: %w", err)
	}
	return export.Build(products, categories, brands), nil
}

// Status reports store counts and sync freshness.
func (r *Runner) Status() Status {
	status := Status{
		SyncIntervalMinutes: r.settings.SyncIntervalMin,
		ServiceStatus:       "running",
	}

	stats, err := r.store.Stats()
	if err != nil {
		log.WithError(err).Error("Could not read store stats")
		status.ServiceStatus = "degraded"
	}
	status.DatabaseStats = stats

	if info, err := os.Stat(r.settings.FrontendDataPath); err == nil {
		status.FrontendFileExists = true
		status.FrontendLastModified = info.ModTime().Format(time.RFC3339)
	}

	r.statusMu.Lock()
	if !r.lastRun.IsZero() {
		status.LastSync = r.lastRun.Format(time.RFC3339)
	}
	r.statusMu.Unlock()

	return status
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"agrisync/pkg/config"
	"agrisync/pkg/store"
)

func newTestRunner(t *testing.T, sources *config.Sources) *Runner {
	t.Helper()

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	settings := config.Settings{
		DBPath:           filepath.Join(dir, "test.db"),
		ExportDir:        filepath.Join(dir, "exports"),
		FrontendDataPath: filepath.Join(dir, "frontend", "products.json"),
		SyncIntervalMin:  5,
		KeepExports:      5,
	}
	return NewRunner(st, settings, sources)
}

func TestImportFileEndToEnd(t *testing.T) {
	runner := newTestRunner(t, &config.Sources{})

	body := `{
		"products": [
			{"name": "Urea 46%", "price": "₹500", "category": "Fertilizers", "brand": "AgroTech"},
			{"name": "urea 46", "price": "₹500", "category": "Fertilizers", "brand": ""}
		]
	}`
	path := filepath.Join(t.TempDir(), "scraped.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := runner.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if summary.ProductsInserted != 1 {
		t.Errorf("ProductsInserted = %d, want 1 after dedup", summary.ProductsInserted)
	}

	doc, err := runner.Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.TotalProducts != 1 {
		t.Fatalf("TotalProducts = %d, want 1", doc.TotalProducts)
	}

	p := doc.Products[0]
	if p.Name != "Urea 46%" {
		t.Errorf("Name = %q, want the first-scraped variant", p.Name)
	}
	if p.Price != 500.0 {
		t.Errorf("Price = %v, want 500.0", p.Price)
	}
	if p.ID == 0 {
		t.Error("exported product has no id")
	}
	if len(doc.Categories) != 1 || doc.Categories[0] != "Fertilizers" {
		t.Errorf("Categories = %v, want [Fertilizers]", doc.Categories)
	}
	if len(doc.Brands) != 1 || doc.Brands[0] != "AgroTech" {
		t.Errorf("Brands = %v, want [AgroTech]", doc.Brands)
	}
}

func TestImportFileMalformed(t *testing.T) {
	runner := newTestRunner(t, &config.Sources{})

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"unexpected": true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := runner.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile on malformed input should be a no-op, got %v", err)
	}
	if summary.ProductsInserted != 0 {
		t.Errorf("ProductsInserted = %d, want 0", summary.ProductsInserted)
	}
}

func TestRunOnceSampleFallback(t *testing.T) {
	runner := newTestRunner(t, &config.Sources{
		SampleFallback: true,
		SampleCount:    5,
	})

	report, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if report.Scraped != 5 {
		t.Errorf("Scraped = %d, want 5 from sample fallback", report.Scraped)
	}
	if report.Summary.ProductsInserted == 0 {
		t.Error("no products inserted")
	}
	if report.ExportFile == "" {
		t.Fatal("no export file written")
	}
	if _, err := os.Stat(report.ExportFile); err != nil {
		t.Errorf("export file missing: %v", err)
	}
	if _, err := os.Stat(runner.settings.FrontendDataPath); err != nil {
		t.Errorf("frontend file missing: %v", err)
	}

	status := runner.Status()
	if status.DatabaseStats.Products == 0 {
		t.Error("status reports zero products after run")
	}
	if !status.FrontendFileExists {
		t.Error("status reports missing frontend file")
	}
	if status.LastSync == "" {
		t.Error("status has no last sync time")
	}
	if status.ServiceStatus != "running" {
		t.Errorf("ServiceStatus = %q, want running", status.ServiceStatus)
	}
}

func TestRunOnceIdempotentAcrossRuns(t *testing.T) {
	runner := newTestRunner(t, &config.Sources{
		Sources: []config.SourceConfig{
			{Name: "Sample", Type: config.TypeSample, Enabled: true},
		},
		SampleCount: 10,
	})

	first, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
	if first.Summary.ProductsInserted == 0 {
		t.Fatal("first run inserted nothing")
	}

	// The generator reuses the same name pool; a second run may insert only
	// products whose random price changed, never more than the first run.
	second, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if second.Summary.ProductsInserted > first.Summary.ProductsInserted {
		t.Errorf("second run inserted %d > first %d", second.Summary.ProductsInserted, first.Summary.ProductsInserted)
	}
}

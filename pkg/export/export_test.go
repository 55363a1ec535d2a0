package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"agrisync/pkg/models"
)

func TestBuild(t *testing.T) {
	products := []models.Product{
		{ID: 2, Name: "Urea 46%", Price: 500},
		{ID: 1, Name: "DAP Fertilizer", Price: 1350},
	}

	doc := Build(products, []string{"Seeds", "Fertilizers"}, []string{"FarmPro", "AgroTech"})

	if doc.TotalProducts != 2 {
		t.Errorf("TotalProducts = %d, want 2", doc.TotalProducts)
	}
	if doc.Categories[0] != "Fertilizers" || doc.Categories[1] != "Seeds" {
		t.Errorf("categories not sorted: %v", doc.Categories)
	}
	if doc.Brands[0] != "AgroTech" {
		t.Errorf("brands not sorted: %v", doc.Brands)
	}
	if _, err := time.Parse(time.RFC3339, doc.ExportedAt); err != nil {
		t.Errorf("ExportedAt %q is not RFC 3339: %v", doc.ExportedAt, err)
	}
}

func TestBuildEmpty(t *testing.T) {
	doc := Build(nil, nil, nil)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// The frontend expects arrays, not nulls.
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["products"] == nil {
		t.Error("products serialized as null, want []")
	}
}

func TestWriteFileAndLoad(t *testing.T) {
	dir := t.TempDir()
	doc := Build([]models.Product{{ID: 1, Name: "Urea 46%", Price: 500, Category: "Fertilizers"}}, []string{"Fertilizers"}, nil)

	path, err := WriteFile(doc, dir)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raws := Load(path)
	if len(raws) != 1 {
		t.Fatalf("Load returned %d products, want 1", len(raws))
	}
	if raws[0].Name != "Urea 46%" {
		t.Errorf("Name = %q", raws[0].Name)
	}
}

func TestLoadBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	body := `[{"name":"Urea 46%","price":"₹500","category":"Fertilizers"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	raws := Load(path)
	if len(raws) != 1 || raws[0].Price != "₹500" {
		t.Errorf("Load = %+v, want one record with raw price", raws)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"missing products key", `{"total_products": 3}`},
		{"not json", `not json at all`},
		{"wrong shape", `{"products": "nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if raws := Load(path); len(raws) != 0 {
				t.Errorf("Load = %d records, want 0", len(raws))
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if raws := Load(filepath.Join(t.TempDir(), "nope.json")); len(raws) != 0 {
		t.Errorf("Load of missing file = %d records, want 0", len(raws))
	}
}

func TestSyncFrontend(t *testing.T) {
	target := filepath.Join(t.TempDir(), "frontend", "src", "data", "products.json")
	doc := Build(nil, nil, nil)

	if err := SyncFrontend(doc, target); err != nil {
		t.Fatalf("SyncFrontend: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read synced file: %v", err)
	}
	var decoded Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("synced file is not valid JSON: %v", err)
	}

	// No stray temp files left behind.
	entries, _ := os.ReadDir(filepath.Dir(target))
	if len(entries) != 1 {
		t.Errorf("frontend dir has %d entries, want 1", len(entries))
	}
}

func TestCleanupOld(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"agrisync_export_2026-08-01_10-00-00.json",
		"agrisync_export_2026-08-02_10-00-00.json",
		"agrisync_export_2026-08-03_10-00-00.json",
		"agrisync_export_2026-08-04_10-00-00.json",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := CleanupOld(dir, 2); err != nil {
		t.Fatalf("CleanupOld: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "agrisync_export_*.json"))
	if len(matches) != 2 {
		t.Fatalf("remaining = %d, want 2", len(matches))
	}
	for _, path := range matches {
		base := filepath.Base(path)
		if base != names[2] && base != names[3] {
			t.Errorf("kept %s, want only the two newest", base)
		}
	}
}

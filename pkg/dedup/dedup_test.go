package dedup

import (
	"testing"

	"agrisync/pkg/models"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"punctuation stripped", "NPK 19:19:19 Fertilizer!", "npk 19 19 19 fertilizer"},
		{"already normalized", "npk 19 19 19 fertilizer", "npk 19 19 19 fertilizer"},
		{"case folded", "Urea 46%", "urea 46"},
		{"whitespace collapsed", "Urea   46\n", "urea 46"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.input); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterFirstWins(t *testing.T) {
	input := []models.Product{
		{Name: "x", SourceSite: "BigHaat", Price: 100},
		{Name: "X", SourceSite: "AgroStar", Price: 200},
		{Name: "y", SourceSite: "BigHaat", Price: 300},
	}

	got := Filter(input)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Name != "x" || got[0].SourceSite != "BigHaat" {
		t.Errorf("first survivor = %+v, want the earliest x", got[0])
	}
	if got[1].Name != "y" {
		t.Errorf("second survivor = %+v, want y", got[1])
	}
}

func TestFilterCollapsesPunctuationVariants(t *testing.T) {
	input := []models.Product{
		{Name: "NPK 19:19:19 Fertilizer!"},
		{Name: "npk 19 19 19 fertilizer"},
	}

	got := Filter(input)

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Name != "NPK 19:19:19 Fertilizer!" {
		t.Errorf("survivor = %q, want the first record", got[0].Name)
	}
}

func TestFilterIgnoresPriceAndSource(t *testing.T) {
	// Same normalized name from different sites at different prices still
	// merges; this coarse heuristic is deliberate.
	input := []models.Product{
		{Name: "Urea 46%", Price: 500, SourceSite: "BigHaat"},
		{Name: "urea 46", Price: 480, SourceSite: "AgroStar"},
	}

	got := Filter(input)

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Price != 500 {
		t.Errorf("survivor price = %v, want the earliest (500)", got[0].Price)
	}
}

func TestFilterEmpty(t *testing.T) {
	if got := Filter(nil); len(got) != 0 {
		t.Errorf("Filter(nil) = %v, want empty", got)
	}
}

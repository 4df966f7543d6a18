package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/closet/internal/models"
)

func sampleWardrobe() []models.Article {
	return []models.Article{
		{ID: "a", Description: "blue denim jacket", Category: models.CategoryOuterwear, WearCount: 3, LocalImagePath: "/images/a.jpg"},
		{ID: "b", Description: "white sneakers", Category: models.CategoryShoes, RemoteImageURL: "https://cdn.example.com/b.jpg"},
		{ID: "c", Description: "black jeans", Category: models.CategoryBottoms, WearCount: 7, LocalImagePath: "/images/c.jpg"},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleWardrobe())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 records, got %d lines", len(lines))
	}
	if lines[0] != "ID,Description,Category,WearCount,Image" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "blue denim jacket") || !strings.Contains(lines[1], "/images/a.jpg") {
		t.Errorf("unexpected first record: %s", lines[1])
	}
	// Remote-only record falls back to its remote URL.
	if !strings.Contains(lines[2], "https://cdn.example.com/b.jpg") {
		t.Errorf("expected remote URL fallback: %s", lines[2])
	}
}

func TestExportToCSVEmpty(t *testing.T) {
	data, err := ExportToCSV(nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if strings.TrimSpace(string(data)) != "ID,Description,Category,WearCount,Image" {
		t.Errorf("expected header only, got %q", data)
	}
}

func TestExportToMarkdown(t *testing.T) {
	output := string(ExportToMarkdown(sampleWardrobe()))

	if !strings.Contains(output, "# Wardrobe") || !strings.Contains(output, "3 articles") {
		t.Errorf("missing summary: %s", output)
	}
	for _, heading := range []string{"## outerwear", "## bottoms", "## shoes"} {
		if !strings.Contains(output, heading) {
			t.Errorf("missing section %q", heading)
		}
	}
	if strings.Contains(output, "## tops") {
		t.Error("empty categories must be omitted")
	}
	if !strings.Contains(output, "| black jeans | 7 | /images/c.jpg |") {
		t.Errorf("missing table row: %s", output)
	}

	// Grouped sections follow the fixed category order.
	if strings.Index(output, "## outerwear") > strings.Index(output, "## bottoms") {
		t.Error("expected outerwear before bottoms")
	}
}

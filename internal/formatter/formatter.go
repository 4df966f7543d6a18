// package formatter provides functions to export wardrobe data to various formats (CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/closet/internal/models"
)

// ExportToCSV converts the wardrobe to CSV with columns: ID, Description, Category, WearCount, Image
func ExportToCSV(articles []models.Article) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Description", "Category", "WearCount", "Image"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, article := range articles {
		record := []string{
			article.ID,
			article.Description,
			string(article.Category),
			strconv.Itoa(article.WearCount),
			article.DisplayImage(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts the wardrobe to a Markdown table grouped by category.
func ExportToMarkdown(articles []models.Article) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Wardrobe\n\n")
	buf.WriteString(fmt.Sprintf("%d articles\n", len(articles)))

	byCategory := make(map[models.Category][]models.Article)
	for _, article := range articles {
		byCategory[article.Category] = append(byCategory[article.Category], article)
	}

	for _, category := range models.Categories() {
		group := byCategory[category]
		if len(group) == 0 {
			continue
		}

		buf.WriteString(fmt.Sprintf("\n## %s\n\n", category))
		buf.WriteString("| Description | Worn | Image |\n")
		buf.WriteString("| --- | --- | --- |\n")
		for _, article := range group {
			buf.WriteString(fmt.Sprintf("| %s | %d | %s |\n",
				article.Description, article.WearCount, article.DisplayImage()))
		}
	}

	return buf.Bytes()
}

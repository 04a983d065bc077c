// Package report serializes batch results: upload-ready CSVs for stock
// marketplaces and a Parquet archive of the full run including errors.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"stockgen/internal/models"
)

// WriteCSVs writes two CSVs into outputFolder, named after the input folder
// so re-runs overwrite: <name>_Metadata.csv (Filename,Title,Description,
// Keywords) and <name>_Shutterstock.csv with the marketplace's column set.
// Error records are excluded; only usable metadata is exported. Returns the
// written paths.
func WriteCSVs(inputFolder, outputFolder string, results []models.Generated) ([]string, error) {
	if err := os.MkdirAll(outputFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}
	name := ExportName(inputFolder)

	plain := filepath.Join(outputFolder, name+"_Metadata.csv")
	if err := writeCSV(plain, [][]string{{"Filename", "Title", "Description", "Keywords"}}, results, plainRow); err != nil {
		return nil, err
	}

	ss := filepath.Join(outputFolder, name+"_Shutterstock.csv")
	header := [][]string{{"Filename", "Description", "Keywords", "Categories", "Editorial", "Mature Content", "Illustration"}}
	if err := writeCSV(ss, header, results, shutterstockRow); err != nil {
		return nil, err
	}

	return []string{plain, ss}, nil
}

// ExportName derives the export file prefix from the input folder name, so
// re-running the same folder overwrites its reports.
func ExportName(inputFolder string) string {
	name := filepath.Base(filepath.Clean(inputFolder))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "Result"
	}
	return name
}

func plainRow(g models.Generated) []string {
	return []string{g.File, g.Title, g.Description, strings.Join(g.Keywords, ",")}
}

func shutterstockRow(g models.Generated) []string {
	return []string{g.File, g.Description, strings.Join(g.Keywords, ","), g.Category, "No", "No", "No"}
}

func writeCSV(path string, header [][]string, results []models.Generated, row func(models.Generated) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	for _, g := range results {
		if g.IsError() {
			continue
		}
		if err := w.Write(row(g)); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// parquetRecord is the archival row schema. Keywords are semicolon-joined
// so the schema stays flat.
type parquetRecord struct {
	File         string  `parquet:"file"`
	FilePath     string  `parquet:"file_path"`
	Title        string  `parquet:"title"`
	Description  string  `parquet:"description"`
	Keywords     string  `parquet:"keywords"`
	Category     string  `parquet:"category"`
	Source       string  `parquet:"source"`
	Provider     string  `parquet:"provider"`
	FailedChecks string  `parquet:"failed_checks"`
	InputTokens  int64   `parquet:"input_tokens"`
	OutputTokens int64   `parquet:"output_tokens"`
	Cost         float64 `parquet:"cost"`
}

// WriteParquet archives every record of the run, error records included, so
// usage and failure analysis survives past the CSV exports.
func WriteParquet(path string, results []models.Generated) error {
	rows := make([]parquetRecord, 0, len(results))
	for _, g := range results {
		rows = append(rows, parquetRecord{
			File:         g.File,
			FilePath:     g.FilePath,
			Title:        g.Title,
			Description:  g.Description,
			Keywords:     strings.Join(g.Keywords, ";"),
			Category:     g.Category,
			Source:       g.Source,
			Provider:     g.Provider,
			FailedChecks: strings.Join(g.FailedChecks, ";"),
			InputTokens:  int64(g.InputTokens),
			OutputTokens: int64(g.OutputTokens),
			Cost:         g.Cost,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[parquetRecord](f)
	if _, err := w.Write(rows); err != nil {
		w.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"stockgen/internal/models"
)

func sampleResults() []models.Generated {
	return []models.Generated{
		{
			File:        "a.jpg",
			FilePath:    "/in/a.jpg",
			Title:       "Red Apple On Table",
			Description: "A fresh red apple, with a comma.",
			Keywords:    []string{"apple", "fruit"},
			Category:    "Food and Drink,Objects",
			Source:      "gemini-2.5-flash",
		},
		{
			File:        "b.jpg",
			FilePath:    "/in/b.jpg",
			Title:       "ERROR",
			Description: "all retry attempts failed",
			Source:      "error",
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestWriteCSVs(t *testing.T) {
	out := t.TempDir()

	paths, err := WriteCSVs("/photos/Holiday2025", out, sampleResults())
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}

	plain := readCSV(t, filepath.Join(out, "Holiday2025_Metadata.csv"))
	if len(plain) != 2 {
		t.Fatalf("plain CSV has %d rows, want header plus one record", len(plain))
	}
	if plain[0][0] != "Filename" || plain[1][0] != "a.jpg" || plain[1][1] != "Red Apple On Table" {
		t.Errorf("plain rows = %v", plain)
	}
	if plain[1][3] != "apple,fruit" {
		t.Errorf("keywords column = %q", plain[1][3])
	}

	ss := readCSV(t, filepath.Join(out, "Holiday2025_Shutterstock.csv"))
	if len(ss) != 2 {
		t.Fatalf("shutterstock CSV has %d rows, want 2", len(ss))
	}
	wantHeader := []string{"Filename", "Description", "Keywords", "Categories", "Editorial", "Mature Content", "Illustration"}
	for i, h := range wantHeader {
		if ss[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, ss[0][i], h)
		}
	}
	if ss[1][3] != "Food and Drink,Objects" || ss[1][4] != "No" {
		t.Errorf("shutterstock row = %v", ss[1])
	}
}

func TestExportName(t *testing.T) {
	if got := ExportName("/photos/Holiday2025/"); got != "Holiday2025" {
		t.Errorf("ExportName = %q", got)
	}
	if got := ExportName(""); got != "Result" {
		t.Errorf("ExportName empty = %q", got)
	}
}

func TestWriteParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.parquet")
	if err := WriteParquet(path, sampleResults()); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		t.Fatal(err)
	}

	r := parquet.NewGenericReader[parquetRecord](pf)
	rows := make([]parquetRecord, 2)
	n, _ := r.Read(rows)
	if n != 2 {
		t.Fatalf("read %d rows, want 2", n)
	}
	if rows[0].Title != "Red Apple On Table" || rows[0].Keywords != "apple;fruit" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	// Error records are archived too.
	if rows[1].Source != "error" {
		t.Errorf("row 1 source = %q", rows[1].Source)
	}
}

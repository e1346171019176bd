package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_ArrayShape(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `[
		{"title": "Vitamin C Serum", "description": "serum", "page_url": "https://x/1"},
		{"title": "Zinc", "description": "tablets", "page_url": "https://x/2"}
	]`)

	records, err := NewLoader(filepath.Join(dir, "products.json")).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "Vitamin C Serum" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
}

func TestLoad_WrappedShape(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products_1.json", `{"products": [
		{"title": "Omega 3", "en_title": "Omega-3", "fullContent": "long form"}
	]}`)

	records, err := NewLoader(filepath.Join(dir, "products_1.json")).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].EnTitle != "Omega-3" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestLoad_GlobMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products_1.json", `[{"title": "A", "description": "a"}]`)
	writeFile(t, dir, "products_2.json", `[{"title": "B", "description": "b"}]`)

	records, err := NewLoader(filepath.Join(dir, "products_*.json")).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// File-name order is the ingestion order.
	if records[0].Title != "A" || records[1].Title != "B" {
		t.Errorf("records out of order: %+v", records)
	}
}

func TestLoad_NoMatches(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewLoader(filepath.Join(dir, "missing.json")).Load(); err == nil {
		t.Error("expected error for missing catalog file")
	}
}

func TestLoad_EmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `[]`)
	if _, err := NewLoader(filepath.Join(dir, "products.json")).Load(); err == nil {
		t.Error("expected error for empty catalog")
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.json", `{broken`)
	if _, err := NewLoader(filepath.Join(dir, "products.json")).Load(); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

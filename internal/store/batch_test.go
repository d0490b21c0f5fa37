package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgomez/bid-harvester/internal/scrape"
)

func testWindow() scrape.DateWindow {
	return scrape.DateWindow{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
}

func testItems(n int) []scrape.Item {
	items := make([]scrape.Item, n)
	for i := range items {
		items[i] = scrape.Item{Opportunity: scrape.RawOpportunity{
			ID:        "raw-" + string(rune('a'+i)),
			Title:     "Bid",
			DetailURL: "https://example.gov/bid",
		}}
	}
	return items
}

func TestSessionDirNaming(t *testing.T) {
	root := t.TempDir()
	s, err := NewSession(root, "cherokee_bids", testWindow())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	base := filepath.Base(s.Dir)
	if !strings.HasPrefix(base, "cherokee_bids_2024-01-01_2024-01-05_") {
		t.Errorf("session dir %q missing source and window", base)
	}
}

func TestBatchWriterRoundTrip(t *testing.T) {
	s, err := NewSession(t.TempDir(), "cherokee_bids", testWindow())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	w := NewBatchWriter(s)

	if _, err := w.WriteBatch("https://example.gov/listing?page=1", testItems(3)); err != nil {
		t.Fatalf("WriteBatch 1: %v", err)
	}
	if _, err := w.WriteBatch("https://example.gov/listing?page=2", testItems(2)); err != nil {
		t.Fatalf("WriteBatch 2: %v", err)
	}

	batches, err := ReadSession(s.Dir)
	if err != nil {
		t.Fatalf("ReadSession: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0].Metadata.TotalItems != 3 || batches[1].Metadata.TotalItems != 2 {
		t.Errorf("item counts = %d, %d; want 3, 2",
			batches[0].Metadata.TotalItems, batches[1].Metadata.TotalItems)
	}
	if batches[0].Metadata.Source != "cherokee_bids" {
		t.Errorf("source = %q", batches[0].Metadata.Source)
	}
	if batches[0].Metadata.DateRange.From != "2024-01-01" {
		t.Errorf("date range from = %q", batches[0].Metadata.DateRange.From)
	}
	if len(batches[0].Items) != 3 {
		t.Errorf("decoded items = %d, want 3", len(batches[0].Items))
	}
}

func TestBatchFilesAreWriteOnce(t *testing.T) {
	s, err := NewSession(t.TempDir(), "cherokee_bids", testWindow())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, err := NewBatchWriter(s).WriteBatch("url", testItems(1)); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	// A fresh writer restarts numbering; the existing file must not be
	// clobbered.
	if _, err := NewBatchWriter(s).WriteBatch("url", testItems(1)); err == nil {
		t.Fatal("expected error overwriting batch_001.json")
	}
}

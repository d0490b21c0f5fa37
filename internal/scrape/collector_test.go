package scrape

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	body, ok := m[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return []byte(body), nil
}

type memSink struct {
	batches [][]Item
}

func (s *memSink) WriteBatch(_ string, items []Item) (int, error) {
	s.batches = append(s.batches, items)
	return len(s.batches), nil
}

func collectorConfig(ordered bool, maxPages int) SourceConfig {
	return SourceConfig{
		ID:            "test_portal",
		ListingURL:    "https://example.gov/bids?page={page}",
		MaxPages:      maxPages,
		OrderedByDate: ordered,
		Listing: ListingConfig{
			Row:        "table.listing tr.bid",
			Title:      "a",
			Link:       "a",
			Date:       "td.date",
			ExternalID: "td.id",
		},
	}
}

func listingRow(id, title, url, date string) string {
	return fmt.Sprintf(
		`<tr class="bid"><td class="id">%s</td><td><a href="%s">%s</a></td><td class="date">%s</td></tr>`,
		id, url, title, date)
}

func listingPage(rows ...string) string {
	page := `<html><body><table class="listing">`
	for _, r := range rows {
		page += r
	}
	return page + `</table></body></html>`
}

func detailPage(title string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1><p>Sealed bid for %s.</p></body></html>`, title, title)
}

func januaryWindow() DateWindow {
	return DateWindow{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestCollectorOrderedSourceStopsAtWindow(t *testing.T) {
	pages := mapFetcher{
		"https://example.gov/bids?page=1": listingPage(
			listingRow("B1", "In Window", "https://example.gov/bid/1", "1/5/2024"),
			listingRow("B2", "After Window", "https://example.gov/bid/2", "1/7/2024"),
			listingRow("B3", "No Date", "https://example.gov/bid/3", "TBD"),
			listingRow("B4", "Too Old", "https://example.gov/bid/4", "12/31/2023"),
		),
		// Page 2 exists but must never be fetched.
		"https://example.gov/bids?page=2": listingPage(
			listingRow("B5", "Unreachable", "https://example.gov/bid/5", "12/30/2023"),
		),
		"https://example.gov/bid/1": detailPage("In Window"),
	}
	sink := &memSink{}
	c := NewCollector(collectorConfig(true, 3), NewStaticAccessor(pages), sink, januaryWindow(), nil)

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.PagesFetched != 1 {
		t.Errorf("pages fetched = %d, want 1 (early stop)", stats.PagesFetched)
	}
	if stats.ItemsSeen != 4 || stats.ItemsAdmitted != 1 || stats.ItemsSkipped != 3 {
		t.Errorf("stats = %+v, want 4 seen / 1 admitted / 3 skipped", stats)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("batches = %v", sink.batches)
	}
	if got := sink.batches[0][0].Opportunity.Title; got != "In Window" {
		t.Errorf("admitted title = %q", got)
	}
}

func TestCollectorUnorderedSourceScansAllPages(t *testing.T) {
	pages := mapFetcher{
		"https://example.gov/bids?page=1": listingPage(
			listingRow("B4", "Too Old", "https://example.gov/bid/4", "12/31/2023"),
			listingRow("B1", "First Keeper", "https://example.gov/bid/1", "1/3/2024"),
		),
		"https://example.gov/bids?page=2": listingPage(
			listingRow("B5", "Second Keeper", "https://example.gov/bid/5", "1/2/2024"),
		),
		"https://example.gov/bid/1": detailPage("First Keeper"),
		"https://example.gov/bid/5": detailPage("Second Keeper"),
	}
	sink := &memSink{}
	c := NewCollector(collectorConfig(false, 2), NewStaticAccessor(pages), sink, januaryWindow(), nil)

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// An out-of-window date on an unordered source skips the item but
	// keeps paginating.
	if stats.PagesFetched != 2 {
		t.Errorf("pages fetched = %d, want 2", stats.PagesFetched)
	}
	if stats.ItemsAdmitted != 2 || stats.ItemsSkipped != 1 {
		t.Errorf("stats = %+v, want 2 admitted / 1 skipped", stats)
	}
	if stats.BatchesWritten != 2 {
		t.Errorf("batches written = %d, want one per non-empty page", stats.BatchesWritten)
	}
}

func TestCollectorDetailFailureDoesNotEndRun(t *testing.T) {
	pages := mapFetcher{
		"https://example.gov/bids?page=1": listingPage(
			listingRow("B1", "Broken Detail", "https://example.gov/bid/404", "1/3/2024"),
			listingRow("B2", "Good Detail", "https://example.gov/bid/2", "1/4/2024"),
		),
		"https://example.gov/bid/2": detailPage("Good Detail"),
	}
	sink := &memSink{}
	c := NewCollector(collectorConfig(false, 1), NewStaticAccessor(pages), sink, januaryWindow(), nil)

	stats, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.ItemErrors != 1 || stats.ItemsAdmitted != 1 {
		t.Errorf("stats = %+v, want 1 error / 1 admitted", stats)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("batches = %v, want the good item persisted", sink.batches)
	}
}

func TestCollectorFirstPageFailureIsFatal(t *testing.T) {
	c := NewCollector(collectorConfig(false, 1), NewStaticAccessor(mapFetcher{}), &memSink{}, januaryWindow(), nil)
	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error when listing page 1 cannot be fetched")
	}
}

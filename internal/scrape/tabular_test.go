package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func selectionFrom(t *testing.T, html, selector string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc.Find(selector)
}

func TestDecodeTableWithHeaderCells(t *testing.T) {
	html := `<table>
		<tr><th>Bid Number</th><th>Title</th><th>Close Date</th></tr>
		<tr><td>RFP-001</td><td>Roofing</td><td>1/30/2024</td></tr>
		<tr><td></td><td></td><td></td></tr>
		<tr><td>RFP-002</td><td>Paving</td><td>2/15/2024</td></tr>
	</table>`
	tbl := DecodeTable(selectionFrom(t, html, "table"))
	if tbl == nil {
		t.Fatal("DecodeTable returned nil")
	}

	wantHeaders := []string{"bid_number", "title", "close_date"}
	if len(tbl.Headers) != len(wantHeaders) {
		t.Fatalf("headers = %v", tbl.Headers)
	}
	for i, h := range wantHeaders {
		if tbl.Headers[i] != h {
			t.Errorf("header %d = %q, want %q", i, tbl.Headers[i], h)
		}
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (all-empty row discarded)", len(tbl.Rows))
	}
	if tbl.Rows[0]["bid_number"] != "RFP-001" {
		t.Errorf("row 0 bid_number = %q", tbl.Rows[0]["bid_number"])
	}
	if tbl.Rows[1]["close_date"] != "2/15/2024" {
		t.Errorf("row 1 close_date = %q", tbl.Rows[1]["close_date"])
	}
}

func TestDecodeTablePromotesFirstRow(t *testing.T) {
	html := `<table>
		<tr><td>Bid Number</td><td></td><td>Close Date</td></tr>
		<tr><td>RFP-001</td><td>Roofing</td><td>1/30/2024</td></tr>
	</table>`
	tbl := DecodeTable(selectionFrom(t, html, "table"))
	if tbl == nil {
		t.Fatal("DecodeTable returned nil")
	}
	if tbl.Headers[0] != "bid_number" || tbl.Headers[1] != "column_2" || tbl.Headers[2] != "close_date" {
		t.Errorf("headers = %v, want blank promoted to column_2", tbl.Headers)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(tbl.Rows))
	}
	if tbl.Rows[0]["column_2"] != "Roofing" {
		t.Errorf("column_2 = %q", tbl.Rows[0]["column_2"])
	}
}

func TestTableLookup(t *testing.T) {
	html := `<table>
		<tr><th>Bid Number</th><th>Close Date</th></tr>
		<tr><td>RFP-001</td><td>1/30/2024</td></tr>
	</table>`
	tbl := DecodeTable(selectionFrom(t, html, "table"))

	if v := tbl.Lookup([]string{"Deadline", "Close Date"}); v != "1/30/2024" {
		t.Errorf("Lookup close date = %q", v)
	}
	if v := tbl.Lookup([]string{"Bid Number"}); v != "RFP-001" {
		t.Errorf("Lookup bid number = %q", v)
	}
	if v := tbl.Lookup([]string{"Award Amount"}); v != "" {
		t.Errorf("Lookup unknown label = %q, want empty", v)
	}

	var nilTable *Table
	if v := nilTable.Lookup([]string{"x"}); v != "" {
		t.Errorf("nil table Lookup = %q", v)
	}
}

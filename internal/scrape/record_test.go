package scrape

import (
	"context"
	"testing"
)

const detailHTML = `<html><body>
<h1 class="bid-title">Roof Replacement, Building C</h1>
<div class="bid-detail">
	<table>
		<tr><th>Reference Number</th><td>RFP-2024-001</td></tr>
		<tr><th>Status</th><td>Posted</td></tr>
		<tr><th>Open Date</th><td>1/2/2024</td></tr>
		<tr><th>Close Date</th><td>1/30/2024</td></tr>
		<tr><th>Department</th><td>Facilities Management</td></tr>
		<tr><th>Estimated Amount</th><td>$1M - $5M</td></tr>
	</table>
	<div class="description"><p>Replace the existing roof membrane.</p></div>
	<p>Contact: Pat Doe, pat.doe@example.gov, (918) 555-0142</p>
</div>
<div class="attachments">
	<ul>
		<li><a href="/files/roof-specs.pdf">Roof Specifications</a> (1.2 MB)</li>
		<li><a href="/files/roof-specs.pdf">Roof Specifications</a></li>
		<li><a href="#">skip me</a></li>
	</ul>
</div>
</body></html>`

func recordConfig() SourceConfig {
	return SourceConfig{
		ID: "cherokee_bids",
		Detail: DetailConfig{
			Selectors: FieldSelectors{
				Container:   "div.bid-detail",
				Description: "div.description",
			},
		},
		Documents: DocumentsConfig{Table: "div.attachments"},
	}
}

func TestRecordExtractorExtract(t *testing.T) {
	page, err := ParsePage("https://bids.example.gov/bid/1001", detailHTML)
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	entry := ListingEntry{Title: "Roof Replacement, Building C", DetailLink: "https://bids.example.gov/bid/1001"}

	raw, docs := NewRecordExtractor(recordConfig()).Extract(context.Background(), page, entry)

	if raw.ID == "" || raw.DetailURL == "" || raw.Title == "" || raw.Description == "" || raw.Status == "" {
		t.Fatalf("record missing guaranteed fields: %+v", raw)
	}
	if raw.ExternalID != "RFP-2024-001" {
		t.Errorf("external id = %q", raw.ExternalID)
	}
	if raw.Status != "Posted" {
		t.Errorf("status = %q", raw.Status)
	}
	if raw.OpenDate != "1/2/2024" || raw.CloseDate != "1/30/2024" {
		t.Errorf("dates = %q / %q", raw.OpenDate, raw.CloseDate)
	}
	if raw.Entity != "Facilities Management" {
		t.Errorf("entity = %q", raw.Entity)
	}
	if raw.Amount != "$1M - $5M" {
		t.Errorf("amount = %q", raw.Amount)
	}
	if raw.Contact.Name != "Pat Doe" {
		t.Errorf("contact name = %q, want the blob cut before the email", raw.Contact.Name)
	}
	if raw.Contact.Email != "pat.doe@example.gov" {
		t.Errorf("contact email = %q", raw.Contact.Email)
	}
	if raw.Contact.Phone == "" {
		t.Errorf("contact phone missing")
	}

	if len(docs) != 1 {
		t.Fatalf("docs = %d, want 1 (dedup by URL, fragment links dropped)", len(docs))
	}
	d := docs[0]
	if d.DownloadURL != "https://bids.example.gov/files/roof-specs.pdf" {
		t.Errorf("download url = %q, want absolute", d.DownloadURL)
	}
	if d.FileName != "Roof Specifications" {
		t.Errorf("file name = %q", d.FileName)
	}
	if d.ParentID != raw.ID {
		t.Errorf("parent id = %q, want %q", d.ParentID, raw.ID)
	}
	if d.FileSizeBytes == nil || *d.FileSizeBytes != 1258291 {
		t.Errorf("file size = %v, want 1.2 MB in bytes", d.FileSizeBytes)
	}
}

func TestTrimContactName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email in blob", "Pat Doe, pat.doe@example.gov, (918) 555-0142", "Pat Doe"},
		{"phone first", "Pat Doe (918) 555-0142 pat.doe@example.gov", "Pat Doe"},
		{"plain name untouched", "Pat Doe", "Pat Doe"},
		{"email only", "pat.doe@example.gov", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trimContactName(tt.in); got != tt.want {
				t.Errorf("trimContactName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRecordExtractorDefaultsOnSparsePage(t *testing.T) {
	page, err := ParsePage("https://bids.example.gov/bid/7742", "<html><body><h1>Surplus Vehicle Auction</h1></body></html>")
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}

	raw, docs := NewRecordExtractor(SourceConfig{ID: "cherokee_bids"}).Extract(context.Background(), page, ListingEntry{})

	if raw.ExternalID != "7742" {
		t.Errorf("external id = %q, want numeric URL suffix", raw.ExternalID)
	}
	if raw.Title != "Surplus Vehicle Auction" {
		t.Errorf("title = %q", raw.Title)
	}
	if raw.Description != raw.Title {
		t.Errorf("description = %q, want title fallback", raw.Description)
	}
	if raw.Status != StatusUnknown {
		t.Errorf("status = %q, want %q", raw.Status, StatusUnknown)
	}
	if raw.ID == "" {
		t.Error("id must always be derived")
	}
	if docs != nil {
		t.Errorf("docs = %v, want none without a configured scope", docs)
	}
}

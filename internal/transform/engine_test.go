package transform

import (
	"testing"
	"time"

	"github.com/dgomez/bid-harvester/internal/scrape"
	"github.com/dgomez/bid-harvester/internal/store"
)

func sampleBatch() store.Batch {
	size := int64(482113)
	return store.Batch{
		Metadata: store.BatchMetadata{
			ScrapedAt: "2024-01-06T04:12:00Z",
			Source:    "cherokee_bids",
			SourceURL: "https://bids.example.gov/listing?page=1",
			DateRange: store.DateRange{From: "2024-01-01", To: "2024-01-05"},
		},
		Items: []scrape.Item{
			{
				Opportunity: scrape.RawOpportunity{
					ID:          "raw-1",
					ExternalID:  "RFP-2024-001",
					DetailURL:   "https://bids.example.gov/bid/1001",
					Title:       "  Roof   Replacement,  Building C ",
					Description: "<p>Replace the <b>existing roof</b>.</p>",
					Status:      "Posted",
					OpenDate:    "January 2, 2024",
					CloseDate:   "01/30/2024",
					Entity:      "Facilities Management",
					EntityCode:  "FAC",
					Amount:      "$1M - $5M",
					Contact: scrape.RawContact{
						Name:  "Pat Doe",
						Email: "Pat.Doe@Example.GOV",
						Phone: "(918) 555-0142",
					},
				},
				Documents: []scrape.RawDocument{
					{
						ID:            "rawdoc-1",
						FileName:      "roof-specs.pdf",
						DownloadURL:   "https://bids.example.gov/files/roof-specs.pdf",
						FileSizeBytes: &size,
						PageCount:     14,
					},
				},
			},
			{
				Opportunity: scrape.RawOpportunity{
					ID:          "raw-2",
					ExternalID:  "RFP-2024-002",
					DetailURL:   "https://bids.example.gov/bid/1002",
					Title:       "Janitorial Services",
					Description: "Annual janitorial contract.",
					Status:      "Closed",
					Entity:      "Facilities Management",
					EntityCode:  "FAC",
					Contact: scrape.RawContact{
						Name:  "Patricia Doe",
						Email: "pat.doe@example.gov",
					},
				},
			},
		},
	}
}

func TestTransformerNormalizesBatch(t *testing.T) {
	tr := NewTransformer("cherokee_bids")
	tr.AddBatch(sampleBatch())
	agg := tr.Aggregate(scrape.DateWindow{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})

	if err := Validate(agg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(agg.Contracts) != 2 {
		t.Fatalf("contracts = %d, want 2", len(agg.Contracts))
	}

	c := agg.Contracts[0]
	if c.Title != "Roof Replacement, Building C" {
		t.Errorf("title = %q, want whitespace collapsed", c.Title)
	}
	if c.Description != "Replace the existing roof." {
		t.Errorf("description = %q, want HTML stripped", c.Description)
	}
	if c.Status != "open" {
		t.Errorf("status = %q, want open", c.Status)
	}
	if c.Amount == nil || *c.Amount != 1000000 {
		t.Errorf("amount = %v, want lower bound 1000000", c.Amount)
	}
	if c.OpenDate == nil || !c.OpenDate.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("open date = %v, want 2024-01-02", c.OpenDate)
	}
	if c.CloseDate == nil || !c.CloseDate.Equal(time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("close date = %v, want 2024-01-30", c.CloseDate)
	}

	// Both contracts share one agency and, via email, one person.
	if len(agg.Agencies) != 1 {
		t.Fatalf("agencies = %d, want 1", len(agg.Agencies))
	}
	if c.AgencyID == nil || *c.AgencyID != agg.Agencies[0].ID {
		t.Errorf("contract agency link broken")
	}
	if len(agg.People) != 1 {
		t.Fatalf("people = %d, want 1 (email-keyed)", len(agg.People))
	}
	p := agg.People[0]
	if p.Email != "pat.doe@example.gov" {
		t.Errorf("email = %q, want lowercased", p.Email)
	}
	if p.Phone != "9185550142" {
		t.Errorf("phone = %q, want bare digits", p.Phone)
	}
	if p.Name != "Pat Doe" {
		t.Errorf("name = %q, want first-seen form", p.Name)
	}

	if len(agg.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(agg.Documents))
	}
	d := agg.Documents[0]
	if d.ContractID != c.ID {
		t.Errorf("document parent = %s, want %s", d.ContractID, c.ID)
	}
	if d.FileType != "pdf" {
		t.Errorf("file type = %q, want pdf", d.FileType)
	}
}

func TestTransformerIsIdempotent(t *testing.T) {
	window := scrape.DateWindow{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	first := NewTransformer("cherokee_bids")
	first.AddBatch(sampleBatch())
	second := NewTransformer("cherokee_bids")
	second.AddBatch(sampleBatch())
	second.AddBatch(sampleBatch()) // same session fed twice

	a := first.Aggregate(window)
	b := second.Aggregate(window)
	if len(a.Contracts) != len(b.Contracts) {
		t.Fatalf("contracts %d vs %d after replay", len(a.Contracts), len(b.Contracts))
	}
	for i := range a.Contracts {
		if a.Contracts[i].ID != b.Contracts[i].ID {
			t.Errorf("contract %d id changed across runs", i)
		}
	}
	if len(a.People) != len(b.People) || len(a.Agencies) != len(b.Agencies) || len(a.Documents) != len(b.Documents) {
		t.Errorf("entity counts changed across runs")
	}
}

func TestValidateCatchesDanglingReferences(t *testing.T) {
	tr := NewTransformer("cherokee_bids")
	tr.AddBatch(sampleBatch())
	agg := tr.Aggregate(scrape.DateWindow{})

	bogus := "not-a-real-agency"
	agg.Contracts[0].AgencyID = &bogus
	if err := Validate(agg); err == nil {
		t.Fatal("expected validation failure for dangling agency reference")
	}
}

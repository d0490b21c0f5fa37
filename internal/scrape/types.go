package scrape

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// ListingEntry is one row of a listing page. It only lives long enough to
// drive the detail-page visit that turns it into a RawOpportunity.
type ListingEntry struct {
	ExternalID string
	Title      string
	DetailLink string
	RawDate    string
	PageNumber int
	Ordinal    int
}

// RawOpportunity is the unnormalized record as captured from a detail page.
// Every optional field may be empty; ID and DetailURL are always set.
// Date and money fields stay raw strings until the transform stage.
type RawOpportunity struct {
	ID          string   `json:"id"`
	ExternalID  string   `json:"external_id,omitempty"`
	DetailURL   string   `json:"detail_url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Note        string   `json:"note,omitempty"`
	Status      string   `json:"status"`
	OpenDate    string   `json:"open_date,omitempty"`
	CloseDate   string   `json:"close_date,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	Entity      string   `json:"entity,omitempty"`
	EntityCode  string   `json:"entity_code,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Commodities []string `json:"commodity_codes,omitempty"`
	Amount      string   `json:"amount,omitempty"`
	AwardedTo   string   `json:"awarded_to,omitempty"`
	AwardAmount string   `json:"award_amount,omitempty"`

	Contact RawContact `json:"contact,omitempty"`

	// TabContent maps tab name to the harvested text of that tab.
	// Tabs that failed to activate are absent, never empty placeholders.
	TabContent map[string]string `json:"tab_content,omitempty"`
}

// RawContact is a contact as found on the page, unvalidated.
type RawContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// IsZero reports whether no contact field was recovered at all.
func (c RawContact) IsZero() bool {
	return c.Name == "" && c.Email == "" && c.Phone == ""
}

// RawDocument is an attachment discovered on a detail page. It is owned by
// its parent RawOpportunity for the lifetime of the raw batch.
type RawDocument struct {
	ID            string `json:"id"`
	FileName      string `json:"file_name"`
	DownloadURL   string `json:"download_url"`
	FileSizeBytes *int64 `json:"file_size_bytes,omitempty"`
	PageCount     int    `json:"page_count,omitempty"`
	Missing       bool   `json:"missing,omitempty"`
	ParentID      string `json:"parent_id"`
}

// Item pairs an opportunity with the documents found alongside it.
type Item struct {
	Opportunity RawOpportunity `json:"opportunity"`
	Documents   []RawDocument  `json:"documents"`
}

// Page is one rendered document. Static sources back it with a parsed HTML
// tree; Click and WaitIdle degrade to cheap no-ops there.
type Page interface {
	// Root returns the document root for selector queries.
	Root() *goquery.Selection
	// Click activates the first element matching the selector. A failed
	// click is an error for the caller to swallow, never a panic.
	Click(selector string) error
	// WaitIdle blocks until pending page work settles.
	WaitIdle(ctx context.Context) error
	// Location is the URL the page was opened from.
	Location() string
}

// Accessor opens documents. The pipeline treats it as a scarce, rate-limited
// external resource and never opens pages concurrently.
type Accessor interface {
	Open(ctx context.Context, url string) (Page, error)
}

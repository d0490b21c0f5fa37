package models

import "time"

// Contract is a fully normalized bid opportunity. IDs are derived from
// content, so the same source record always maps to the same Contract.
type Contract struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"external_id"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Note        string     `json:"note,omitempty"`
	Status      string     `json:"status"`
	OpenDate    *time.Time `json:"open_date"`
	CloseDate   *time.Time `json:"close_date"`
	PostedAt    *time.Time `json:"posted_at"`
	AgencyID    *string    `json:"agency_id"`
	ContactIDs  []string   `json:"contact_ids"`
	DocumentIDs []string   `json:"document_ids"`
	Categories  []string   `json:"categories,omitempty"`
	Commodities []string   `json:"commodities,omitempty"`
	Amount      *int64     `json:"amount"`
	AwardedTo   string     `json:"awarded_to,omitempty"`
	AwardAmount *int64     `json:"award_amount,omitempty"`
	ScrapedAt   time.Time  `json:"scraped_at"`
}

// Agency is the issuing entity behind one or more contracts.
type Agency struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Person is a point of contact. Email is normalized to lowercase and
// phone to bare digits before the ID is derived.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Document is an attachment tied to a contract. Missing marks documents
// whose download terminally failed; the contract still references them.
type Document struct {
	ID            string `json:"id"`
	ContractID    string `json:"contract_id"`
	FileName      string `json:"file_name"`
	FileType      string `json:"file_type,omitempty"`
	DownloadURL   string `json:"download_url"`
	FileSizeBytes *int64 `json:"file_size_bytes"`
	PageCount     int    `json:"page_count,omitempty"`
	Missing       bool   `json:"missing"`
}

// Aggregate is the complete normalized output of one harvest session.
type Aggregate struct {
	Metadata  AggregateMetadata `json:"metadata"`
	Contracts []Contract        `json:"contracts"`
	Agencies  []Agency          `json:"agencies"`
	People    []Person          `json:"people"`
	Documents []Document        `json:"documents"`
}

type AggregateMetadata struct {
	GeneratedAt string `json:"generatedAt"`
	Source      string `json:"source"`
	DateRange   struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"dateRange"`
	TotalContracts int `json:"totalContracts"`
	TotalAgencies  int `json:"totalAgencies"`
	TotalPeople    int `json:"totalPeople"`
	TotalDocuments int `json:"totalDocuments"`
}

package transform

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dgomez/bid-harvester/internal/models"
	"github.com/dgomez/bid-harvester/internal/scrape"
	"github.com/dgomez/bid-harvester/internal/store"
)

// Transformer turns raw scraped items into the normalized output model.
// It accumulates across batches: feeding the same session through twice
// produces the same aggregate, because every ID is content-derived and
// duplicates keep their first-seen form.
type Transformer struct {
	source    string
	sanitizer *bluemonday.Policy

	contracts     []models.Contract
	contractIndex map[string]bool
	agencies      []models.Agency
	agencyIndex   map[string]string // natural key -> id
	people        []models.Person
	personIndex   map[string]string
	documents     []models.Document
	documentIndex map[string]bool
}

func NewTransformer(source string) *Transformer {
	return &Transformer{
		source:        source,
		sanitizer:     bluemonday.StrictPolicy(),
		contractIndex: make(map[string]bool),
		agencyIndex:   make(map[string]string),
		personIndex:   make(map[string]string),
		documentIndex: make(map[string]bool),
	}
}

// AddBatch normalizes every item in one raw batch. Items are processed in
// a single pass each; a malformed item is logged and skipped without
// affecting its neighbors.
func (t *Transformer) AddBatch(batch store.Batch) {
	scrapedAt, _ := time.Parse(time.RFC3339, batch.Metadata.ScrapedAt)
	for _, item := range batch.Items {
		t.addItem(item, scrapedAt)
	}
}

func (t *Transformer) addItem(item scrape.Item, scrapedAt time.Time) {
	raw := item.Opportunity
	if raw.Title == "" && raw.DetailURL == "" {
		log.Printf("[%s] skipping item with no title or URL", t.source)
		return
	}

	contractID := EntityID(t.source, contractKey(raw.ExternalID, raw.DetailURL))
	if t.contractIndex[contractID] {
		// First-seen wins; later duplicates are dropped wholesale.
		return
	}

	contract := models.Contract{
		ID:          contractID,
		ExternalID:  raw.ExternalID,
		Source:      t.source,
		URL:         raw.DetailURL,
		Title:       cleanField(raw.Title),
		Description: t.sanitizeText(raw.Description),
		Note:        t.sanitizeText(raw.Note),
		Status:      NormalizeStatus(raw.Status),
		Categories:  raw.Categories,
		Commodities: raw.Commodities,
		AwardedTo:   cleanField(raw.AwardedTo),
		ScrapedAt:   scrapedAt.UTC(),
	}

	if d, ok := scrape.ParseFlexibleDate(raw.OpenDate); ok {
		contract.OpenDate = &d
	}
	if d, ok := scrape.ParseFlexibleDate(raw.CloseDate); ok {
		contract.CloseDate = &d
	}
	if d, ok := scrape.ParseFlexibleDate(raw.CreatedAt); ok {
		contract.PostedAt = &d
	}
	if amount, ok := ParseMoney(raw.Amount); ok {
		contract.Amount = &amount
	}
	if amount, ok := ParseMoney(raw.AwardAmount); ok {
		contract.AwardAmount = &amount
	}

	if id := t.addAgency(raw.Entity, raw.EntityCode); id != "" {
		contract.AgencyID = &id
	}
	if id := t.addPerson(raw.Contact); id != "" {
		contract.ContactIDs = append(contract.ContactIDs, id)
	}
	for _, doc := range item.Documents {
		if id := t.addDocument(doc, contractID); id != "" {
			contract.DocumentIDs = append(contract.DocumentIDs, id)
		}
	}

	t.contracts = append(t.contracts, contract)
	t.contractIndex[contractID] = true
}

func (t *Transformer) addAgency(name, code string) string {
	name = cleanField(name)
	code = cleanField(code)
	if name == "" && code == "" {
		return ""
	}
	key := agencyKey(name, code)
	if id, ok := t.agencyIndex[key]; ok {
		return id
	}
	id := EntityID(t.source, key)
	t.agencies = append(t.agencies, models.Agency{ID: id, Name: name, Code: code})
	t.agencyIndex[key] = id
	return id
}

func (t *Transformer) addPerson(c scrape.RawContact) string {
	if c.IsZero() {
		return ""
	}
	key := personKey(c.Name, c.Email)
	if id, ok := t.personIndex[key]; ok {
		return id
	}
	id := EntityID(t.source, key)
	t.people = append(t.people, models.Person{
		ID:    id,
		Name:  cleanField(c.Name),
		Email: NormalizeEmail(c.Email),
		Phone: NormalizePhone(c.Phone),
	})
	t.personIndex[key] = id
	return id
}

func (t *Transformer) addDocument(raw scrape.RawDocument, contractID string) string {
	if raw.DownloadURL == "" && raw.ID == "" {
		return ""
	}
	id := EntityID(t.source, documentKey(raw.DownloadURL, raw.ID))
	if t.documentIndex[id] {
		return id
	}
	t.documents = append(t.documents, models.Document{
		ID:            id,
		ContractID:    contractID,
		FileName:      raw.FileName,
		FileType:      fileType(raw.FileName, raw.DownloadURL),
		DownloadURL:   raw.DownloadURL,
		FileSizeBytes: raw.FileSizeBytes,
		PageCount:     raw.PageCount,
		Missing:       raw.Missing,
	})
	t.documentIndex[id] = true
	return id
}

// Aggregate assembles the final output document for the window.
func (t *Transformer) Aggregate(window scrape.DateWindow) models.Aggregate {
	agg := models.Aggregate{
		Contracts: t.contracts,
		Agencies:  t.agencies,
		People:    t.people,
		Documents: t.documents,
	}
	agg.Metadata.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	agg.Metadata.Source = t.source
	agg.Metadata.DateRange.From = window.From.Format("2006-01-02")
	agg.Metadata.DateRange.To = window.To.Format("2006-01-02")
	agg.Metadata.TotalContracts = len(t.contracts)
	agg.Metadata.TotalAgencies = len(t.agencies)
	agg.Metadata.TotalPeople = len(t.people)
	agg.Metadata.TotalDocuments = len(t.documents)
	return agg
}

func (t *Transformer) sanitizeText(s string) string {
	return strings.TrimSpace(t.sanitizer.Sanitize(s))
}

func cleanField(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fileType(fileName, url string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" {
		ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(url)), ".")
	}
	if ext == "" || len(ext) > 8 || strings.ContainsAny(ext, "/?&=") {
		return "unknown"
	}
	return ext
}

// Validate checks the aggregate's structural invariants: every ID unique
// within its collection, and every cross-reference resolvable. A failure
// here means the transform itself is broken, so callers should treat it
// as fatal.
func Validate(agg models.Aggregate) error {
	contracts := make(map[string]bool, len(agg.Contracts))
	for _, c := range agg.Contracts {
		if c.ID == "" {
			return fmt.Errorf("contract %q has empty id", c.Title)
		}
		if contracts[c.ID] {
			return fmt.Errorf("duplicate contract id %s", c.ID)
		}
		contracts[c.ID] = true
	}

	agencies := make(map[string]bool, len(agg.Agencies))
	for _, a := range agg.Agencies {
		if agencies[a.ID] {
			return fmt.Errorf("duplicate agency id %s", a.ID)
		}
		agencies[a.ID] = true
	}
	people := make(map[string]bool, len(agg.People))
	for _, p := range agg.People {
		if people[p.ID] {
			return fmt.Errorf("duplicate person id %s", p.ID)
		}
		people[p.ID] = true
	}
	documents := make(map[string]bool, len(agg.Documents))
	for _, d := range agg.Documents {
		if documents[d.ID] {
			return fmt.Errorf("duplicate document id %s", d.ID)
		}
		documents[d.ID] = true
		if !contracts[d.ContractID] {
			return fmt.Errorf("document %s references unknown contract %s", d.ID, d.ContractID)
		}
	}

	for _, c := range agg.Contracts {
		if c.AgencyID != nil && !agencies[*c.AgencyID] {
			return fmt.Errorf("contract %s references unknown agency %s", c.ID, *c.AgencyID)
		}
		for _, pid := range c.ContactIDs {
			if !people[pid] {
				return fmt.Errorf("contract %s references unknown person %s", c.ID, pid)
			}
		}
		for _, did := range c.DocumentIDs {
			if !documents[did] {
				return fmt.Errorf("contract %s references unknown document %s", c.ID, did)
			}
		}
	}
	return nil
}

package scrape

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Built-in label vocabularies, used when a source config does not override
// them. Order matters: earlier labels win ties.
var (
	defaultOpenDateLabels    = []string{"Open Date", "Posting Date", "Posted Date", "Start Date", "Issue Date", "Posted"}
	defaultCloseDateLabels   = []string{"Close Date", "Closing Date", "Due Date", "Deadline", "Submission Deadline", "Closes"}
	defaultStatusLabels      = []string{"Status", "Stage", "Bid Status"}
	defaultEntityLabels      = []string{"Entity", "Agency", "Organization", "Department", "Buyer Organization"}
	defaultEntityCodeLabels  = []string{"Agency Code", "Entity Code", "Org Code"}
	defaultAmountLabels      = []string{"Estimated Value", "Estimated Amount", "Budget", "Contract Value", "Value"}
	defaultContactNameLabels = []string{"Contact", "Buyer", "Point of Contact", "Contact Name", "Procurement Officer"}
	defaultEmailLabels       = []string{"Email", "E-mail", "Buyer Email", "Contact Email"}
	defaultPhoneLabels       = []string{"Phone", "Telephone", "Phone Number", "Contact Phone"}
	defaultCategoryLabels    = []string{"Category", "Categories", "Type of Work"}
	defaultCommodityLabels   = []string{"Commodity Codes", "Commodity", "NIGP Codes", "UNSPSC"}
	defaultAwardedToLabels   = []string{"Awarded To", "Awardee", "Successful Bidder", "Winner"}
	defaultAwardAmountLabels = []string{"Award Amount", "Awarded Amount", "Contract Amount"}
	defaultNoteLabels        = []string{"Note", "Notes", "Special Instructions", "Additional Information"}
)

var (
	emailRegex     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRegex     = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	urlNumberRegex = regexp.MustCompile(`(\d{3,})/?$`)
	fileSizeRegex  = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(B|KB|MB|GB)\b`)
)

// StatusUnknown is the sentinel for records whose status could not be
// resolved from the page.
const StatusUnknown = "Unknown"

// RecordExtractor assembles one complete RawOpportunity per detail page,
// running a fixed per-field attempt order: source-specific selector, then
// label match, then tabular fallback — each leg fail-soft through Resolve.
type RecordExtractor struct {
	cfg SourceConfig
}

func NewRecordExtractor(cfg SourceConfig) *RecordExtractor {
	return &RecordExtractor{cfg: cfg}
}

// Extract pulls a RawOpportunity and its documents out of an open detail
// page. It never fails on missing fields: the returned record always has a
// non-empty ID, DetailURL, Title, Description, and Status.
func (e *RecordExtractor) Extract(ctx context.Context, page Page, entry ListingEntry) (RawOpportunity, []RawDocument) {
	sel := e.cfg.Detail.Selectors
	scope := page.Root()
	if sel.Container != "" {
		if c := scope.Find(sel.Container); c.Length() > 0 {
			scope = c
		}
	}
	labels := e.cfg.Detail.Labels

	raw := RawOpportunity{DetailURL: page.Location()}
	if raw.DetailURL == "" {
		raw.DetailURL = entry.DetailLink
	}

	raw.ExternalID = Resolve(
		func() string { return entry.ExternalID },
		selectorText(scope, sel.ExternalID),
		func() string { return LabeledValue(scope, "Reference Number", "Solicitation Number", "Bid Number", "ID") },
		func() string { return urlNumericSuffix(raw.DetailURL) },
	)
	raw.ID = deriveRawID(raw.ExternalID, raw.DetailURL)

	raw.Title = Resolve(
		selectorText(scope, sel.Title),
		func() string { return entry.Title },
		func() string { return cleanText(page.Root().Find("h1").First().Text()) },
	)
	if raw.Title == "" {
		raw.Title = raw.ExternalID
	}

	raw.Description = Resolve(
		selectorHTML(scope, sel.Description),
		func() string { return LabeledValue(scope, "Description", "Summary", "Scope of Work") },
		func() string { return cleanText(scope.Find("p").First().Text()) },
	)
	if raw.Description == "" {
		raw.Description = raw.Title
	}

	raw.Status = Resolve(
		selectorText(scope, sel.Status),
		labelStrategy(scope, labels.Status, defaultStatusLabels),
	)
	if raw.Status == "" {
		raw.Status = StatusUnknown
	}

	raw.OpenDate = Resolve(labelStrategy(scope, labels.OpenDate, defaultOpenDateLabels))
	raw.CloseDate = Resolve(labelStrategy(scope, labels.CloseDate, defaultCloseDateLabels))
	if raw.OpenDate == "" && entry.RawDate != "" {
		raw.OpenDate = entry.RawDate
	}

	raw.Entity = Resolve(
		selectorText(scope, sel.Entity),
		labelStrategy(scope, labels.Entity, defaultEntityLabels),
	)
	raw.EntityCode = Resolve(labelStrategy(scope, labels.EntityCode, defaultEntityCodeLabels))
	raw.Amount = Resolve(labelStrategy(scope, labels.Amount, defaultAmountLabels))
	raw.AwardedTo = Resolve(labelStrategy(scope, labels.AwardedTo, defaultAwardedToLabels))
	raw.AwardAmount = Resolve(labelStrategy(scope, labels.AwardAmount, defaultAwardAmountLabels))
	raw.Note = Resolve(labelStrategy(scope, labels.Note, defaultNoteLabels))

	if v := Resolve(labelStrategy(scope, labels.Category, defaultCategoryLabels)); v != "" {
		raw.Categories = splitAndCleanList(v)
	}
	if v := Resolve(labelStrategy(scope, labels.Commodity, defaultCommodityLabels)); v != "" {
		raw.Commodities = splitAndCleanList(v)
	}

	raw.Contact = e.extractContact(scope, labels)

	if e.cfg.Detail.Tabs {
		raw.TabContent = HarvestTabs(ctx, page)
	}

	docs := e.extractDocuments(page, raw)
	return raw, docs
}

func (e *RecordExtractor) extractContact(scope *goquery.Selection, labels FieldLabels) RawContact {
	contact := RawContact{
		Name:  Resolve(labelStrategy(scope, labels.ContactName, defaultContactNameLabels)),
		Email: Resolve(labelStrategy(scope, labels.Email, defaultEmailLabels)),
		Phone: Resolve(labelStrategy(scope, labels.Phone, defaultPhoneLabels)),
	}

	// Pattern fallbacks over the whole scope text.
	text := scope.Text()
	if contact.Email == "" {
		contact.Email = emailRegex.FindString(text)
	} else if m := emailRegex.FindString(contact.Email); m != "" {
		contact.Email = m
	}
	if contact.Phone == "" {
		contact.Phone = phoneRegex.FindString(text)
	}

	// Free-text label capture often pulls the whole contact blob; the name
	// ends where the first email or phone begins.
	contact.Name = trimContactName(contact.Name)
	return contact
}

func trimContactName(name string) string {
	cut := len(name)
	if loc := emailRegex.FindStringIndex(name); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if loc := phoneRegex.FindStringIndex(name); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	return strings.Trim(name[:cut], " \t,;:|-(")
}

// extractDocuments harvests the attachment list. Document identity is
// content-addressed over the download URL so repeat visits converge.
func (e *RecordExtractor) extractDocuments(page Page, raw RawOpportunity) []RawDocument {
	cfg := e.cfg.Documents
	if cfg.Table == "" {
		return nil
	}
	scope := page.Root().Find(cfg.Table)
	if scope.Length() == 0 {
		return nil
	}

	linkSel := cfg.Link
	if linkSel == "" {
		linkSel = "a[href]"
	}
	linkAttr := cfg.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}

	base, _ := url.Parse(raw.DetailURL)
	seen := make(map[string]bool)
	var docs []RawDocument

	scope.Find(linkSel).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr(linkAttr, ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		abs := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				abs = base.ResolveReference(ref).String()
			}
		}
		if seen[abs] {
			return
		}
		seen[abs] = true

		name := cleanText(a.Text())
		if name == "" {
			name = fileNameFromURL(abs)
		}
		if name == "" {
			return
		}

		doc := RawDocument{
			ID:          deriveRawID(abs, raw.ID),
			FileName:    name,
			DownloadURL: abs,
			ParentID:    raw.ID,
		}
		if size := parseFileSize(a.Parent().Text()); size > 0 {
			doc.FileSizeBytes = &size
		}
		docs = append(docs, doc)
	})

	return docs
}

// labelStrategy wraps a LabeledValue lookup with its candidate label list,
// config labels first when present.
func labelStrategy(scope *goquery.Selection, configured, defaults []string) Strategy {
	labels := configured
	if len(labels) == 0 {
		labels = defaults
	}
	return func() string { return LabeledValue(scope, labels...) }
}

func selectorText(scope *goquery.Selection, selector string) Strategy {
	return func() string {
		if selector == "" {
			return ""
		}
		return cleanText(scope.Find(selector).First().Text())
	}
}

func selectorHTML(scope *goquery.Selection, selector string) Strategy {
	return func() string {
		if selector == "" {
			return ""
		}
		h, err := scope.Find(selector).First().Html()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(h)
	}
}

// deriveRawID hashes the stable key plus the detail URL so the same record
// gets the same raw id on every visit.
func deriveRawID(key, detailURL string) string {
	if key == "" {
		key = detailURL
	}
	sum := sha1.Sum([]byte(key + "|" + detailURL))
	return hex.EncodeToString(sum[:])
}

// urlNumericSuffix recovers a numeric identifier from the tail of a URL
// path, the last-resort external id.
func urlNumericSuffix(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if m := urlNumberRegex.FindStringSubmatch(strings.TrimSuffix(u.Path, "/")); len(m) == 2 {
		return m[1]
	}
	return ""
}

func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

func parseFileSize(text string) int64 {
	m := fileSizeRegex.FindStringSubmatch(text)
	if len(m) != 3 {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(m[2]) {
	case "KB":
		value *= 1 << 10
	case "MB":
		value *= 1 << 20
	case "GB":
		value *= 1 << 30
	}
	return int64(value)
}

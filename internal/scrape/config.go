package scrape

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all collection sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig defines the HTTP politeness envelope for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"`
	MaxRetries     int     `yaml:"max_retries,omitempty"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`
	ItemDelayMs    int     `yaml:"item_delay_ms,omitempty"` // pause between detail visits
	PageDelayMs    int     `yaml:"page_delay_ms,omitempty"` // pause between listing pages
}

// SourceConfig is the immutable per-source configuration handed to the
// collection controller and record extractor at construction. Nothing here
// is read from ambient/global state at run time.
type SourceConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`

	// ListingURL is a template containing {page}, substituted with the
	// 1-based page number.
	ListingURL string `yaml:"listing_url"`
	PageSize   int    `yaml:"page_size,omitempty"`
	MaxPages   int    `yaml:"max_pages,omitempty"`

	// OrderedByDate asserts the listing returns items in descending date
	// order. Only then may the controller stop paginating early once an
	// item falls before the requested window.
	OrderedByDate bool `yaml:"ordered_by_date,omitempty"`

	Fetch     FetchConfig     `yaml:"fetch,omitempty"`
	Listing   ListingConfig   `yaml:"listing,omitempty"`
	Detail    DetailConfig    `yaml:"detail,omitempty"`
	Documents DocumentsConfig `yaml:"documents,omitempty"`
}

// ListingConfig selects the entry fields out of a listing page.
type ListingConfig struct {
	Row        string `yaml:"row"`
	Title      string `yaml:"title,omitempty"`
	Link       string `yaml:"link,omitempty"`
	LinkAttr   string `yaml:"link_attr,omitempty"` // default: href
	Date       string `yaml:"date,omitempty"`
	ExternalID string `yaml:"external_id,omitempty"` // selector or data attribute
	IDAttr     string `yaml:"id_attr,omitempty"`
}

// FieldLabels are the per-field candidate label lists tried by the labeled
// value extractor, in preference order. Empty lists fall back to built-in
// defaults.
type FieldLabels struct {
	OpenDate    []string `yaml:"open_date,omitempty"`
	CloseDate   []string `yaml:"close_date,omitempty"`
	Status      []string `yaml:"status,omitempty"`
	Entity      []string `yaml:"entity,omitempty"`
	EntityCode  []string `yaml:"entity_code,omitempty"`
	Amount      []string `yaml:"amount,omitempty"`
	ContactName []string `yaml:"contact_name,omitempty"`
	Email       []string `yaml:"email,omitempty"`
	Phone       []string `yaml:"phone,omitempty"`
	Category    []string `yaml:"category,omitempty"`
	Commodity   []string `yaml:"commodity,omitempty"`
	AwardedTo   []string `yaml:"awarded_to,omitempty"`
	AwardAmount []string `yaml:"award_amount,omitempty"`
	Note        []string `yaml:"note,omitempty"`
}

// FieldSelectors are optional source-specific CSS selectors tried before
// the generic label fallbacks.
type FieldSelectors struct {
	Container   string `yaml:"container,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Status      string `yaml:"status,omitempty"`
	ExternalID  string `yaml:"external_id,omitempty"`
	Entity      string `yaml:"entity,omitempty"`
}

// DetailConfig drives record extraction on detail pages.
type DetailConfig struct {
	Selectors FieldSelectors `yaml:"selectors,omitempty"`
	Labels    FieldLabels    `yaml:"labels,omitempty"`
	Tabs      bool           `yaml:"tabs,omitempty"` // harvest tabbed content
}

// DocumentsConfig locates the attachment list on a detail page.
type DocumentsConfig struct {
	Table    string `yaml:"table,omitempty"` // table-like scope
	Link     string `yaml:"link,omitempty"`  // anchor selector inside the scope
	LinkAttr string `yaml:"link_attr,omitempty"`
	Download bool   `yaml:"download,omitempty"` // fetch the files, not just the metadata
}

// LoadRegistry reads the embedded sources.yaml, falling back to the given
// path for local development. Environment variables in the YAML (e.g.
// ${API_KEY}) are expanded before parsing.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load source registry: %w", err)
		}
	}

	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("parse source registry: %w", err)
	}
	return &reg, nil
}

// Find returns the source with the given id.
func (r *Registry) Find(id string) (*SourceConfig, error) {
	for i := range r.Sources {
		if r.Sources[i].ID == id {
			return &r.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("source id %q not found in registry", id)
}

// PageURL substitutes the 1-based page number into the listing template.
func (c *SourceConfig) PageURL(page int) string {
	return strings.ReplaceAll(c.ListingURL, "{page}", fmt.Sprintf("%d", page))
}

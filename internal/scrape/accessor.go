package scrape

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher retrieves one document body. Implementations own politeness
// and retry policy; callers sequence requests.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StaticAccessor backs the Accessor capability with plain fetched HTML.
// Sources that render server-side need nothing more; tab panels are already
// present in the DOM, so Click only verifies the target exists.
type StaticAccessor struct {
	Fetcher PageFetcher
}

func NewStaticAccessor(fetcher PageFetcher) *StaticAccessor {
	return &StaticAccessor{Fetcher: fetcher}
}

func (a *StaticAccessor) Open(ctx context.Context, url string) (Page, error) {
	body, err := a.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return &staticPage{doc: doc, url: url}, nil
}

type staticPage struct {
	doc *goquery.Document
	url string
}

func (p *staticPage) Root() *goquery.Selection {
	return p.doc.Selection
}

func (p *staticPage) Click(selector string) error {
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("click: no element matches %q", selector)
	}
	return nil
}

func (p *staticPage) WaitIdle(ctx context.Context) error {
	return ctx.Err()
}

func (p *staticPage) Location() string {
	return p.url
}

// ParsePage builds a Page from in-memory HTML. Used by tests and by batch
// re-processing paths that already hold the body.
func ParsePage(url, html string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return &staticPage{doc: doc, url: url}, nil
}

package scrape

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// BatchSink receives one page's worth of collected items. Implementations
// assign batch numbers and guarantee written batches are never mutated.
type BatchSink interface {
	WriteBatch(sourceURL string, items []Item) (int, error)
}

// Stats summarizes one collection run.
type Stats struct {
	PagesFetched   int `json:"pages_fetched"`
	ItemsSeen      int `json:"items_seen"`
	ItemsAdmitted  int `json:"items_admitted"`
	ItemsSkipped   int `json:"items_skipped"`
	ItemErrors     int `json:"item_errors"`
	DocumentsFound int `json:"documents_found"`
	BatchesWritten int `json:"batches_written"`
}

// Collector walks a paginated listing source, applies the date-window
// admission test per item, visits admitted detail pages sequentially and
// hands each completed page to the batch sink. All dependencies are fixed
// at construction; nothing is read from global state.
type Collector struct {
	cfg        SourceConfig
	accessor   Accessor
	extractor  *RecordExtractor
	downloader *Downloader
	sink       BatchSink
	window     DateWindow
}

func NewCollector(cfg SourceConfig, accessor Accessor, sink BatchSink, window DateWindow, downloader *Downloader) *Collector {
	return &Collector{
		cfg:        cfg,
		accessor:   accessor,
		extractor:  NewRecordExtractor(cfg),
		downloader: downloader,
		sink:       sink,
		window:     window,
	}
}

// Run drives the page state machine: fetch page, filter by date, continue
// or stop. With ordered_by_date set, the first item strictly before the
// window start stops the whole run; otherwise every page is scanned until
// a short page or the page cap. Items with unparseable dates are skipped
// without influencing the stop decision.
func (c *Collector) Run(ctx context.Context) (Stats, error) {
	stats := Stats{}
	maxPages := c.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	itemDelay := time.Duration(c.cfg.Fetch.ItemDelayMs) * time.Millisecond
	pageDelay := time.Duration(c.cfg.Fetch.PageDelayMs) * time.Millisecond

	log.Printf("[%s] collecting window %s..%s",
		c.cfg.ID, c.window.From.Format("2006-01-02"), c.window.To.Format("2006-01-02"))

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		pageURL := c.cfg.PageURL(pageNum)
		page, err := c.accessor.Open(ctx, pageURL)
		if err != nil {
			if pageNum == 1 {
				return stats, fmt.Errorf("[%s] listing page 1: %w", c.cfg.ID, err)
			}
			log.Printf("[%s] listing page %d failed, stopping: %v", c.cfg.ID, pageNum, err)
			break
		}
		stats.PagesFetched++

		entries := c.parseEntries(page, pageNum)
		log.Printf("[%s] page %d: %d entries", c.cfg.ID, pageNum, len(entries))
		if len(entries) == 0 {
			break
		}

		items, pageStats, stop := c.processEntries(ctx, entries, itemDelay)
		stats.ItemsSeen += pageStats.ItemsSeen
		stats.ItemsAdmitted += pageStats.ItemsAdmitted
		stats.ItemsSkipped += pageStats.ItemsSkipped
		stats.ItemErrors += pageStats.ItemErrors
		stats.DocumentsFound += pageStats.DocumentsFound

		if len(items) > 0 {
			batchNum, err := c.sink.WriteBatch(pageURL, items)
			if err != nil {
				return stats, fmt.Errorf("[%s] write batch for page %d: %w", c.cfg.ID, pageNum, err)
			}
			stats.BatchesWritten++
			log.Printf("[%s] page %d: wrote batch %d (%d items)", c.cfg.ID, pageNum, batchNum, len(items))
		}

		if stop {
			log.Printf("[%s] date window passed on page %d, stopping", c.cfg.ID, pageNum)
			break
		}
		if c.cfg.PageSize > 0 && len(entries) < c.cfg.PageSize {
			break
		}
		if pageNum < maxPages {
			if err := sleepCtx(ctx, pageDelay); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}

// processEntries applies the admission test and visits admitted details.
// The returned stop flag is only ever set for ordered sources.
func (c *Collector) processEntries(ctx context.Context, entries []ListingEntry, delay time.Duration) ([]Item, Stats, bool) {
	var items []Item
	stats := Stats{}
	stop := false

	for _, entry := range entries {
		stats.ItemsSeen++

		entryDate, ok := ParseFlexibleDate(entry.RawDate)
		if !ok {
			// No date: excluded, but never a stop signal.
			stats.ItemsSkipped++
			continue
		}
		if c.window.StrictlyBefore(entryDate) {
			stats.ItemsSkipped++
			if c.cfg.OrderedByDate {
				stop = true
				break
			}
			continue
		}
		if !c.window.Contains(entryDate) {
			stats.ItemsSkipped++
			continue
		}

		if err := sleepCtx(ctx, delay); err != nil {
			return items, stats, stop
		}

		item, err := c.collectDetail(ctx, entry)
		if err != nil {
			// One bad detail page never ends the run.
			log.Printf("[%s] item %q failed: %v", c.cfg.ID, entry.DetailLink, err)
			stats.ItemErrors++
			continue
		}
		stats.ItemsAdmitted++
		stats.DocumentsFound += len(item.Documents)
		items = append(items, item)
	}

	return items, stats, stop
}

func (c *Collector) collectDetail(ctx context.Context, entry ListingEntry) (Item, error) {
	page, err := c.accessor.Open(ctx, entry.DetailLink)
	if err != nil {
		return Item{}, err
	}

	raw, docs := c.extractor.Extract(ctx, page, entry)
	if c.downloader != nil && c.cfg.Documents.Download {
		docs = c.downloader.FetchAll(ctx, docs)
	}
	return Item{Opportunity: raw, Documents: docs}, nil
}

// parseEntries decodes the listing rows of a page into ephemeral entries.
func (c *Collector) parseEntries(page Page, pageNum int) []ListingEntry {
	sel := c.cfg.Listing
	if sel.Row == "" {
		return nil
	}
	base, _ := url.Parse(page.Location())

	linkAttr := sel.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}

	var entries []ListingEntry
	page.Root().Find(sel.Row).Each(func(i int, row *goquery.Selection) {
		entry := ListingEntry{PageNumber: pageNum, Ordinal: i}

		entry.Title = Resolve(
			selectorText(row, sel.Title),
			func() string { return cleanText(row.Find("a").First().Text()) },
		)

		link := ""
		if sel.Link == "" || sel.Link == "." {
			link = row.AttrOr(linkAttr, "")
		} else {
			link = row.Find(sel.Link).First().AttrOr(linkAttr, "")
		}
		link = cleanText(link)
		if link == "" || entry.Title == "" {
			return
		}
		if base != nil {
			if ref, err := url.Parse(link); err == nil {
				link = base.ResolveReference(ref).String()
			}
		}
		entry.DetailLink = link

		entry.RawDate = Resolve(selectorText(row, sel.Date))
		if sel.ExternalID != "" {
			entry.ExternalID = Resolve(
				selectorText(row, sel.ExternalID),
				func() string {
					if sel.IDAttr == "" {
						return ""
					}
					return cleanText(row.AttrOr(sel.IDAttr, ""))
				},
			)
		}

		entries = append(entries, entry)
	})
	return entries
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

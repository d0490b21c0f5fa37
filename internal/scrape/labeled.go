package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LabeledValue locates the value associated with one of the candidate
// labels inside scope. Strategies run in order: (1) tabular decode of the
// tables and definition lists in scope, matching labels against row keys and
// inferred headers; (2) a free-text scan over elements whose text contains
// the label, reading the trailing text after the label, the adjacent
// sibling, or the parent's text minus the label. The first non-empty match
// wins; within a strategy, earlier labels are preferred. The label text
// itself is never returned as a value.
func LabeledValue(scope *goquery.Selection, labels ...string) string {
	if scope == nil || scope.Length() == 0 || len(labels) == 0 {
		return ""
	}

	if v := labeledFromTables(scope, labels); v != "" {
		return v
	}
	return labeledFromText(scope, labels)
}

func labeledFromTables(scope *goquery.Selection, labels []string) string {
	// Row-keyed tables: the first cell names the field.
	var found string
	scope.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return true
		}
		key := cleanText(cells.First().Text())
		if key == "" {
			return true
		}
		for _, label := range labels {
			if !headerMatches(key, label) {
				continue
			}
			cells.Slice(1, cells.Length()).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
				v := cleanText(cell.Text())
				if v != "" && !isLabelEcho(v, labels) {
					found = v
					return false
				}
				return true
			})
			if found != "" {
				return false
			}
		}
		return true
	})
	if found != "" {
		return found
	}

	// Definition lists: dt names the field, the following dd holds it.
	scope.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		key := cleanText(dt.Text())
		for _, label := range labels {
			if !headerMatches(key, label) {
				continue
			}
			v := cleanText(dt.NextFiltered("dd").Text())
			if v != "" && !isLabelEcho(v, labels) {
				found = v
				return false
			}
		}
		return true
	})
	if found != "" {
		return found
	}

	// Column-keyed tables: label matches an inferred header.
	scope.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		if tbl.Find("th").Length() == 0 {
			return true
		}
		decoded := DecodeTable(tbl)
		if v := decoded.Lookup(labels); v != "" && !isLabelEcho(v, labels) {
			found = v
			return false
		}
		return true
	})
	return found
}

func labeledFromText(scope *goquery.Selection, labels []string) string {
	for _, label := range labels {
		var found string
		lowLabel := strings.ToLower(label)
		scope.Find("p, li, div, span, td, th, dt, strong, b, label, h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := cleanText(sel.Text())
			if text == "" || len(text) > 400 {
				return true
			}
			if !strings.Contains(strings.ToLower(text), lowLabel) {
				return true
			}

			// Trailing text after the label inside the same element.
			if v := trailingAfterLabel(text, label); v != "" && !isLabelEcho(v, labels) {
				found = v
				return false
			}

			// The element is only the label: try the adjacent sibling,
			// then the parent's text minus the label.
			if v := cleanText(sel.Next().Text()); v != "" && !isLabelEcho(v, labels) {
				found = v
				return false
			}
			parent := cleanText(sel.Parent().Text())
			if v := trailingAfterLabel(parent, label); v != "" && !isLabelEcho(v, labels) {
				found = v
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// isLabelEcho guards against returning a label (this one or a sibling
// candidate) as if it were a value.
func isLabelEcho(v string, labels []string) bool {
	for _, label := range labels {
		if strings.EqualFold(cleanText(v), cleanText(label)) {
			return true
		}
	}
	return false
}

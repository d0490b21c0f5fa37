package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StructuredText flattens a scope into text that keeps table structure
// legible: plain body text first, then one line per table row in
// "key: value | value" form. Label-bearing short elements get their
// adjacent value appended so later free-text scans see the pair together.
func StructuredText(scope *goquery.Selection) string {
	if scope == nil || scope.Length() == 0 {
		return ""
	}

	parts := make([]string, 0, 32)
	if body := cleanText(scope.Text()); body != "" {
		parts = append(parts, body)
	}

	scope.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := make([]string, 0, 4)
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			if v := cleanText(cell.Text()); v != "" {
				cells = append(cells, v)
			}
		})
		switch {
		case len(cells) == 0:
		case len(cells) == 1:
			parts = append(parts, cells[0])
		default:
			parts = append(parts, cells[0]+": "+strings.Join(cells[1:], " | "))
		}
	})

	scope.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		key := cleanText(dt.Text())
		value := cleanText(dt.NextFiltered("dd").Text())
		if key != "" && value != "" {
			parts = append(parts, key+": "+value)
		}
	})

	return strings.Join(parts, "\n")
}

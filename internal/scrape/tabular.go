package scrape

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Table is the decoded form of one table-like scope: inferred headers in
// document order plus one record per surviving data row.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// DecodeTable decodes a table-like selection into records keyed by inferred
// header. Headers come from header cells when present; otherwise the first
// data row is promoted to headers, with blank cells named column_N. A row is
// discarded only when every one of its cells is empty.
func DecodeTable(tbl *goquery.Selection) *Table {
	if tbl == nil || tbl.Length() == 0 {
		return nil
	}

	rows := tbl.Find("tr")
	if rows.Length() == 0 {
		return nil
	}

	var headers []string
	dataStart := 0

	headerCells := rows.First().Find("th")
	if headerCells.Length() > 0 {
		headers = inferHeaders(headerCells)
		dataStart = 1
	} else {
		// No header row: promote the first data row's text.
		headers = inferHeaders(rows.First().Find("td"))
		dataStart = 1
	}
	if len(headers) == 0 {
		return nil
	}

	out := &Table{Headers: headers}
	rows.Each(func(i int, row *goquery.Selection) {
		if i < dataStart {
			return
		}
		cells := row.Find("td, th")
		if cells.Length() == 0 {
			return
		}
		record := make(map[string]string, len(headers))
		empty := true
		cells.Each(func(j int, cell *goquery.Selection) {
			value := cleanText(cell.Text())
			if value != "" {
				empty = false
			}
			record[headerFor(headers, j)] = value
		})
		if empty {
			return
		}
		out.Rows = append(out.Rows, record)
	})

	return out
}

func inferHeaders(cells *goquery.Selection) []string {
	headers := make([]string, 0, cells.Length())
	cells.Each(func(i int, cell *goquery.Selection) {
		name := normalizeHeader(cell.Text())
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		headers = append(headers, name)
	})
	return headers
}

func headerFor(headers []string, idx int) string {
	if idx < len(headers) {
		return headers[idx]
	}
	return fmt.Sprintf("column_%d", idx+1)
}

// Lookup returns the first value stored under a header matching any of the
// candidate labels, scanning rows in order. Label order is the tie-break
// when several labels match inside the same row.
func (t *Table) Lookup(labels []string) string {
	if t == nil {
		return ""
	}
	for _, row := range t.Rows {
		for _, label := range labels {
			for _, header := range t.Headers {
				if !headerMatches(header, label) {
					continue
				}
				if v := row[header]; v != "" {
					return v
				}
			}
		}
	}
	return ""
}

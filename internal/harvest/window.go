package harvest

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgomez/bid-harvester/internal/scrape"
)

// Today returns the single-day window for the current UTC day.
func Today(now time.Time) scrape.DateWindow {
	u := now.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return scrape.DateWindow{From: d, To: d}
}

// ParseWindow parses a "YYYY-MM-DD,YYYY-MM-DD" range. Both ends are
// required and from must not come after to.
func ParseWindow(s string) (scrape.DateWindow, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return scrape.DateWindow{}, fmt.Errorf("date range must be YYYY-MM-DD,YYYY-MM-DD, got %q", s)
	}
	from, err := time.Parse("2006-01-02", strings.TrimSpace(parts[0]))
	if err != nil {
		return scrape.DateWindow{}, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(parts[1]))
	if err != nil {
		return scrape.DateWindow{}, fmt.Errorf("invalid range end %q: %w", parts[1], err)
	}
	if from.After(to) {
		return scrape.DateWindow{}, fmt.Errorf("range start %s is after end %s", parts[0], parts[1])
	}
	return scrape.DateWindow{From: from.UTC(), To: to.UTC()}, nil
}

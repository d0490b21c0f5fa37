package scrape

import (
	"regexp"
	"strings"
	"time"
)

// DateWindow is a closed UTC day range used as the admission test during
// collection.
type DateWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window, inclusive on both
// ends, comparing at day granularity.
func (w DateWindow) Contains(t time.Time) bool {
	d := dayOf(t)
	return !d.Before(dayOf(w.From)) && !d.After(dayOf(w.To))
}

// StrictlyBefore reports whether t falls strictly before the window start.
// Under a descending-date listing this is the pagination stop signal.
func (w DateWindow) StrictlyBefore(t time.Time) bool {
	return dayOf(t).Before(dayOf(w.From))
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

var dateCleanPrefixes = []string{
	"posted:", "posted on", "open date:", "close date:", "closing date:",
	"due date:", "deadline:", "date:", "published:",
}

var (
	isoDateRegex   = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	slashDateRegex = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(20\d{2})\b`)
	longDateRegex  = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+(\d{1,2}),?\s+(20\d{2})\b`)
)

// ParseFlexibleDate recovers a date from source-dependent text. It tries
// ISO forms first, then locale numeric forms, then long text forms, and
// reports ok=false on total failure — it never panics and never guesses a
// zero time into the result.
func ParseFlexibleDate(text string) (time.Time, bool) {
	text = cleanDateString(text)
	if text == "" {
		return time.Time{}, false
	}

	// ISO, the most reliable.
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.UTC(), true
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}

	// Locale numeric.
	for _, layout := range []string{"1/2/2006", "01/02/2006", "1/2/2006 3:04 PM", "2006/01/02"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}

	// Long text.
	for _, layout := range []string{
		"January 2, 2006", "Jan 2, 2006", "2 January 2006", "2 Jan 2006",
		"January 2, 2006 3:04 PM", "Jan 2, 2006 3:04 PM MST",
		"Monday, January 2, 2006",
	} {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}

	// Fall back to scanning for an embedded date.
	if m := isoDateRegex.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t.UTC(), true
		}
	}
	if m := slashDateRegex.FindStringSubmatch(text); len(m) == 4 {
		if t, err := time.Parse("1/2/2006", m[1]+"/"+m[2]+"/"+m[3]); err == nil {
			return t.UTC(), true
		}
	}
	if m := longDateRegex.FindStringSubmatch(text); len(m) == 4 {
		candidate := strings.TrimSuffix(m[1], ".") + " " + m[2] + ", " + m[3]
		for _, layout := range []string{"January 2, 2006", "Jan 2, 2006"} {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t.UTC(), true
			}
		}
	}

	return time.Time{}, false
}

// cleanDateString strips common field prefixes and normalizes am/pm noise.
func cleanDateString(s string) string {
	s = cleanText(s)
	low := strings.ToLower(s)
	for _, p := range dateCleanPrefixes {
		if idx := strings.Index(low, p); idx != -1 {
			s = s[idx+len(p):]
			low = strings.ToLower(s)
		}
	}
	s = strings.ReplaceAll(s, "a.m.", "AM")
	s = strings.ReplaceAll(s, "p.m.", "PM")
	return strings.TrimSpace(s)
}

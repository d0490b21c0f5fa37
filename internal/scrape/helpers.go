package scrape

import (
	"strings"
)

// cleanText collapses runs of whitespace into single spaces and trims.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeHeader lower-cases a header/label and turns whitespace runs into
// underscores. The same vocabulary is used for header inference and for
// label matching so tabular and labeled lookups agree.
func normalizeHeader(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, "_")
}

// headerMatches reports whether a normalized header matches a candidate
// label, case-insensitively and by substring in either direction.
func headerMatches(header, label string) bool {
	h := normalizeHeader(header)
	l := normalizeHeader(label)
	if h == "" || l == "" {
		return false
	}
	return h == l || strings.Contains(h, l) || strings.Contains(l, h)
}

// appendUnique appends v unless an equal-fold entry already exists.
func appendUnique(list []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, v) {
			return list
		}
	}
	return append(list, v)
}

// splitAndCleanList splits a free-text block into trimmed list entries,
// dropping bullets, numbering and duplicates.
func splitAndCleanList(block string) []string {
	block = strings.ReplaceAll(block, "\r\n", "\n")
	block = strings.ReplaceAll(block, "\r", "\n")
	block = strings.ReplaceAll(block, ";", "\n")

	var out []string
	for _, raw := range strings.Split(block, "\n") {
		s := strings.TrimSpace(raw)
		s = strings.TrimLeft(s, " \t-*•–—")
		s = cleanText(s)
		if s == "" {
			continue
		}
		out = appendUnique(out, s)
	}
	return out
}

// trailingAfterLabel returns the text that follows the first occurrence of
// label inside text, with separators stripped. Empty when the label is the
// entire text or is absent.
func trailingAfterLabel(text, label string) string {
	lowText := strings.ToLower(text)
	lowLabel := strings.ToLower(label)
	idx := strings.Index(lowText, lowLabel)
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(label):]
	rest = strings.TrimLeft(rest, " \t:–—-")
	return cleanText(rest)
}

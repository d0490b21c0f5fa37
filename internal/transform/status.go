package transform

import "strings"

// statusSynonyms maps source status wordings to the canonical vocabulary.
var statusSynonyms = map[string]string{
	"open":      "open",
	"active":    "open",
	"posted":    "open",
	"available": "open",
	"closed":    "closed",
	"expired":   "closed",
	"ended":     "closed",
	"awarded":   "awarded",
	"completed": "awarded",
	"cancelled": "cancelled",
	"canceled":  "cancelled",
}

// NormalizeStatus collapses a raw status string to the canonical set.
// A wording with no mapping passes through trimmed, so unfamiliar source
// states stay visible instead of being silently discarded.
func NormalizeStatus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if mapped, ok := statusSynonyms[strings.ToLower(trimmed)]; ok {
		return mapped
	}
	return trimmed
}

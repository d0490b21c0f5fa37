package scrape

import "strings"

// Strategy is one way of acquiring a field value. An empty result is an
// expected miss, not an error.
type Strategy func() string

// Resolve evaluates strategies strictly in order and returns the first
// non-empty result. A strategy that panics (bad selector, nil element) is
// treated as a miss so one broken acquisition path never aborts extraction
// of the rest of the record. Resolve() with no strategies returns "".
func Resolve(strategies ...Strategy) string {
	for _, strategy := range strategies {
		if strategy == nil {
			continue
		}
		if v := runStrategy(strategy); v != "" {
			return v
		}
	}
	return ""
}

func runStrategy(strategy Strategy) (result string) {
	defer func() {
		if recover() != nil {
			result = ""
		}
	}()
	return strings.TrimSpace(strategy())
}

// FirstOf builds a literal-fallback strategy chain from already-computed
// candidates, in the order given.
func FirstOf(candidates ...string) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(c); v != "" {
			return v
		}
	}
	return ""
}

package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var moneyRegex = regexp.MustCompile(`(\$)?\s*([\d][\d,]*(?:\.\d+)?)\s*([kKmMbB])?`)

// ParseMoney extracts a whole-dollar amount from free text. The first
// number carrying a currency marker (a dollar sign or a K/M/B suffix)
// wins, so a range like "$1M - $5M" yields its lower bound and incidental
// numbers in the surrounding text ("Phase 2", a year) are passed over. A
// bare number only counts when the text has no marked amount at all.
// Fractions of a dollar round to the nearest whole dollar. Text with no
// usable number returns ok=false.
func ParseMoney(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	var bare int64
	haveBare := false
	for _, m := range moneyRegex.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[2], ",", "")
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil || val <= 0 {
			continue
		}
		suffix := strings.ToLower(m[3])
		switch suffix {
		case "k":
			val *= 1_000
		case "m":
			val *= 1_000_000
		case "b":
			val *= 1_000_000_000
		}
		if m[1] == "$" || suffix != "" {
			return int64(math.Round(val)), true
		}
		if !haveBare {
			bare = int64(math.Round(val))
			haveBare = true
		}
	}
	return bare, haveBare
}

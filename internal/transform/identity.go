package transform

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
)

// EntityID derives a stable hex identifier from a source name and a
// natural key. The same inputs always produce the same ID, which is what
// makes re-running a transform idempotent.
func EntityID(source, naturalKey string) string {
	sum := sha1.Sum([]byte(source + "|" + strings.TrimSpace(naturalKey)))
	return hex.EncodeToString(sum[:])
}

var nonDigitRegex = regexp.MustCompile(`\D`)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips a phone number to bare digits.
func NormalizePhone(phone string) string {
	return nonDigitRegex.ReplaceAllString(phone, "")
}

// personKey picks the natural key for a contact: email when present,
// otherwise the name. Two records with the same email are the same person
// no matter how the name was spelled.
func personKey(name, email string) string {
	if e := NormalizeEmail(email); e != "" {
		return "person:" + e
	}
	return "person:" + strings.ToLower(strings.TrimSpace(name))
}

// agencyKey prefers the agency code over the display name.
func agencyKey(name, code string) string {
	if c := strings.TrimSpace(code); c != "" {
		return "agency:" + strings.ToLower(c)
	}
	return "agency:" + strings.ToLower(strings.TrimSpace(name))
}

// documentKey prefers the download URL; raw-layer IDs only back it up
// when the URL is absent.
func documentKey(downloadURL, rawID string) string {
	if u := strings.TrimSpace(downloadURL); u != "" {
		return "document:" + u
	}
	return "document:" + rawID
}

func contractKey(externalID, detailURL string) string {
	if id := strings.TrimSpace(externalID); id != "" {
		return "contract:" + id
	}
	return "contract:" + detailURL
}

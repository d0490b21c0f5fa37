package harvest

import (
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2024-01-01,2024-01-05")
	if err != nil {
		t.Fatalf("ParseWindow: %v", err)
	}
	if w.From.Format("2006-01-02") != "2024-01-01" || w.To.Format("2006-01-02") != "2024-01-05" {
		t.Errorf("window = %v..%v", w.From, w.To)
	}

	bad := []string{"", "2024-01-01", "2024-01-05,2024-01-01", "notadate,2024-01-01", "2024-01-01,notadate"}
	for _, s := range bad {
		if _, err := ParseWindow(s); err == nil {
			t.Errorf("ParseWindow(%q) accepted invalid input", s)
		}
	}
}

func TestYesterday(t *testing.T) {
	now := time.Date(2024, 1, 6, 3, 30, 0, 0, time.UTC)
	w := Yesterday(now)
	if w.From.Format("2006-01-02") != "2024-01-05" || !w.From.Equal(w.To) {
		t.Errorf("yesterday window = %v..%v", w.From, w.To)
	}
}

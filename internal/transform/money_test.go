package transform

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
		ok   bool
	}{
		{"plain dollars", "$1,234.56", 1235, true},
		{"range keeps lower bound", "$1M - $5M", 1000000, true},
		{"thousands suffix", "$250K", 250000, true},
		{"billions suffix", "$1.5B", 1500000000, true},
		{"up to phrasing", "up to $40,000", 40000, true},
		{"bare number", "75000", 75000, true},
		{"leading phase number", "Phase 2: $500K", 500000, true},
		{"trailing year after range", "$1M - $5M (revised 2024)", 1000000, true},
		{"item count before amount", "3 awards of $25,000 each", 25000, true},
		{"no number", "TBD", 0, false},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMoney(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseMoney(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseMoney(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

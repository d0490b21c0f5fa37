package scrape

import (
	"testing"
	"time"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		in   string
		want string // yyyy-mm-dd, empty means unparseable
	}{
		{"2024-01-05", "2024-01-05"},
		{"2024-01-05T14:30:00Z", "2024-01-05"},
		{"1/5/2024", "2024-01-05"},
		{"01/30/2024", "2024-01-30"},
		{"January 2, 2024", "2024-01-02"},
		{"Jan 2, 2024", "2024-01-02"},
		{"2 January 2024", "2024-01-02"},
		{"Posted: 1/5/2024", "2024-01-05"},
		{"Due Date: Jan 5, 2024 2:00 p.m.", "2024-01-05"},
		{"Closes on December 31, 2023 at noon", "2023-12-31"},
		{"TBD", ""},
		{"", ""},
		{"see attachment", ""},
	}
	for _, tt := range tests {
		got, ok := ParseFlexibleDate(tt.in)
		if tt.want == "" {
			if ok {
				t.Errorf("ParseFlexibleDate(%q) = %v, want miss", tt.in, got)
			}
			continue
		}
		if !ok {
			t.Errorf("ParseFlexibleDate(%q) failed, want %s", tt.in, tt.want)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseFlexibleDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestDateWindow(t *testing.T) {
	w := DateWindow{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	if !w.Contains(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)) {
		t.Error("window start day should be included")
	}
	if !w.Contains(time.Date(2024, 1, 5, 0, 0, 1, 0, time.UTC)) {
		t.Error("window end day should be included")
	}
	if w.Contains(time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)) {
		t.Error("day before window should be excluded")
	}
	if w.Contains(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Error("day after window should be excluded")
	}

	if !w.StrictlyBefore(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)) {
		t.Error("2023-12-31 is strictly before the window")
	}
	if w.StrictlyBefore(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("window start is not strictly before")
	}
	if w.StrictlyBefore(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Error("day after the window is not strictly before")
	}
}

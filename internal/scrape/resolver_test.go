package scrape

import "testing"

func TestResolveOrderAndRecovery(t *testing.T) {
	tests := []struct {
		name       string
		strategies []Strategy
		want       string
	}{
		{
			name: "first non-empty wins",
			strategies: []Strategy{
				func() string { return "" },
				func() string { return "second" },
				func() string { return "third" },
			},
			want: "second",
		},
		{
			name: "panic is a miss",
			strategies: []Strategy{
				func() string { panic("bad selector") },
				func() string { return "fallback" },
			},
			want: "fallback",
		},
		{
			name: "whitespace is a miss",
			strategies: []Strategy{
				func() string { return "   " },
				func() string { return "value" },
			},
			want: "value",
		},
		{
			name:       "nil strategy skipped",
			strategies: []Strategy{nil, func() string { return "ok" }},
			want:       "ok",
		},
		{
			name:       "all empty",
			strategies: []Strategy{func() string { return "" }},
			want:       "",
		},
		{
			name:       "no strategies",
			strategies: nil,
			want:       "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.strategies...); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstOf(t *testing.T) {
	if got := FirstOf("", "  ", "x", "y"); got != "x" {
		t.Errorf("FirstOf = %q, want x", got)
	}
	if got := FirstOf(); got != "" {
		t.Errorf("FirstOf() = %q, want empty", got)
	}
}

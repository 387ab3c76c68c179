package calendar

import "testing"

func TestParseNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{name: "thousands suffix", in: "1.2K", want: 1200, ok: true},
		{name: "millions suffix", in: "2.5M", want: 2.5e6, ok: true},
		{name: "billions suffix", in: "0.3B", want: 3e8, ok: true},
		{name: "comma separator", in: "3,400", want: 3400, ok: true},
		{name: "percent", in: "0.4%", want: 0.4, ok: true},
		{name: "negative percent", in: "-0.2%", want: -0.2, ok: true},
		{name: "plain", in: "215", want: 215, ok: true},
		{name: "whitespace", in: "  4.1 ", want: 4.1, ok: true},
		{name: "no data sentinel", in: "-", ok: false},
		{name: "empty", in: "", ok: false},
		{name: "text", in: "Tentative", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseNumberSuffixPriority(t *testing.T) {
	t.Parallel()
	// Only the first matching suffix (K before M before B) is applied.
	got, ok := ParseNumber("1KM")
	if ok {
		t.Fatalf("expected parse failure for %q, got %v", "1KM", got)
	}
	got, ok = ParseNumber("250K")
	if !ok || got != 250000 {
		t.Fatalf("ParseNumber(250K) = %v/%v, want 250000/true", got, ok)
	}
}

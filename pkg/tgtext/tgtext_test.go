package tgtext

import "testing"

func TestEsc(t *testing.T) {
	t.Parallel()

	if got := Esc("a < b & c").String(); got != "a &lt; b &amp; c" {
		t.Fatalf("Esc = %q", got)
	}
	if got := B("x<y").String(); got != "<b>x&lt;y</b>" {
		t.Fatalf("B = %q", got)
	}
}

func TestLinesSkipsBlanks(t *testing.T) {
	t.Parallel()

	got := Lines(B("head"), "", Esc("body"), H("  ")).String()
	if got != "<b>head</b>\n"+"body" {
		t.Fatalf("Lines = %q", got)
	}
}

func TestTruncRunes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hell…"},
		{"مرحبا بالعالم", 6, "مرحبا …"},
		{"x", 0, ""},
	}
	for _, tc := range cases {
		if got := TruncRunes(tc.in, tc.n); got != tc.want {
			t.Errorf("TruncRunes(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

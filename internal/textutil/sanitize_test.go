package textutil_test

import (
	"testing"

	"cargotag/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"cargo_1700000000000.jpg": "cargo_1700000000000.jpg",
		"  pallet: A/B?.jpg ":     "pallet- A-B.jpg",
		`a\b*c"d<e>f|g`:           "a-b-cdefg",
		"   ":                     "",
		"../../etc/passwd":        "-..-etc-passwd",
		".hidden\x00.jpg":         "hidden.jpg",
	}
	for in, want := range cases {
		if got := textutil.SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

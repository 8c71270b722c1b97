package flows

import (
	"strings"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"  Ann@Example.COM ", "ann@example.com", true},
		{"a@b.co", "a@b.co", true},
		{"", "", false},
		{"not-an-email", "", false},
		{"Ann <ann@example.com>", "", false},
		{"<ann@example.com>", "", false},
		{"a@b.co, c@d.co", "", false},
		{strings.Repeat("a", 250) + "@b.co", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeEmail(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("NormalizeEmail(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got, ok := NormalizeName("  Ann  ", 10); !ok || got != "Ann" {
		t.Fatalf("expected trimmed name, got %q %v", got, ok)
	}
	if _, ok := NormalizeName("   ", 10); ok {
		t.Fatal("blank name must be rejected")
	}
	if _, ok := NormalizeName("Zoë Ångström", 12); !ok {
		t.Fatal("length is counted in runes, not bytes")
	}
	if _, ok := NormalizeName("abcdefghijk", 10); ok {
		t.Fatal("name longer than the limit must be rejected")
	}
}

package phone

import "testing"

func TestNormalizeE164InRegion(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{"dutch mobile national format", "06 12345678", "NL", "+31612345678"},
		{"already international", "+31 6 12345678", "US", "+31612345678"},
		{"empty region falls back to default", "0612345678", "", "+31612345678"},
		{"garbage is returned trimmed", "  not a number ", "NL", "not a number"},
		{"blank stays blank", "   ", "NL", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164InRegion(tc.input, tc.region); got != tc.want {
				t.Fatalf("NormalizeE164InRegion(%q, %q) = %q, want %q", tc.input, tc.region, got, tc.want)
			}
		})
	}
}

func TestIsDialable(t *testing.T) {
	if !IsDialable("0612345678", "NL") {
		t.Fatal("expected dutch mobile number to be dialable")
	}
	if IsDialable("hello", "NL") {
		t.Fatal("expected text to be rejected")
	}
}

package server

import (
	"strings"
	"testing"
)

func TestValidateDigest(t *testing.T) {
	tests := []struct {
		digest string
		want   bool
	}{
		{digest: strings.Repeat("a", 64), want: true},
		{digest: strings.Repeat("A", 64), want: true},
		{digest: " " + strings.Repeat("0", 64) + " ", want: true},
		{digest: strings.Repeat("a", 63), want: false},
		{digest: strings.Repeat("g", 64), want: false},
		{digest: "", want: false},
	}
	for _, tt := range tests {
		if got := validateDigest(tt.digest); got != tt.want {
			t.Fatalf("validateDigest(%q)=%v want %v", tt.digest, got, tt.want)
		}
	}
}

func TestEtagMatches(t *testing.T) {
	etag := `"abc"`
	tests := []struct {
		header string
		want   bool
	}{
		{header: "", want: false},
		{header: `"abc"`, want: true},
		{header: `W/"abc"`, want: true},
		{header: `"x", "abc"`, want: true},
		{header: "*", want: true},
		{header: `"abd"`, want: false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Fatalf("etagMatches(%q)=%v want %v", tt.header, got, tt.want)
		}
	}
}

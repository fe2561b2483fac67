package geoip

import "testing"

func TestDisabledResolver(t *testing.T) {
	r, err := Open("  ")
	if err != nil {
		t.Fatalf("Open(empty) error: %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil resolver for empty path")
	}
	code, err := r.CountryCode("8.8.8.8")
	if err != nil || code != "" {
		t.Fatalf("nil resolver CountryCode = %q, %v", code, err)
	}
	if r.Lookup() != nil {
		t.Fatalf("nil resolver should not provide a lookup")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	if _, err := Open("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

package geoip

import (
	"path/filepath"
	"testing"
)

func TestNilLocator(t *testing.T) {
	l, err := Open("")
	if err != nil || l != nil {
		t.Fatalf("Open(\"\") = %v, %v", l, err)
	}
	if _, ok := l.Hint("8.8.8.8"); ok {
		t.Error("nil locator returned a hint")
	}
	if err := l.Close(); err != nil {
		t.Error(err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "GeoLite2-City.mmdb")); err == nil {
		t.Fatal("expected error for missing database")
	}
}

package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLite_GetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "rooms.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Get(ctx, "fleet:room:lobby"); ok || err != nil {
		t.Fatalf("absent key: got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "fleet:room:lobby", `{"robots":[],"timestamp":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "fleet:room:lobby", `{"robots":[],"timestamp":2}`); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, ok, err := s.Get(ctx, "fleet:room:lobby")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v != `{"robots":[],"timestamp":2}` {
		t.Fatalf("get: got %q", v)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

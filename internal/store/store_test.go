package store

import (
	"context"
	"fmt"
	"testing"
)

// flaky is a Store stub that errors on demand.
type flaky struct {
	mem  *Memory
	down bool
}

func (f *flaky) Get(ctx context.Context, key string) (string, bool, error) {
	if f.down {
		return "", false, fmt.Errorf("backend unreachable")
	}
	return f.mem.Get(ctx, key)
}

func (f *flaky) Set(ctx context.Context, key, value string) error {
	if f.down {
		return fmt.Errorf("backend unreachable")
	}
	return f.mem.Set(ctx, key, value)
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, ok, err := m.Get(ctx, "fleet:room:lobby"); ok || err != nil {
		t.Fatalf("absent key: got ok=%v err=%v", ok, err)
	}
	if err := m.Set(ctx, "fleet:room:lobby", `{"robots":[]}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := m.Get(ctx, "fleet:room:lobby")
	if err != nil || !ok || v != `{"robots":[]}` {
		t.Fatalf("get: got %q ok=%v err=%v", v, ok, err)
	}
}

func TestFallback_SilentDegradation(t *testing.T) {
	ctx := context.Background()
	primary := &flaky{mem: NewMemory()}
	s := NewFallback(primary)

	// Healthy path: writes land in both backends.
	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := primary.Get(ctx, "k"); !ok || v != "v1" {
		t.Fatalf("primary missed write: got %q ok=%v", v, ok)
	}

	// Outage: set must not error, get must serve the memory shadow.
	primary.down = true
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("set during outage must not error: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("get during outage: got %q ok=%v err=%v", v, ok, err)
	}

	// Recovery: primary still has the stale v1 but serves reads again.
	primary.down = false
	if v, ok, _ := s.Get(ctx, "k"); !ok || v != "v1" {
		t.Fatalf("get after recovery: got %q ok=%v", v, ok)
	}
}

func TestFallback_NilPrimary(t *testing.T) {
	ctx := context.Background()
	s := NewFallback(nil)
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := s.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("get: got %q ok=%v", v, ok)
	}
}

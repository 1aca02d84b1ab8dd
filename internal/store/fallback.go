package store

import "context"

// Fallback wraps a primary Store with an in-memory shadow. Every write
// lands in memory first, then best-effort in the primary; reads prefer
// the primary and fall back to memory when it errors. Primary failures
// never propagate to callers.
type Fallback struct {
	primary Store
	mem     *Memory
}

func NewFallback(primary Store) *Fallback {
	return &Fallback{primary: primary, mem: NewMemory()}
}

func (s *Fallback) Get(ctx context.Context, key string) (string, bool, error) {
	if s.primary != nil {
		if v, ok, err := s.primary.Get(ctx, key); err == nil {
			if ok {
				return v, true, nil
			}
			// Absent in the primary: the memory shadow may still hold
			// writes made while the primary was unreachable.
		}
	}
	v, ok, _ := s.mem.Get(ctx, key)
	return v, ok, nil
}

func (s *Fallback) Set(ctx context.Context, key, value string) error {
	_ = s.mem.Set(ctx, key, value)
	if s.primary != nil {
		_ = s.primary.Set(ctx, key, value)
	}
	return nil
}

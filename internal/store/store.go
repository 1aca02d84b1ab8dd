// Package store is the shared key-value state service used for
// multiplayer room sync. Backends are injectable; the Fallback wrapper
// guarantees that a failing backend degrades silently to memory.
package store

import "context"

// Store is an asynchronous get/set service keyed by room key.
// Get returns found=false for absent keys; that is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

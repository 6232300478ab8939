// Package dedup memoizes augmentation results by request fingerprint.
//
// A Cache combines a TTL store with a singleflight group: identical
// fingerprints inside the TTL are answered from the store, and concurrent
// misses for the same fingerprint share a single call. Only successful
// results are stored; a failure is handed to every waiter of that flight
// and then forgotten.
//
// The cache is an explicit value with its own lifecycle. Construct it once
// at process start and pass it to the services that need it.
package dedup

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the lifetime of a cached result.
const DefaultTTL = 5 * time.Minute

// Lookup describes how a Do call was answered.
type Lookup string

const (
	// Hit means the value came from the store.
	Hit Lookup = "hit"
	// Miss means this call ran fn.
	Miss Lookup = "miss"
	// Shared means the call waited on another caller's in-flight fn.
	Shared Lookup = "shared"
)

// Store is the TTL key/value backend of a Cache.
type Store interface {
	// Get returns the value for key; ok is false on miss or expiry.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	// Set stores val for ttl.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Clear drops every entry owned by the store.
	Clear(ctx context.Context) error
}

// Cache deduplicates calls by key. The zero value is not usable; use New.
type Cache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
	// OnStoreError, when set, is told about store failures. The cache keeps
	// working without the store in that case.
	OnStoreError func(op string, err error)
}

// New returns a Cache over store. A nil store means an in-memory one and a
// non-positive ttl means DefaultTTL.
func New(store Store, ttl time.Duration) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// TTL reports the configured lifetime of cached results.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Do returns the cached value for key or runs fn to produce it. At most one
// fn per key runs at a time in this process. fn runs with a context that is
// not cancelled when the first caller goes away, so waiters are not failed
// by someone else's cancellation.
func (c *Cache) Do(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, Lookup, error) {
	if key == "" {
		return nil, Miss, errors.New("dedup: empty key")
	}
	if v, ok := c.get(ctx, key); ok {
		return v, Hit, nil
	}

	ran := false
	hitInside := false
	res, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have stored the value since our first look.
		if v, ok := c.get(ctx, key); ok {
			hitInside = true
			return v, nil
		}
		ran = true
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if serr := c.store.Set(context.WithoutCancel(ctx), key, v, c.ttl); serr != nil {
			c.storeErr("set", serr)
		}
		return v, nil
	})

	lookup := Shared
	switch {
	case hitInside:
		lookup = Hit
	case ran:
		lookup = Miss
	}
	if err != nil {
		return nil, lookup, err
	}
	v, _ := res.([]byte)
	return v, lookup, nil
}

// Clear empties the backing store. Intended for tests and admin tooling.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.storeErr("get", err)
		return nil, false
	}
	return v, ok
}

func (c *Cache) storeErr(op string, err error) {
	if c.OnStoreError != nil {
		c.OnStoreError(op, err)
	}
}

// Package license implements the BazBOM License Cache (C3): a compute-once
// lookup shared across every internal/scanner adapter so the same
// (ecosystem, package, version) license lookup is never performed twice
// within a single Scan call.
//
// Adapted from claircore's internal/cache.Live[K,V], simplified: Live keeps
// its cached value only as long as the Go runtime's GC considers it
// reachable ([weak.Pointer]), which matters when caching large blobs pulled
// off of container layers. License strings are a handful of bytes and the
// whole cache is scoped to one Scan call, so eviction-by-GC-pressure buys
// nothing here — a plain [sync.Map] that lives for the Scan's duration is
// used instead, keeping only the compute-once ([golang.org/x/sync/
// singleflight]) half of Live's behavior.
package license

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Key identifies one license lookup.
type Key struct {
	Ecosystem string
	Name      string
	Version   string
}

// LookupFunc resolves a Key to a license identifier (an SPDX expression
// where the upstream metadata provides one, otherwise the ecosystem's raw
// license string). Implementations are supplied per-ecosystem by
// internal/scanner adapters — one reads a Maven POM's <license> block,
// another reads an npm package-lock.json entry's "license" field, and so on.
type LookupFunc func(context.Context, Key) (string, error)

// Cache is a compute-once license lookup, safe for concurrent use across the
// Orchestrator's bounded-concurrency ecosystem fan-out. The zero value is
// ready to use.
type Cache struct {
	values sync.Map
	group  singleflight.Group
}

// Get returns the license for key, calling lookup at most once per distinct
// key for the lifetime of the Cache, even under concurrent callers racing
// on the same key. A lookup that returns an error is not cached, so a later
// Get for the same key calls lookup again.
func (c *Cache) Get(ctx context.Context, key Key, lookup LookupFunc) (string, error) {
	if v, ok := c.values.Load(key); ok {
		return v.(string), nil
	}

	sfKey := key.Ecosystem + "\x00" + key.Name + "\x00" + key.Version
	v, err, _ := c.group.Do(sfKey, func() (any, error) {
		// Another caller's Do may have stored the value between the Load
		// above and this call.
		if v, ok := c.values.Load(key); ok {
			return v.(string), nil
		}
		license, err := lookup(ctx, key)
		if err != nil {
			return "", err
		}
		c.values.Store(key, license)
		return license, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Clear drops every cached entry. Unused within a single Scan call; exposed
// for long-lived callers (e.g. a daemon wrapping bazbom) that want to
// periodically refresh license metadata across Scan calls.
func (c *Cache) Clear() {
	c.values.Range(func(k, _ any) bool {
		c.values.Delete(k)
		return true
	})
}

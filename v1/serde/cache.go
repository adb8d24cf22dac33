package serde

import "sync"

// cache is an append-only concurrent map with get-or-compute semantics.
// Concurrent misses on the same key may compute more than once; only the
// first stored value is ever returned. Failed computations are not stored.
type cache[K comparable, V any] struct {
	m sync.Map
}

func (c *cache[K, V]) load(key K) (V, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// getOrCompute returns the value stored for key, computing and publishing it on a miss.
func (c *cache[K, V]) getOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.m.Load(key); ok {
		return v.(V), nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}

	actual, _ := c.m.LoadOrStore(key, v)
	return actual.(V), nil
}

// store publishes value unless key is already present and returns the stored value.
func (c *cache[K, V]) store(key K, value V) V {
	actual, _ := c.m.LoadOrStore(key, value)
	return actual.(V)
}

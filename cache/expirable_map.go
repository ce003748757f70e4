package cache

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/arcana-network/roastnode/common"
)

// ExpirableMap is the single lifetime authority for protocol state. Values
// carry their own Expiry; every external read first sweeps expired entries
// and fires the eviction hook once per removal. There is no janitor
// goroutine: expiry is observed only on access, which is enough because
// every operation that cares touches the relevant map.
//
// The map is not safe for concurrent use. The coordinator serializes all
// access behind its request mutex.
type ExpirableMap[K ~string, V common.Expirable] struct {
	backing  *gocache.Cache
	onEvict  func(K, V)
	removing bool
}

func NewExpirableMap[K ~string, V common.Expirable](onEvict func(K, V)) *ExpirableMap[K, V] {
	m := &ExpirableMap[K, V]{
		backing: gocache.New(gocache.NoExpiration, 0),
		onEvict: onEvict,
	}
	m.backing.OnEvicted(func(key string, value interface{}) {
		// Explicit Remove must not look like an expiry to the hook.
		if m.removing || m.onEvict == nil {
			return
		}
		m.onEvict(K(key), value.(V))
	})
	return m
}

// Put installs or replaces the entry under key, with the backing TTL derived
// from the value's own expiry. A value that is already expired is not stored.
func (m *ExpirableMap[K, V]) Put(key K, value V) {
	ttl := value.GetExpiry().TTL()
	if ttl <= 0 {
		return
	}
	m.backing.Set(string(key), value, ttl)
}

func (m *ExpirableMap[K, V]) Get(key K) (V, bool) {
	m.sweep()
	var zero V
	raw, ok := m.backing.Get(string(key))
	if !ok {
		return zero, false
	}
	return raw.(V), true
}

func (m *ExpirableMap[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Remove deletes the entry without firing the eviction hook; the hook is
// reserved for expiry-driven removal.
func (m *ExpirableMap[K, V]) Remove(key K) {
	m.removing = true
	m.backing.Delete(string(key))
	m.removing = false
}

func (m *ExpirableMap[K, V]) Len() int {
	m.sweep()
	return m.backing.ItemCount()
}

func (m *ExpirableMap[K, V]) Keys() []K {
	m.sweep()
	items := m.backing.Items()
	keys := make([]K, 0, len(items))
	for key := range items {
		keys = append(keys, K(key))
	}
	return keys
}

func (m *ExpirableMap[K, V]) Values() []V {
	m.sweep()
	items := m.backing.Items()
	values := make([]V, 0, len(items))
	for _, item := range items {
		values = append(values, item.Object.(V))
	}
	return values
}

// Range calls fn for each live entry until fn returns false.
func (m *ExpirableMap[K, V]) Range(fn func(K, V) bool) {
	m.sweep()
	for key, item := range m.backing.Items() {
		if !fn(K(key), item.Object.(V)) {
			return
		}
	}
}

func (m *ExpirableMap[K, V]) sweep() {
	m.backing.DeleteExpired()
}

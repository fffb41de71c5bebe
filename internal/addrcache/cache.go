// Package addrcache caches (address, chain) → MonitoredAddress
// classification lookups in front of the store, the same shape as the
// teacher's op-service/sources.L1Client caching an L1BlockRef by hash in
// a hashicorp/golang-lru/v2 LRUCache to avoid a round trip on every call.
package addrcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// Lookup resolves a monitored address's classification, the same
// signature store.Store.MonitoredAddressByAddress exposes.
type Lookup interface {
	MonitoredAddressByAddress(ctx context.Context, c chain.Network, address string) (chain.MonitoredAddress, bool, error)
}

type key struct {
	chain   chain.Network
	address string
}

type entry struct {
	addr  chain.MonitoredAddress
	found bool
}

// Cache wraps a Lookup with a bounded LRU in front of it.
type Cache struct {
	source Lookup
	lru    *lru.Cache[key, entry]
}

func New(source Lookup, size int) (*Cache, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[key, entry](size)
	if err != nil {
		return nil, fmt.Errorf("addrcache: new lru: %w", err)
	}
	return &Cache{source: source, lru: c}, nil
}

// Classify returns the monitored address's classification, consulting
// the cache before falling back to source. A miss (address not
// monitored) is cached too, so repeated logs from unmonitored contracts
// don't keep hitting the store.
func (c *Cache) Classify(ctx context.Context, network chain.Network, address string) (chain.MonitoredAddress, bool, error) {
	k := key{chain: network, address: address}
	if e, ok := c.lru.Get(k); ok {
		return e.addr, e.found, nil
	}

	addr, found, err := c.source.MonitoredAddressByAddress(ctx, network, address)
	if err != nil {
		return chain.MonitoredAddress{}, false, err
	}
	c.lru.Add(k, entry{addr: addr, found: found})
	return addr, found, nil
}

// Len reports the number of cached entries, exposed for tests and
// monitoring.
func (c *Cache) Len() int { return c.lru.Len() }

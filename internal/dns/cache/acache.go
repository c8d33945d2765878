// Package cache implements the three in-memory, non-persistent caches this
// resolver consults before asking upstream: an A-cache, an NS-cache, and a
// CNAME-cache. Each is backed by a bounded LRU store and expires entries
// lazily on read against an injected clock.Clock, never on a timer.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ncsdns/resolver/internal/dns/common/clock"
	"github.com/ncsdns/resolver/internal/dns/domain"
)

type aCacheEntry struct {
	addr    domain.InetAddr
	expires uint32 // absolute unix seconds
	srtt    *float64
}

// ACache maps a domain name to the single IPv4 address this resolver has
// most recently learned for it, along with an optional smoothed round-trip
// time estimate. Per the original resolver's semantics, inserting a new
// address for a name replaces whatever was cached before; there is never
// more than one address per name.
type ACache struct {
	lru   *lru.Cache[string, aCacheEntry]
	clock clock.Clock
}

// rttAlpha is the exponential-smoothing weight given to history versus the
// latest sample, matching ACacheEntry.ALPHA in the resolver this package
// generalizes from.
const rttAlpha = 0.8

// NewACache returns an ACache of the given bounded size.
func NewACache(size int, c clock.Clock) (*ACache, error) {
	backing, err := lru.New[string, aCacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &ACache{lru: backing, clock: c}, nil
}

// Insert records addr as the current address for name, valid for ttl
// seconds from now. Any previously cached address for name is discarded;
// its smoothed RTT estimate is also reset, since it described latency to a
// server that may no longer be the same one behind this address.
func (c *ACache) Insert(name domain.DomainName, addr domain.InetAddr, ttl uint32) {
	key := name.String()
	entry := aCacheEntry{
		addr:    addr,
		expires: uint32(c.clock.Now().Unix()) + ttl,
	}
	c.lru.Add(key, entry)
}

// InsertPermanent seeds name with addr and no expiry, used once at startup
// to prime the cache with the hard-coded root server.
func (c *ACache) InsertPermanent(name domain.DomainName, addr domain.InetAddr) {
	c.lru.Add(name.String(), aCacheEntry{addr: addr, expires: 0xFFFFFFFF})
}

// Lookup returns the cached A record for name and true, or the zero value
// and false if nothing valid is cached. An expired entry is evicted as a
// side effect of the lookup.
func (c *ACache) Lookup(name domain.DomainName) (domain.ResourceRecord, bool) {
	key := name.String()
	entry, ok := c.lru.Get(key)
	if !ok {
		return domain.ResourceRecord{}, false
	}
	now := uint32(c.clock.Now().Unix())
	if entry.expires <= now {
		c.lru.Remove(key)
		return domain.ResourceRecord{}, false
	}
	rr := domain.NewResourceRecord(name, domain.RRClassIN, entry.expires-now, domain.AData{Addr: entry.addr})
	return rr, true
}

// UpdateRTT folds a freshly observed round-trip time (in seconds) into the
// smoothed estimate kept for name's current address. It is a no-op if
// nothing is currently cached for name: a reply can race an eviction, and
// there is nothing useful to attach the sample to in that case.
func (c *ACache) UpdateRTT(name domain.DomainName, rttSeconds float64) {
	key := name.String()
	entry, ok := c.lru.Get(key)
	if !ok {
		return
	}
	if entry.srtt == nil {
		entry.srtt = &rttSeconds
	} else {
		smoothed := rttSeconds*(1.0-rttAlpha) + *entry.srtt*rttAlpha
		entry.srtt = &smoothed
	}
	c.lru.Add(key, entry)
}

// SmoothedRTT returns the smoothed round-trip time estimate for name, if
// any observation has ever been recorded for it.
func (c *ACache) SmoothedRTT(name domain.DomainName) (float64, bool) {
	entry, ok := c.lru.Get(name.String())
	if !ok || entry.srtt == nil {
		return 0, false
	}
	return *entry.srtt, true
}

// Len reports the number of names currently cached.
func (c *ACache) Len() int {
	return c.lru.Len()
}

package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ncsdns/resolver/internal/dns/common/clock"
	"github.com/ncsdns/resolver/internal/dns/domain"
)

type cnameCacheEntry struct {
	target  domain.DomainName
	expires uint32
}

// CNAMECache maps an alias name to the single canonical name it pointed to
// the last time this resolver saw a CNAME record for it. There is never
// more than one alias target cached per source name.
type CNAMECache struct {
	lru   *lru.Cache[string, cnameCacheEntry]
	clock clock.Clock
}

// NewCNAMECache returns a CNAMECache of the given bounded size.
func NewCNAMECache(size int, c clock.Clock) (*CNAMECache, error) {
	backing, err := lru.New[string, cnameCacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CNAMECache{lru: backing, clock: c}, nil
}

// Insert records that source is an alias for target, valid for ttl seconds.
func (c *CNAMECache) Insert(source, target domain.DomainName, ttl uint32) {
	c.lru.Add(source.String(), cnameCacheEntry{
		target:  target,
		expires: uint32(c.clock.Now().Unix()) + ttl,
	})
}

// Lookup returns the CNAME record cached for source, with its owner name
// rewritten to source (since the wire record is reconstructed from the
// cache, not replayed verbatim), and true. It returns false if nothing
// valid is cached.
func (c *CNAMECache) Lookup(source domain.DomainName) (domain.ResourceRecord, bool) {
	key := source.String()
	entry, ok := c.lru.Get(key)
	if !ok {
		return domain.ResourceRecord{}, false
	}
	now := uint32(c.clock.Now().Unix())
	if entry.expires <= now {
		c.lru.Remove(key)
		return domain.ResourceRecord{}, false
	}
	rr := domain.NewResourceRecord(source, domain.RRClassIN, entry.expires-now, domain.CNAMEData{Target: entry.target})
	return rr, true
}

// Len reports the number of alias names currently cached.
func (c *CNAMECache) Len() int {
	return c.lru.Len()
}

package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ncsdns/resolver/internal/dns/common/clock"
	"github.com/ncsdns/resolver/internal/dns/domain"
)

type nsCacheEntry struct {
	nsName  domain.DomainName
	expires uint32
}

// NSCache maps a zone cut (e.g. "com.") to the ordered set of name servers
// this resolver has learned are authoritative for it. Multiple name
// servers can be cached per zone, in the order they were first seen,
// matching the original resolver's OrderedDict-per-zone bucket.
type NSCache struct {
	lru   *lru.Cache[string, []nsCacheEntry]
	clock clock.Clock
}

// NewNSCache returns an NSCache of the given bounded size.
func NewNSCache(size int, c clock.Clock) (*NSCache, error) {
	backing, err := lru.New[string, []nsCacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &NSCache{lru: backing, clock: c}, nil
}

// Insert records ns as a name server for zone, valid for ttl seconds. If ns
// is already cached for zone, its expiry is refreshed in place rather than
// duplicated, preserving its original position in the bucket.
func (c *NSCache) Insert(zone domain.DomainName, ns domain.DomainName, ttl uint32) {
	key := zone.String()
	bucket, _ := c.lru.Get(key)
	expires := uint32(c.clock.Now().Unix()) + ttl

	for i := range bucket {
		if bucket[i].nsName.Equal(ns) {
			bucket[i].expires = expires
			c.lru.Add(key, bucket)
			return
		}
	}
	bucket = append(bucket, nsCacheEntry{nsName: ns, expires: expires})
	c.lru.Add(key, bucket)
}

// InsertPermanent seeds zone with ns and no expiry, used once at startup to
// prime the cache with the hard-coded root server.
func (c *NSCache) InsertPermanent(zone domain.DomainName, ns domain.DomainName) {
	key := zone.String()
	bucket, _ := c.lru.Get(key)
	bucket = append(bucket, nsCacheEntry{nsName: ns, expires: 0xFFFFFFFF})
	c.lru.Add(key, bucket)
}

// Lookup returns the name servers cached for zone. If none are cached (or
// all have expired), it recurses to the zone's parent, and so on up to the
// root, matching the original resolver's walk-up-to-an-ancestor-zone
// behavior: a cache that knows about "example.com." but not "www.example.com."
// can still answer a referral for the latter.
func (c *NSCache) Lookup(zone domain.DomainName) ([]domain.ResourceRecord, bool) {
	key := zone.String()
	bucket, ok := c.lru.Get(key)
	if ok {
		now := uint32(c.clock.Now().Unix())
		valid := bucket[:0:0]
		for _, e := range bucket {
			if e.expires > now {
				valid = append(valid, e)
			}
		}
		if len(valid) > 0 {
			if len(valid) != len(bucket) {
				c.lru.Add(key, valid)
			}
			rrs := make([]domain.ResourceRecord, 0, len(valid))
			for _, e := range valid {
				rrs = append(rrs, domain.NewResourceRecord(zone, domain.RRClassIN, e.expires-now, domain.NSData{NSDName: e.nsName}))
			}
			return rrs, true
		}
		c.lru.Remove(key)
	}

	if parent, ok := zone.Parent(); ok {
		return c.Lookup(parent)
	}
	return nil, false
}

// Len reports the number of zones currently cached.
func (c *NSCache) Len() int {
	return c.lru.Len()
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsdns/resolver/internal/dns/common/clock"
	"github.com/ncsdns/resolver/internal/dns/domain"
)

func TestNSCache_InsertAndLookup(t *testing.T) {
	mc := &clock.MockClock{CurrentTime: time.Unix(1000, 0)}
	c, err := NewNSCache(10, mc)
	require.NoError(t, err)

	zone := domain.MustDomainName("com.")
	ns1 := domain.MustDomainName("a.gtld-servers.net.")
	ns2 := domain.MustDomainName("b.gtld-servers.net.")
	c.Insert(zone, ns1, 60)
	c.Insert(zone, ns2, 60)

	rrs, ok := c.Lookup(zone)
	require.True(t, ok)
	require.Len(t, rrs, 2)
	assert.Equal(t, ns1.String(), rrs[0].Data.(domain.NSData).NSDName.String())
	assert.Equal(t, ns2.String(), rrs[1].Data.(domain.NSData).NSDName.String())
}

func TestNSCache_RecursesToParentOnMiss(t *testing.T) {
	mc := &clock.MockClock{CurrentTime: time.Unix(1000, 0)}
	c, err := NewNSCache(10, mc)
	require.NoError(t, err)

	c.Insert(domain.MustDomainName("com."), domain.MustDomainName("a.gtld-servers.net."), 60)

	rrs, ok := c.Lookup(domain.MustDomainName("www.example.com."))
	require.True(t, ok)
	require.Len(t, rrs, 1)
	assert.Equal(t, "com.", rrs[0].Name.String())
}

func TestNSCache_LookupFailsWhenNothingCachedUpToRoot(t *testing.T) {
	mc := &clock.MockClock{CurrentTime: time.Unix(1000, 0)}
	c, err := NewNSCache(10, mc)
	require.NoError(t, err)

	_, ok := c.Lookup(domain.MustDomainName("www.example.com."))
	assert.False(t, ok)
}

func TestNSCache_ExpiresLazily(t *testing.T) {
	mc := &clock.MockClock{CurrentTime: time.Unix(1000, 0)}
	c, err := NewNSCache(10, mc)
	require.NoError(t, err)

	zone := domain.MustDomainName("com.")
	c.Insert(zone, domain.MustDomainName("a.gtld-servers.net."), 10)

	mc.Advance(11 * time.Second)
	_, ok := c.Lookup(zone)
	assert.False(t, ok)
}

func TestNSCache_InsertRefreshesExistingEntryInPlace(t *testing.T) {
	mc := &clock.MockClock{CurrentTime: time.Unix(1000, 0)}
	c, err := NewNSCache(10, mc)
	require.NoError(t, err)

	zone := domain.MustDomainName("com.")
	ns := domain.MustDomainName("a.gtld-servers.net.")
	c.Insert(zone, ns, 10)
	c.Insert(zone, ns, 3600)

	rrs, ok := c.Lookup(zone)
	require.True(t, ok)
	require.Len(t, rrs, 1, "re-inserting the same name server should not duplicate it")
	assert.Equal(t, uint32(3600), rrs[0].TTL)
}

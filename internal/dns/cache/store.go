package cache

import (
	"github.com/ncsdns/resolver/internal/dns/common/clock"
	"github.com/ncsdns/resolver/internal/dns/domain"
)

// RootServerName and RootServerAddr are the hard-coded root hint this
// resolver starts every cold iterative descent from.
var (
	RootServerName = domain.MustDomainName("f.root-servers.net.")
	RootServerAddr = func() domain.InetAddr {
		a, err := domain.NewInetAddr("192.5.5.241")
		if err != nil {
			panic(err)
		}
		return a
	}()
)

// defaultCacheSize bounds each of the three caches. DNS resolvers fielding
// real client traffic see tens of thousands of distinct names; this is
// generous for a single-client, interactive workload without letting a
// pathological client grow the process without bound.
const defaultCacheSize = 8192

// Store bundles the three caches the resolver engine and request loop
// share. Each cache holds the clock it uses to make expiry decisions.
type Store struct {
	A     *ACache
	NS    *NSCache
	CNAME *CNAMECache
}

// NewStore builds a Store with all three caches bounded to the default
// size, seeded with the hard-coded root server so a cold start can begin
// iterative descent immediately.
func NewStore(c clock.Clock) (*Store, error) {
	a, err := NewACache(defaultCacheSize, c)
	if err != nil {
		return nil, err
	}
	ns, err := NewNSCache(defaultCacheSize, c)
	if err != nil {
		return nil, err
	}
	cn, err := NewCNAMECache(defaultCacheSize, c)
	if err != nil {
		return nil, err
	}

	a.InsertPermanent(RootServerName, RootServerAddr)
	ns.InsertPermanent(domain.Root, RootServerName)

	return &Store{A: a, NS: ns, CNAME: cn}, nil
}

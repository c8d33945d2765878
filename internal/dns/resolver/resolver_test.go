package resolver

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsdns/resolver/internal/dns/cache"
	"github.com/ncsdns/resolver/internal/dns/common/clock"
	"github.com/ncsdns/resolver/internal/dns/common/log"
	"github.com/ncsdns/resolver/internal/dns/domain"
)

// fakeUpstream scripts one response per (server, question) pair a test
// expects to be queried, so the iterative descent can be driven through
// referrals and CNAME chases without a real network.
type fakeUpstream struct {
	responses map[string]domain.Message
	calls     []string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{responses: map[string]domain.Message{}}
}

func fakeKey(server domain.InetAddr, q domain.Question) string {
	return fmt.Sprintf("%s|%s", server.String(), q.String())
}

func (f *fakeUpstream) expect(server domain.InetAddr, q domain.Question, msg domain.Message) {
	f.responses[fakeKey(server, q)] = msg
}

func (f *fakeUpstream) Query(id uint16, q domain.Question, server domain.InetAddr) (domain.Message, time.Duration, error) {
	key := fakeKey(server, q)
	f.calls = append(f.calls, key)
	msg, ok := f.responses[key]
	if !ok {
		return domain.Message{}, 0, errors.New("fakeUpstream: unexpected query " + key)
	}
	return msg, time.Millisecond, nil
}

func addr(t *testing.T, s string) domain.InetAddr {
	t.Helper()
	a, err := domain.NewInetAddr(s)
	require.NoError(t, err)
	return a
}

func newTestResolver(t *testing.T, up UpstreamClient) (*Resolver, *cache.Store) {
	t.Helper()
	mc := &clock.MockClock{CurrentTime: time.Unix(1000, 0)}
	store, err := cache.NewStore(mc)
	require.NoError(t, err)
	r := New(Options{Store: store, Upstream: up, Clock: mc, Logger: log.NewNoopLogger(), MaxRecursion: 100})
	return r, store
}

func TestResolver_Resolve_AnswersDirectlyFromCache(t *testing.T) {
	up := newFakeUpstream() // no responses scripted: any query fails the test
	r, store := newTestResolver(t, up)

	name := domain.MustDomainName("example.com.")
	a := addr(t, "93.184.216.34")
	store.A.Insert(name, a, 300)

	res := r.Resolve(1, domain.NewQuestion(name, domain.RRTypeA, domain.RRClassIN))
	require.Equal(t, domain.RCodeNoError, res.RCode)
	require.Len(t, res.Answer, 1)
	assert.Equal(t, a, res.Answer[0].Data.(domain.AData).Addr)
	assert.Empty(t, up.calls, "a cache hit must never reach upstream")
}

func TestResolver_Resolve_IterativeDescentThroughReferral(t *testing.T) {
	up := newFakeUpstream()
	r, _ := newTestResolver(t, up)

	q := domain.NewQuestion(domain.MustDomainName("www.example.com."), domain.RRTypeA, domain.RRClassIN)

	comNS := domain.NewResourceRecord(domain.MustDomainName("com."), domain.RRClassIN, 3600, domain.NSData{NSDName: domain.MustDomainName("a.gtld-servers.net.")})
	comGlue := domain.NewResourceRecord(domain.MustDomainName("a.gtld-servers.net."), domain.RRClassIN, 3600, domain.AData{Addr: addr(t, "192.5.6.30")})
	up.expect(cache.RootServerAddr, q, domain.NewReply(1, false, q, domain.RCodeNoError, nil, []domain.ResourceRecord{comNS}, []domain.ResourceRecord{comGlue}))

	exampleNS := domain.NewResourceRecord(domain.MustDomainName("example.com."), domain.RRClassIN, 3600, domain.NSData{NSDName: domain.MustDomainName("ns1.example.com.")})
	exampleGlue := domain.NewResourceRecord(domain.MustDomainName("ns1.example.com."), domain.RRClassIN, 3600, domain.AData{Addr: addr(t, "198.51.100.1")})
	up.expect(addr(t, "192.5.6.30"), q, domain.NewReply(1, false, q, domain.RCodeNoError, nil, []domain.ResourceRecord{exampleNS}, []domain.ResourceRecord{exampleGlue}))

	finalAnswer := domain.NewResourceRecord(q.Name, domain.RRClassIN, 300, domain.AData{Addr: addr(t, "93.184.216.34")})
	up.expect(addr(t, "198.51.100.1"), q, domain.NewReply(1, false, q, domain.RCodeNoError, []domain.ResourceRecord{finalAnswer}, nil, nil))

	res := r.Resolve(1, q)
	require.Equal(t, domain.RCodeNoError, res.RCode)
	require.Len(t, res.Answer, 1)
	assert.Equal(t, addr(t, "93.184.216.34"), res.Answer[0].Data.(domain.AData).Addr)
	assert.Len(t, up.calls, 3, "should have descended root -> com -> example.com")
}

func TestResolver_Resolve_CachesReferralAndGlueAlongTheWay(t *testing.T) {
	up := newFakeUpstream()
	r, store := newTestResolver(t, up)

	q := domain.NewQuestion(domain.MustDomainName("www.example.com."), domain.RRTypeA, domain.RRClassIN)
	comNS := domain.NewResourceRecord(domain.MustDomainName("com."), domain.RRClassIN, 3600, domain.NSData{NSDName: domain.MustDomainName("a.gtld-servers.net.")})
	comGlue := domain.NewResourceRecord(domain.MustDomainName("a.gtld-servers.net."), domain.RRClassIN, 3600, domain.AData{Addr: addr(t, "192.5.6.30")})
	up.expect(cache.RootServerAddr, q, domain.NewReply(1, false, q, domain.RCodeNoError, nil, []domain.ResourceRecord{comNS}, []domain.ResourceRecord{comGlue}))
	finalAnswer := domain.NewResourceRecord(q.Name, domain.RRClassIN, 300, domain.AData{Addr: addr(t, "93.184.216.34")})
	up.expect(addr(t, "192.5.6.30"), q, domain.NewReply(1, false, q, domain.RCodeNoError, []domain.ResourceRecord{finalAnswer}, nil, nil))

	_ = r.Resolve(1, q)

	nsRRs, ok := store.NS.Lookup(domain.MustDomainName("com."))
	require.True(t, ok)
	require.Len(t, nsRRs, 1)
	assert.Equal(t, "a.gtld-servers.net.", nsRRs[0].Data.(domain.NSData).NSDName.String())

	glueRR, ok := store.A.Lookup(domain.MustDomainName("a.gtld-servers.net."))
	require.True(t, ok)
	assert.Equal(t, addr(t, "192.5.6.30"), glueRR.Data.(domain.AData).Addr)
}

func TestResolver_Resolve_ChasesCNAMERestartingFromRoot(t *testing.T) {
	up := newFakeUpstream()
	r, _ := newTestResolver(t, up)

	q := domain.NewQuestion(domain.MustDomainName("www.example.com."), domain.RRTypeA, domain.RRClassIN)
	target := domain.MustDomainName("example.com.")
	cname := domain.NewResourceRecord(q.Name, domain.RRClassIN, 300, domain.CNAMEData{Target: target})
	up.expect(cache.RootServerAddr, q, domain.NewReply(1, false, q, domain.RCodeNoError, []domain.ResourceRecord{cname}, nil, nil))

	targetQ := domain.NewQuestion(target, domain.RRTypeA, domain.RRClassIN)
	finalAnswer := domain.NewResourceRecord(target, domain.RRClassIN, 300, domain.AData{Addr: addr(t, "93.184.216.34")})
	up.expect(cache.RootServerAddr, targetQ, domain.NewReply(1, false, targetQ, domain.RCodeNoError, []domain.ResourceRecord{finalAnswer}, nil, nil))

	res := r.Resolve(1, q)
	require.Equal(t, domain.RCodeNoError, res.RCode)
	require.Len(t, res.Answer, 1)
	assert.True(t, res.Answer[0].Name.Equal(q.Name), "the CNAME hop must not appear in the answer owner name")
	assert.Equal(t, addr(t, "93.184.216.34"), res.Answer[0].Data.(domain.AData).Addr)
}

func TestResolver_Resolve_FallsBackToAuthorityOnlyWhenNoGlue(t *testing.T) {
	up := newFakeUpstream()
	r, _ := newTestResolver(t, up)

	q := domain.NewQuestion(domain.MustDomainName("www.example.com."), domain.RRTypeA, domain.RRClassIN)
	comNS := domain.NewResourceRecord(domain.MustDomainName("com."), domain.RRClassIN, 3600, domain.NSData{NSDName: domain.MustDomainName("a.gtld-servers.net.")})
	// no glue in the additional section this time
	up.expect(cache.RootServerAddr, q, domain.NewReply(1, false, q, domain.RCodeNoError, nil, []domain.ResourceRecord{comNS}, nil))

	nsAddrQ := domain.NewQuestion(domain.MustDomainName("a.gtld-servers.net."), domain.RRTypeA, domain.RRClassIN)
	nsAddrAnswer := domain.NewResourceRecord(nsAddrQ.Name, domain.RRClassIN, 3600, domain.AData{Addr: addr(t, "192.5.6.30")})
	up.expect(cache.RootServerAddr, nsAddrQ, domain.NewReply(1, false, nsAddrQ, domain.RCodeNoError, []domain.ResourceRecord{nsAddrAnswer}, nil, nil))

	finalAnswer := domain.NewResourceRecord(q.Name, domain.RRClassIN, 300, domain.AData{Addr: addr(t, "93.184.216.34")})
	up.expect(addr(t, "192.5.6.30"), q, domain.NewReply(1, false, q, domain.RCodeNoError, []domain.ResourceRecord{finalAnswer}, nil, nil))

	res := r.Resolve(1, q)
	require.Equal(t, domain.RCodeNoError, res.RCode)
	require.Len(t, res.Answer, 1)
	assert.Equal(t, addr(t, "93.184.216.34"), res.Answer[0].Data.(domain.AData).Addr)
}

func TestResolver_Resolve_SERVFAILWhenEveryReferralCandidateFails(t *testing.T) {
	up := newFakeUpstream()
	r, _ := newTestResolver(t, up)

	q := domain.NewQuestion(domain.MustDomainName("www.example.com."), domain.RRTypeA, domain.RRClassIN)
	comNS := domain.NewResourceRecord(domain.MustDomainName("com."), domain.RRClassIN, 3600, domain.NSData{NSDName: domain.MustDomainName("a.gtld-servers.net.")})
	comGlue := domain.NewResourceRecord(domain.MustDomainName("a.gtld-servers.net."), domain.RRClassIN, 3600, domain.AData{Addr: addr(t, "192.5.6.30")})
	up.expect(cache.RootServerAddr, q, domain.NewReply(1, false, q, domain.RCodeNoError, nil, []domain.ResourceRecord{comNS}, []domain.ResourceRecord{comGlue}))
	// the glue server is never scripted to answer, so its query fails and there
	// is no other candidate left to try.

	res := r.Resolve(1, q)
	assert.Equal(t, domain.RCodeServFail, res.RCode)
	assert.Empty(t, res.Answer)
}

func TestResolver_Resolve_PropagatesUpstreamErrorRCode(t *testing.T) {
	up := newFakeUpstream()
	r, _ := newTestResolver(t, up)

	q := domain.NewQuestion(domain.MustDomainName("nxdomain.example."), domain.RRTypeA, domain.RRClassIN)
	up.expect(cache.RootServerAddr, q, domain.NewReply(1, false, q, domain.RCodeNXDomain, nil, nil, nil))

	res := r.Resolve(1, q)
	assert.Equal(t, domain.RCodeNXDomain, res.RCode)
}

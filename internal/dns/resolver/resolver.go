package resolver

import (
	"github.com/ncsdns/resolver/internal/dns/cache"
	"github.com/ncsdns/resolver/internal/dns/common/clock"
	"github.com/ncsdns/resolver/internal/dns/common/log"
	"github.com/ncsdns/resolver/internal/dns/domain"
)

// Result is the outcome of resolving a single question: either a usable
// answer, a referral the caller should not need to see, or an RCode
// reflecting what an upstream server (or this resolver itself) decided.
type Result struct {
	RCode      domain.RCode
	Answer     []domain.ResourceRecord
	Authority  []domain.ResourceRecord
	Additional []domain.ResourceRecord
}

// Options configures a Resolver.
type Options struct {
	Store        *cache.Store
	Upstream     UpstreamClient
	Clock        clock.Clock
	Logger       log.Logger
	MaxRecursion int
}

// Resolver is the iterative, recursive DNS resolution engine: it consults
// the cache, and failing that walks the name server hierarchy from the root
// hint, following referrals and chasing CNAME chains, priming the cache
// with everything it learns along the way.
type Resolver struct {
	store        *cache.Store
	upstream     UpstreamClient
	clock        clock.Clock
	logger       log.Logger
	maxRecursion int
}

// New builds a Resolver from opts, applying defaults for anything the
// caller left zero.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	maxRecursion := opts.MaxRecursion
	if maxRecursion <= 0 {
		maxRecursion = DefaultMaxRecursion
	}
	return &Resolver{
		store:        opts.Store,
		upstream:     opts.Upstream,
		clock:        opts.Clock,
		logger:       logger,
		maxRecursion: maxRecursion,
	}
}

// Resolve answers q, using id as the query ID reused for every upstream
// query this resolution makes, matching the client's own request ID the
// way the original resolver threads a single id through every hop of a
// descent. A cache hit short-circuits the descent entirely; a cache miss
// falls through to an iterative walk starting at the root hint.
func (r *Resolver) Resolve(id uint16, q domain.Question) Result {
	if q.Type == domain.RRTypeA {
		if res, ok := r.answerFromCache(q.Name, true); ok {
			return res
		}
	}

	d := &descent{clientID: id, budget: newRecursionBudget(r.maxRecursion)}
	res, err := r.iterativeQuery(d, q, cache.RootServerName, cache.RootServerAddr, false)
	if err != nil {
		r.logger.Warn(map[string]any{
			"question": q.String(),
			"error":    err.Error(),
		}, "resolution failed, returning SERVFAIL")
		return Result{RCode: domain.RCodeServFail}
	}
	return res
}

// answerFromCache mirrors the original resolver's searchCache: an A-cache
// hit answers directly, and a CNAME-cache hit recurses onto its target,
// rewriting the final A record's owner back to name rather than exposing
// the alias chain to the caller. When includeReferral is true and the
// recursive lookup didn't already attach one, the immediate target's
// cached name servers (and their glue) are attached as the authority and
// additional sections.
func (r *Resolver) answerFromCache(name domain.DomainName, includeReferral bool) (Result, bool) {
	if rr, ok := r.store.A.Lookup(name); ok {
		return Result{RCode: domain.RCodeNoError, Answer: []domain.ResourceRecord{rr}}, true
	}

	c, ok := r.store.CNAME.Lookup(name)
	if !ok {
		return Result{}, false
	}
	target := c.Data.(domain.CNAMEData).Target

	inner, found := r.answerFromCache(target, true)
	if !found {
		return Result{}, false
	}

	result := inner
	if len(result.Answer) > 0 {
		rewritten := result.Answer[0]
		rewritten.Name = name
		result.Answer = []domain.ResourceRecord{rewritten}
	}
	if includeReferral && len(result.Authority) == 0 && len(result.Additional) == 0 {
		if nsRRs, ok := r.store.NS.Lookup(target); ok {
			result.Authority = nsRRs
			result.Additional = r.findGlueRecords(nsRRs)
		}
	}
	return result, true
}

// findGlueRecords returns the cached A records for whichever of nsRRs'
// name servers already have one, so a referral can be followed without an
// extra round trip just to learn a name server's address.
func (r *Resolver) findGlueRecords(nsRRs []domain.ResourceRecord) []domain.ResourceRecord {
	var glue []domain.ResourceRecord
	for _, ns := range nsRRs {
		nsName := ns.Data.(domain.NSData).NSDName
		if a, ok := r.store.A.Lookup(nsName); ok {
			glue = append(glue, a)
		}
	}
	return glue
}

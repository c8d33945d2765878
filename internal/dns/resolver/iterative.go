package resolver

import (
	"github.com/ncsdns/resolver/internal/dns/cache"
	"github.com/ncsdns/resolver/internal/dns/domain"
)

// descent bundles the two values that stay constant across every hop of a
// single client request's resolution: the query ID the client sent (reused
// for every upstream query, matching the original resolver's behavior of
// never minting a fresh ID per hop) and the shared recursion budget.
type descent struct {
	clientID uint16
	budget   *recursionBudget
}

// iterativeQuery sends q to the name server serverName/serverAddr and acts
// on what comes back: an answer matching q.Type is returned directly, a
// CNAME answer triggers a full restart from the root for its target, an
// error RCode is propagated as-is, and anything else is treated as a
// referral to follow. seenCNAME marks a descent that is itself the result
// of a CNAME restart, used to decide whether a referral's authority and
// additional sections should be grafted onto an otherwise-referral-less
// answer.
func (r *Resolver) iterativeQuery(d *descent, q domain.Question, serverName domain.DomainName, serverAddr domain.InetAddr, seenCNAME bool) (Result, error) {
	if err := d.budget.take(); err != nil {
		return Result{}, err
	}

	msg, rtt, err := r.upstream.Query(d.clientID, q, serverAddr)
	if err != nil {
		return Result{}, err
	}
	r.store.A.UpdateRTT(serverName, rtt.Seconds())

	// The first relevant answer wins: a CNAME is only chased if it appears
	// before any record of the asked-for type.
	for _, ans := range msg.Answer {
		if ans.Type == domain.RRTypeCNAME {
			return r.chaseCNAME(d, q, ans)
		}
		if ans.Type == q.Type {
			if ans.Type == domain.RRTypeA {
				r.store.A.Insert(ans.Name, ans.Data.(domain.AData).Addr, ans.TTL)
			}
			return Result{RCode: domain.RCodeNoError, Answer: []domain.ResourceRecord{ans}}, nil
		}
	}

	if msg.Header.RCode != domain.RCodeNoError {
		return Result{RCode: msg.Header.RCode}, nil
	}

	return r.followReferral(d, q, msg, seenCNAME)
}

// chaseCNAME follows a CNAME answer by restarting resolution for its
// target from the root server, then rewrites the final answer's owner name
// back to the name the caller actually asked about, dropping the
// intermediate CNAME hop from what the caller sees. Any authority and
// additional sections the chase gathered are kept.
func (r *Resolver) chaseCNAME(d *descent, q domain.Question, cnameRR domain.ResourceRecord) (Result, error) {
	target := cnameRR.Data.(domain.CNAMEData).Target
	r.store.CNAME.Insert(cnameRR.Name, target, cnameRR.TTL)

	nextQ := domain.NewQuestion(target, q.Type, q.Class)
	inner, err := r.iterativeQuery(d, nextQ, cache.RootServerName, cache.RootServerAddr, true)
	if err != nil {
		return Result{}, err
	}
	if inner.RCode != domain.RCodeNoError || len(inner.Answer) == 0 {
		return inner, nil
	}

	rewritten := inner.Answer[0]
	rewritten.Name = q.Name
	inner.Answer = []domain.ResourceRecord{rewritten}
	return inner, nil
}

// followReferral primes the cache with whatever name servers and glue a
// non-answer response carried, then tries each candidate server in turn:
// glue records from the additional section first (no extra lookup needed
// to learn their address), falling back to resolving each authority
// section name server's own address if no glue was usable. It gives up
// with SERVFAIL once every candidate has failed.
func (r *Resolver) followReferral(d *descent, q domain.Question, msg domain.Message, seenCNAME bool) (Result, error) {
	for _, ns := range msg.Authority {
		if ns.Type == domain.RRTypeNS {
			r.store.NS.Insert(ns.Name, ns.Data.(domain.NSData).NSDName, ns.TTL)
		}
	}
	for _, add := range msg.Additional {
		if add.Type == domain.RRTypeA {
			r.store.A.Insert(add.Name, add.Data.(domain.AData).Addr, add.TTL)
		}
	}

	for _, add := range msg.Additional {
		if add.Type != domain.RRTypeA {
			continue
		}
		result, err := r.iterativeQuery(d, q, add.Name, add.Data.(domain.AData).Addr, seenCNAME)
		if err != nil {
			if err == ErrRecursionExceeded {
				return Result{}, err
			}
			continue
		}
		if result.RCode != domain.RCodeNoError {
			continue
		}
		if seenCNAME && len(result.Authority) == 0 && len(result.Additional) == 0 {
			result.Authority = filterByType(msg.Authority, domain.RRTypeNS)
			result.Additional = filterByType(msg.Additional, domain.RRTypeA)
		}
		return result, nil
	}

	tried := make(map[string]bool, len(msg.Additional))
	for _, add := range msg.Additional {
		if add.Type == domain.RRTypeA {
			tried[add.Name.String()] = true
		}
	}

	for _, ns := range msg.Authority {
		if ns.Type != domain.RRTypeNS {
			continue
		}
		nsName := ns.Data.(domain.NSData).NSDName
		if tried[nsName.String()] {
			continue
		}
		addr, ok := r.resolveNSAddress(d, nsName)
		if !ok {
			continue
		}
		result, err := r.iterativeQuery(d, q, nsName, addr, seenCNAME)
		if err != nil {
			if err == ErrRecursionExceeded {
				return Result{}, err
			}
			continue
		}
		if result.RCode == domain.RCodeNoError {
			return result, nil
		}
	}

	return Result{RCode: domain.RCodeServFail}, nil
}

// resolveNSAddress returns the address of nsName, consulting the cache
// first and, failing that, resolving it with its own iterative descent
// from the root. This is the fallback path taken when a referral carries
// no usable glue for any of its name servers.
func (r *Resolver) resolveNSAddress(d *descent, nsName domain.DomainName) (domain.InetAddr, bool) {
	if rr, ok := r.store.A.Lookup(nsName); ok {
		return rr.Data.(domain.AData).Addr, true
	}

	nsQ := domain.NewQuestion(nsName, domain.RRTypeA, domain.RRClassIN)
	result, err := r.iterativeQuery(d, nsQ, cache.RootServerName, cache.RootServerAddr, false)
	if err != nil || result.RCode != domain.RCodeNoError || len(result.Answer) == 0 {
		return domain.InetAddr{}, false
	}
	return result.Answer[0].Data.(domain.AData).Addr, true
}

func filterByType(rrs []domain.ResourceRecord, t domain.RRType) []domain.ResourceRecord {
	var out []domain.ResourceRecord
	for _, rr := range rrs {
		if rr.Type == t {
			out = append(out, rr)
		}
	}
	return out
}

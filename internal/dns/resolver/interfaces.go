// Package resolver implements the iterative, recursive DNS resolution
// engine: walking the hierarchy from a root hint, following referrals,
// and chasing CNAME chains, consulting and priming the cache layer along
// the way.
package resolver

import (
	"time"

	"github.com/ncsdns/resolver/internal/dns/domain"
)

// UpstreamClient is the narrow collaborator interface the resolver engine
// needs from the outbound transport. internal/dns/upstream.Transport
// satisfies it; tests inject a fake.
type UpstreamClient interface {
	Query(id uint16, q domain.Question, server domain.InetAddr) (domain.Message, time.Duration, error)
}

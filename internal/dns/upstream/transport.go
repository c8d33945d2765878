// Package upstream sends iterative queries to a single name server at a
// time over UDP and returns its reply, matching the original resolver's
// single shared client socket.
package upstream

import (
	"errors"
	"net"
	"time"

	"github.com/ncsdns/resolver/internal/dns/common/log"
	"github.com/ncsdns/resolver/internal/dns/domain"
	"github.com/ncsdns/resolver/internal/dns/wire"
)

// DefaultTimeout and DefaultAttempts match the original resolver's TIMEOUT
// and MAX_TRY constants.
const (
	DefaultTimeout  = 5 * time.Second
	DefaultAttempts = 3
	dnsPort         = 53
	maxUDPReadSize  = 512
)

// ErrExhausted is returned when every attempt against a server times out or
// fails; callers should treat this the same way the original resolver
// treats it: synthesize a SERVFAIL and try the next candidate.
var ErrExhausted = errors.New("upstream: no response after all attempts")

// packetConn is the subset of *net.UDPConn the Transport needs, narrowed so
// tests can inject an in-memory fake instead of a real socket.
type packetConn interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
	ReadFrom(b []byte) (int, net.Addr, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Options configures a Transport.
type Options struct {
	Timeout  time.Duration
	Attempts int
	Logger   log.Logger
	// Conn overrides the socket the Transport sends and receives on, for
	// testing. When nil, Transport opens a real unconnected UDP socket.
	Conn packetConn
}

// Transport is the single shared outbound UDP socket this resolver uses to
// talk to whichever name server it is currently probing. Unlike a
// connected socket per destination, one socket is reused across every
// query this process makes, matching the original resolver's single `cs`.
type Transport struct {
	conn     packetConn
	timeout  time.Duration
	attempts int
	logger   log.Logger
}

// New opens (or adopts, in tests) the shared outbound socket.
func New(opts Options) (*Transport, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Logger == nil {
		opts.Logger = log.GetLogger()
	}
	conn := opts.Conn
	if conn == nil {
		c, err := net.ListenUDP("udp4", &net.UDPAddr{})
		if err != nil {
			return nil, err
		}
		conn = c
	}
	return &Transport{conn: conn, timeout: opts.Timeout, attempts: opts.Attempts, logger: opts.Logger}, nil
}

// Close releases the underlying socket.
func (t *Transport) Close() error {
	return t.conn.Close()
}

// Query sends question to server as a single iterative request carrying id,
// retrying up to Attempts times on timeout, and returns the decoded
// response along with the round-trip latency of the attempt that
// succeeded. If every attempt is exhausted, it returns ErrExhausted.
func (t *Transport) Query(id uint16, q domain.Question, server domain.InetAddr) (domain.Message, time.Duration, error) {
	payload, err := wire.EncodeQuery(id, q)
	if err != nil {
		return domain.Message{}, 0, err
	}
	addr := server.UDPAddr(dnsPort)

	var lastErr error
	for attempt := 1; attempt <= t.attempts; attempt++ {
		resp, rtt, err := t.attempt(payload, id, addr)
		if err == nil {
			return resp, rtt, nil
		}
		lastErr = err
		t.logger.Debug(map[string]any{
			"server":  server.String(),
			"attempt": attempt,
			"error":   err.Error(),
		}, "upstream query attempt failed")
	}
	t.logger.Warn(map[string]any{
		"server":  server.String(),
		"name":    q.Name.String(),
		"type":    q.Type.String(),
		"lastErr": lastErr,
	}, "upstream query exhausted all attempts")
	return domain.Message{}, 0, ErrExhausted
}

func (t *Transport) attempt(payload []byte, id uint16, addr *net.UDPAddr) (domain.Message, time.Duration, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return domain.Message{}, 0, err
	}
	start := time.Now()
	if _, err := t.conn.WriteTo(payload, addr); err != nil {
		return domain.Message{}, 0, err
	}

	buf := make([]byte, maxUDPReadSize)
	for {
		n, from, err := t.conn.ReadFrom(buf)
		if err != nil {
			return domain.Message{}, 0, err
		}
		rtt := time.Since(start)
		if u, ok := from.(*net.UDPAddr); ok && !u.IP.Equal(addr.IP) {
			// A reply from a server we didn't just ask; ignore it and keep
			// waiting out this attempt's deadline rather than accepting a
			// spoofed or stale packet.
			continue
		}
		msg, err := wire.DecodeResponse(buf[:n], id)
		if err != nil {
			return domain.Message{}, 0, err
		}
		return msg, rtt, nil
	}
}

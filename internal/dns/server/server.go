// Package server implements the single-threaded, synchronous UDP request
// loop: read one client datagram, resolve it to completion, reply, repeat.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/ncsdns/resolver/internal/dns/common/log"
	"github.com/ncsdns/resolver/internal/dns/domain"
	"github.com/ncsdns/resolver/internal/dns/resolver"
	"github.com/ncsdns/resolver/internal/dns/wire"
)

// ErrBannerFailed wraps any error encountered writing or flushing the
// startup banner; cmd/ncsdnsd maps it to exit code 1.
var ErrBannerFailed = errors.New("server: failed to write startup banner")

const maxUDPDatagramSize = 512

// Resolver is the narrow collaborator the request loop needs from the
// resolution engine.
type Resolver interface {
	Resolve(id uint16, q domain.Question) resolver.Result
}

// Options configures a Server.
type Options struct {
	// Port to bind. 0 selects an ephemeral port.
	Port int
	// Argv0 is the program name used in the startup banner.
	Argv0    string
	Resolver Resolver
	Logger   log.Logger
	// Out receives the startup banner; defaults to os.Stdout.
	Out io.Writer
}

// Server owns the single server-side UDP socket and the request loop that
// reads from it.
type Server struct {
	port     int
	argv0    string
	resolver Resolver
	logger   log.Logger
	out      io.Writer
	conn     *net.UDPConn
}

// New builds a Server from opts, applying defaults for anything the caller
// left zero.
func New(opts Options) *Server {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Server{
		port:     opts.Port,
		argv0:    opts.Argv0,
		resolver: opts.Resolver,
		logger:   logger,
		out:      out,
	}
}

// Addr returns the bound local address. Only meaningful after ListenAndServe
// has started.
func (s *Server) Addr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// ListenAndServe binds the server socket, writes and flushes the startup
// banner, and then loops reading and answering client datagrams until ctx
// is cancelled. It returns nil on clean cancellation, or a wrapped
// ErrBannerFailed if the banner could not be produced.
func (s *Server) ListenAndServe(ctx context.Context) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: s.port})
	if err != nil {
		return fmt.Errorf("server: failed to bind udp socket: %w", err)
	}
	s.conn = conn
	defer conn.Close()

	actualPort := conn.LocalAddr().(*net.UDPAddr).Port
	if err := s.writeBanner(actualPort); err != nil {
		return fmt.Errorf("%w: %v", ErrBannerFailed, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, maxUDPDatagramSize)
	for {
		n, clientAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn(map[string]any{"error": err.Error()}, "failed to read udp datagram")
			continue
		}
		s.handleDatagram(buf[:n], clientAddr)
	}
}

// writeBanner writes the exact, single-line startup announcement the
// external test harness parses, and flushes it immediately.
func (s *Server) writeBanner(port int) error {
	banner := fmt.Sprintf("%s: listening on port %d\n", s.argv0, port)
	if _, err := io.WriteString(s.out, banner); err != nil {
		return err
	}
	if f, ok := s.out.(*os.File); ok {
		return f.Sync()
	}
	return nil
}

// handleDatagram resolves a single client query to completion and sends
// back a well-formed reply. A datagram this resolver cannot parse is
// logged and dropped without a reply: it is the one case where silence is
// the correct response, since
// there is no question to echo back.
func (s *Server) handleDatagram(data []byte, clientAddr *net.UDPAddr) {
	header, q, err := wire.DecodeQuery(data)
	if err != nil {
		s.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"error":  err.Error(),
		}, "dropping unparseable client datagram")
		return
	}

	s.logger.Debug(map[string]any{
		"client": clientAddr.String(),
		"id":     header.ID,
		"name":   q.Name.String(),
		"type":   q.Type.String(),
	}, "received query")

	result := s.resolver.Resolve(header.ID, q)
	reply := domain.NewReply(header.ID, false, q, result.RCode, result.Answer, result.Authority, result.Additional)

	payload, err := wire.EncodeReply(reply)
	if err != nil {
		s.logger.Error(map[string]any{
			"client": clientAddr.String(),
			"id":     header.ID,
			"error":  err.Error(),
		}, "failed to encode reply")
		return
	}

	if _, err := s.conn.WriteToUDP(payload, clientAddr); err != nil {
		s.logger.Error(map[string]any{
			"client": clientAddr.String(),
			"id":     header.ID,
			"error":  err.Error(),
		}, "failed to send reply")
	}
}

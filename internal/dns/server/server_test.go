package server

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncsdns/resolver/internal/dns/common/log"
	"github.com/ncsdns/resolver/internal/dns/domain"
	"github.com/ncsdns/resolver/internal/dns/resolver"
	"github.com/ncsdns/resolver/internal/dns/wire"
)

type fakeResolver struct {
	result    resolver.Result
	lastID    uint16
	lastQ     domain.Question
	wasCalled bool
}

func (f *fakeResolver) Resolve(id uint16, q domain.Question) resolver.Result {
	f.wasCalled = true
	f.lastID = id
	f.lastQ = q
	return f.result
}

func waitForCondition(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func startTestServer(t *testing.T, res Resolver) (*Server, func()) {
	t.Helper()
	var out bytes.Buffer
	srv := New(Options{Port: 0, Argv0: "ncsdnsd", Resolver: res, Logger: log.NewNoopLogger(), Out: &out})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.ListenAndServe(ctx)
	}()

	waitForCondition(t, func() bool { return srv.Addr() != nil }, time.Second)
	return srv, func() {
		cancel()
		<-done
	}
}

func TestServer_ListenAndServe_WritesBannerBeforeServing(t *testing.T) {
	var out bytes.Buffer
	srv := New(Options{Port: 0, Argv0: "ncsdnsd", Resolver: &fakeResolver{}, Logger: log.NewNoopLogger(), Out: &out})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.ListenAndServe(ctx)
	}()

	waitForCondition(t, func() bool { return out.Len() > 0 }, time.Second)
	banner := out.String()
	assert.True(t, strings.HasPrefix(banner, "ncsdnsd: listening on port "))
	assert.True(t, strings.HasSuffix(banner, "\n"))

	cancel()
	<-done
}

func TestServer_AnswersClientQueryEndToEnd(t *testing.T) {
	q := domain.NewQuestion(domain.MustDomainName("example.com."), domain.RRTypeA, domain.RRClassIN)
	addr, err := domain.NewInetAddr("93.184.216.34")
	require.NoError(t, err)
	answer := domain.NewResourceRecord(q.Name, domain.RRClassIN, 3600, domain.AData{Addr: addr})

	fr := &fakeResolver{result: resolver.Result{RCode: domain.RCodeNoError, Answer: []domain.ResourceRecord{answer}}}
	srv, stop := startTestServer(t, fr)
	defer stop()

	client, err := net.DialUDP("udp4", nil, srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	queryID := uint16(1234)
	payload, err := wire.EncodeQuery(queryID, q)
	require.NoError(t, err)
	_, err = client.Write(payload)
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, err := client.Read(buf)
	require.NoError(t, err)

	reply, err := wire.DecodeResponse(buf[:n], queryID)
	require.NoError(t, err)
	require.Len(t, reply.Answer, 1)
	assert.True(t, reply.Answer[0].Name.Equal(q.Name))
	assert.Equal(t, addr, reply.Answer[0].Data.(domain.AData).Addr)
	assert.True(t, fr.wasCalled)
	assert.Equal(t, queryID, fr.lastID)
}

func TestServer_DropsUnparseableDatagramWithoutReply(t *testing.T) {
	fr := &fakeResolver{}
	srv, stop := startTestServer(t, fr)
	defer stop()

	client, err := net.DialUDP("udp4", nil, srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte{0x01, 0x02})
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	buf := make([]byte, 512)
	_, err = client.Read(buf)
	assert.Error(t, err, "a malformed datagram must never produce a reply")
	assert.False(t, fr.wasCalled)
}

func TestServer_ReturnsSERVFAILReplyOnResolverFailure(t *testing.T) {
	q := domain.NewQuestion(domain.MustDomainName("example.com."), domain.RRTypeA, domain.RRClassIN)
	fr := &fakeResolver{result: resolver.Result{RCode: domain.RCodeServFail}}
	srv, stop := startTestServer(t, fr)
	defer stop()

	client, err := net.DialUDP("udp4", nil, srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	queryID := uint16(77)
	payload, err := wire.EncodeQuery(queryID, q)
	require.NoError(t, err)
	_, err = client.Write(payload)
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, err := client.Read(buf)
	require.NoError(t, err)

	reply, err := wire.DecodeResponse(buf[:n], queryID)
	require.NoError(t, err)
	assert.Equal(t, domain.RCodeServFail, reply.Header.RCode)
	assert.Empty(t, reply.Answer)
}

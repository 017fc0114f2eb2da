package server

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/linspector/linspector/internal/hub"
	"github.com/linspector/linspector/internal/model"
	"github.com/linspector/linspector/internal/wire"
)

func dialAndHandshake(t *testing.T, ctx context.Context, addr string) net.Conn {
	d := net.Dialer{Timeout: 1 * time.Second}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := c.Write([]byte("LINSPECTORv1")); err != nil {
		t.Fatalf("write magic: %v", err)
	}
	buf := make([]byte, 12)
	if _, err := c.Read(buf); err != nil {
		t.Fatalf("read magic: %v", err)
	}
	return c
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// TestSmokeServer starts the TCP server on an ephemeral port, performs the
// handshake, and verifies a broadcast finding reaches a connected client.
func TestSmokeServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := hub.New()
	srv := NewServer(
		WithHub(h),
		WithCodec(&wire.Codec{}),
		WithHandshakeTimeout(2*time.Second),
		WithFlushInterval(2*time.Millisecond),
	)
	go func() {
		if err := srv.Serve(ctx); err != nil {
			t.Logf("Serve returned: %v", err)
		}
	}()
	select {
	case <-srv.Ready():
	case <-time.After(1 * time.Second):
		t.Fatalf("server did not signal readiness")
	}

	conn := dialAndHandshake(t, ctx, srv.Addr())
	defer conn.Close()

	wait := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(wait) {
		if h.Count() >= 1 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if h.Count() < 1 {
		t.Fatalf("client not registered with hub")
	}

	srv.Hub.Broadcast(model.Finding{Kind: model.FindingChecksumError, Identifier: "0x12"})

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := bytes.Buffer{}
	tmp := make([]byte, 256)
	for buf.Len() < 10 {
		n, err := conn.Read(tmp)
		if err != nil {
			if isTimeout(err) {
				break
			}
			t.Fatalf("read broadcast: %v", err)
		}
		buf.Write(tmp[:n])
	}
	if buf.Len() == 0 {
		t.Fatalf("expected broadcast bytes, got none")
	}
	codec := &wire.Codec{}
	got, err := codec.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if got.Kind != model.FindingChecksumError || got.Identifier != "0x12" {
		t.Fatalf("unexpected decoded finding: %+v", got)
	}
}

// TestSmokeBackpressureDrop ensures a slow client under PolicyDrop stays
// connected while excess findings are dropped.
func TestSmokeBackpressureDrop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h := hub.New()
	h.OutBufSize = 1
	h.Policy = hub.PolicyDrop
	srv := NewServer(WithHub(h), WithCodec(&wire.Codec{}))
	go srv.Serve(ctx)
	<-srv.Ready()
	c1 := dialAndHandshake(t, ctx, srv.Addr())
	defer c1.Close()

	for i := 0; i < 5; i++ {
		srv.Hub.Broadcast(model.Finding{Kind: model.FindingPidParityError})
	}
	_ = c1.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	one := make([]byte, 64)
	_, _ = c1.Read(one)
	_ = c1.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	tmp := make([]byte, 8)
	_, err := c1.Read(tmp)
	if err != nil && !isTimeout(err) && err.Error() == "EOF" {
		t.Fatalf("connection closed unexpectedly under drop policy: %v", err)
	}
}

// TestSmokeBackpressureKick ensures a slow client is disconnected under
// PolicyKick once its outbound buffer overflows.
func TestSmokeBackpressureKick(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h := hub.New()
	h.OutBufSize = 1
	h.Policy = hub.PolicyKick
	srv := NewServer(WithHub(h), WithCodec(&wire.Codec{}))
	go srv.Serve(ctx)
	<-srv.Ready()
	c1 := dialAndHandshake(t, ctx, srv.Addr())
	defer c1.Close()

	for i := 0; i < 10; i++ {
		srv.Hub.Broadcast(model.Finding{Kind: model.FindingScheduleDrift})
		time.Sleep(2 * time.Millisecond)
	}
	_ = c1.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	buf := make([]byte, 16)
	if _, err := c1.Read(buf); err != nil && !isTimeout(err) {
		// expected closure path (EOF) once the server kicks the client
	}
}

// TestSmokeConcurrentClients ensures a broadcast reaches multiple
// simultaneously connected clients.
func TestSmokeConcurrentClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h := hub.New()
	srv := NewServer(WithHub(h), WithCodec(&wire.Codec{}), WithFlushInterval(2*time.Millisecond))
	go srv.Serve(ctx)
	<-srv.Ready()

	const nClients = 5
	conns := make([]net.Conn, 0, nClients)
	for i := 0; i < nClients; i++ {
		conns = append(conns, dialAndHandshake(t, ctx, srv.Addr()))
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	wait := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(wait) {
		if h.Count() == nClients {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	for i := 0; i < 10; i++ {
		srv.Hub.Broadcast(model.Finding{Kind: model.FindingMissedSlot, Identifier: "60"})
	}

	for idx, c := range conns {
		_ = c.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		tmp := make([]byte, 128)
		n, err := c.Read(tmp)
		if err != nil && !isTimeout(err) {
			t.Fatalf("client %d read err: %v", idx, err)
		}
		if n == 0 {
			t.Fatalf("client %d received no data", idx)
		}
	}
}

// TestGracefulShutdown ensures Shutdown closes the listener and all active
// client connections.
func TestGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	h := hub.New()
	srv := NewServer(WithHub(h), WithCodec(&wire.Codec{}))
	go srv.Serve(ctx)
	<-srv.Ready()
	c1 := dialAndHandshake(t, ctx, srv.Addr())
	c2 := dialAndHandshake(t, ctx, srv.Addr())
	wait := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(wait) {
		if h.Count() >= 2 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	sdCtx, sdCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer sdCancel()
	if err := srv.Shutdown(sdCtx); err != nil {
		t.Fatalf("shutdown err: %v", err)
	}
	_ = c1.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 8)
	if _, err := c1.Read(buf); err == nil {
		t.Fatalf("expected c1 read to fail after shutdown")
	}
	_ = c2.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, err := c2.Read(buf); err == nil {
		t.Fatalf("expected c2 read to fail after shutdown")
	}
}

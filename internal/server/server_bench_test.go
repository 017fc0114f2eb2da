package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/linspector/linspector/internal/hub"
	"github.com/linspector/linspector/internal/model"
	"github.com/linspector/linspector/internal/wire"
)

// startInMemoryServer launches the server on :0 for benchmarks.
func startInMemoryServer(b *testing.B, h *hub.Hub) (*Server, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(WithHub(h), WithCodec(&wire.Codec{}))
	go func() { _ = srv.Serve(ctx) }()
	select {
	case <-srv.Ready():
	case <-time.After(time.Second):
		b.Fatalf("server not ready")
	}
	return srv, cancel
}

func BenchmarkServerWriterFlush(b *testing.B) {
	h := hub.New()
	h.OutBufSize = 0
	srv, cancel := startInMemoryServer(b, h)
	defer cancel()
	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		b.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(time.Second))
	if _, err := conn.Write([]byte("LINSPECTORv1")); err != nil {
		b.Fatalf("handshake write: %v", err)
	}
	buf := make([]byte, len("LINSPECTORv1"))
	if _, err := conn.Read(buf); err != nil {
		b.Fatalf("handshake read: %v", err)
	}

	cl := &hub.Client{Out: make(chan model.Finding, 1024), Closed: make(chan struct{})}
	h.Add(cl)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cl.Out <- model.Finding{Kind: model.FindingChecksumError, Sequence: uint64(i)}
	}
	b.StopTimer()
	close(cl.Closed)
}

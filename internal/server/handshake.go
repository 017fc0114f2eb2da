package server

import (
	"context"
	"net"

	"github.com/linspector/linspector/internal/wire"
)

// Handshake runs the required TCP hello exchange before a client is
// registered with the hub.
func (s *Server) Handshake(ctx context.Context, c net.Conn) error {
	return wire.Handshake(ctx, c, s.handshakeTimeout)
}

package model

import (
	"context"
	"net"
)

// SecurityLayer produces the network listener the server accepts on,
// either TLS-wrapped or plain.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is the transport server lifecycle contract.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}

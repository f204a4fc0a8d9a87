// Package udp implements generator.Transport over a connected UDP socket.
// UDP has no partial writes: each block is emitted as one datagram.
package udp

import (
	"context"
	"net"
)

// Transport sends one block per datagram to a fixed UDP peer.
type Transport struct {
	addr string
	conn net.Conn
}

// New constructs a Transport targeting addr (host:port).
func New(addr string) *Transport {
	return &Transport{addr: addr}
}

func (t *Transport) Connect(ctx context.Context) error {
	conn, err := net.Dial("udp", t.addr)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *Transport) Write(ctx context.Context, b []byte) (int, error) {
	return t.conn.Write(b)
}

func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

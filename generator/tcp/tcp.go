// Package tcp implements generator.Transport over a TCP stream connection.
package tcp

import (
	"context"
	"net"
	"time"
)

// Transport is a reconnecting TCP client. It is not safe for concurrent
// use; the generator adapter drives it from a single goroutine.
type Transport struct {
	addr string
	conn net.Conn
}

// New constructs a Transport dialing addr (host:port) on each Connect.
func New(addr string) *Transport {
	return &Transport{addr: addr}
}

func (t *Transport) Connect(ctx context.Context) error {
	d := net.Dialer{Timeout: 1 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

// Write loops until every byte of b has been emitted or a write error
// occurs, per the adapter template's "partial writes on streams must loop"
// rule.
func (t *Transport) Write(ctx context.Context, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := t.conn.Write(b[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

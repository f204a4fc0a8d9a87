// Package unix implements generator.Transport over a Unix domain stream
// socket, sharing TCP's partial-write looping semantics.
package unix

import (
	"context"
	"net"
)

// Transport is a reconnecting Unix domain socket client.
type Transport struct {
	path string
	conn net.Conn
}

// New constructs a Transport dialing the Unix socket at path on each
// Connect.
func New(path string) *Transport {
	return &Transport{path: path}
}

func (t *Transport) Connect(ctx context.Context) error {
	conn, err := net.Dial("unix", t.path)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

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

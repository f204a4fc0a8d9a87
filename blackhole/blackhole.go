// Package blackhole implements passive absorber servers: they accept
// connections or datagrams and discard everything received, counting bytes
// and packets so a run can verify the target-adjacent path moved data
// without needing a real target.
package blackhole

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/telemetry"
)

// Config parameterises a blackhole server.
type Config struct {
	Kind     string // "tcp", "udp", or "unix"
	Addr     string // host:port for tcp/udp, socket path for unix
	Shutdown *shutdown.Subscriber
	Sink     telemetry.Sink
	Labels   telemetry.Labels
}

// Server absorbs and discards everything it receives on Addr.
type Server struct {
	cfg Config

	stopped int32 // 1 once closeOnStop has torn down the listener

	bytesReceived  telemetry.Counter
	packetReceived telemetry.Counter
}

// New constructs a Server and registers its metrics.
func New(cfg Config) *Server {
	labels := telemetry.Merge(telemetry.Labels{
		"component":      "blackhole",
		"component_name": cfg.Kind,
	}, cfg.Labels)

	return &Server{
		cfg:            cfg,
		bytesReceived:  cfg.Sink.Counter("bytes_received", labels),
		packetReceived: cfg.Sink.Counter("packet_received", labels),
	}
}

// Serve listens and absorbs until ctx is cancelled or shutdown fires.
func (s *Server) Serve(ctx context.Context) error {
	if s.cfg.Shutdown != nil {
		defer s.cfg.Shutdown.Release()
	}
	switch s.cfg.Kind {
	case "udp":
		return s.serveUDP(ctx, "udp")
	case "unix":
		return s.serveStream(ctx, "unix")
	default:
		return s.serveStream(ctx, "tcp")
	}
}

// closeOnStop closes closer once ctx ends or shutdown fires, whichever
// comes first, so a blocking Accept()/ReadFromUDP() unblocks promptly.
func (s *Server) closeOnStop(ctx context.Context, closer interface{ Close() error }) {
	var shutdownRecv <-chan struct{}
	if s.cfg.Shutdown != nil {
		shutdownRecv = s.cfg.Shutdown.Recv()
	}
	select {
	case <-ctx.Done():
	case <-shutdownRecv:
	}
	atomic.StoreInt32(&s.stopped, 1)
	closer.Close()
}

func (s *Server) serveStream(ctx context.Context, network string) error {
	ln, err := net.Listen(network, s.cfg.Addr)
	if err != nil {
		return err
	}
	go s.closeOnStop(ctx, ln)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if atomic.LoadInt32(&s.stopped) == 1 {
				return nil
			}
			return err
		}
		go s.drain(conn)
	}
}

func (s *Server) drain(conn net.Conn) {
	defer conn.Close()
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.bytesReceived.Add(float64(n))
			s.packetReceived.Add(1)
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) serveUDP(ctx context.Context, network string) error {
	addr, err := net.ResolveUDPAddr(network, s.cfg.Addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP(network, addr)
	if err != nil {
		return err
	}
	go s.closeOnStop(ctx, conn)

	buf := make([]byte, 64*1024)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if n > 0 {
			s.bytesReceived.Add(float64(n))
			s.packetReceived.Add(1)
		}
		if err != nil {
			if atomic.LoadInt32(&s.stopped) == 1 {
				return nil
			}
			return err
		}
	}
}

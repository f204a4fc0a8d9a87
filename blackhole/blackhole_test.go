package blackhole

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/telemetry"
)

type nopSink struct{}

func (nopSink) Counter(name string, labels telemetry.Labels) telemetry.Counter { return nopMetric{} }
func (nopSink) Gauge(name string, labels telemetry.Labels) telemetry.Gauge     { return nopMetric{} }

type nopMetric struct{}

func (nopMetric) Add(float64) {}
func (nopMetric) Set(float64) {}

func TestServeAbsorbsBytesAndStopsOnShutdown(t *testing.T) {
	notifier := shutdown.New()
	s := New(Config{
		Kind:     "tcp",
		Addr:     "127.0.0.1:0",
		Shutdown: notifier.Subscribe(),
		Sink:     nopSink{},
	})

	// Serve needs a fixed port to connect to below, so resolve one first.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	s.cfg.Addr = addr

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background()) }()

	// Give the listener a moment to bind, then write through it.
	var conn net.Conn
	for i := 0; i < 20; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	conn.Write([]byte("hello"))
	conn.Close()

	time.Sleep(20 * time.Millisecond)
	notifier.Signal()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not return after shutdown was signalled")
	}
}

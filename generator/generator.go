// Package generator implements the shared send-loop template every
// wire-level load generator is built from: pull a block from the cache,
// wait for throttle capacity, write it to a transport, repeat — with
// reconnect-on-failure and cooperative shutdown woven through every step.
package generator

import (
	"context"
	"errors"
	"time"

	coderrors "github.com/lading-rig/lading/errors"

	"github.com/lading-rig/lading/cache"
	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/targetstart"
	"github.com/lading-rig/lading/telemetry"
	"github.com/lading-rig/lading/throttle"
)

// Transport is the per-wire-protocol collaborator a Generator drives. A
// single Transport instance is neither safe nor expected to be shared
// across Generators.
type Transport interface {
	// Connect establishes (or re-establishes) a connection. A non-nil error
	// is treated as a transient connection_failure, never fatal.
	Connect(ctx context.Context) error
	// Write emits the full contents of b, looping internally past partial
	// writes, and reports how many bytes were actually written. A non-nil
	// error drops the connection and re-enters the connect phase.
	Write(ctx context.Context, b []byte) (int, error)
	// Close releases the current connection, if any. Called on shutdown
	// and before every reconnect attempt.
	Close() error
}

// Config parameterises a Generator over its collaborators.
type Config struct {
	Kind            string // component_name label, e.g. "tcp", "grpc"
	ID              string // optional instance label for duplicated generators
	Cache           cache.Cache
	Throttle        *throttle.Throttle
	Shutdown        *shutdown.Subscriber
	// TargetStart, if set, is waited on before the send loop starts
	// (spec.md §9 "Target-start synchronisation"). Nil skips the wait,
	// for tests and components with no target dependency.
	TargetStart     *targetstart.Subscription
	Transport       Transport
	BytesPerSecond  float64
	ReconnectBackoff time.Duration // minimum sleep between connect attempts
	Sink            telemetry.Sink
	Labels          telemetry.Labels
}

// Generator drives one Transport through the shared adapter template.
type Generator struct {
	cfg Config

	bytesWritten     telemetry.Counter
	packetsSent      telemetry.Counter
	requestFailure   func(errKind string) telemetry.Counter
	connectionFailure func(errKind string) telemetry.Counter
}

// New constructs a Generator and registers its static metrics.
func New(cfg Config) *Generator {
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = 100 * time.Millisecond
	}
	labels := telemetry.Merge(telemetry.Labels{
		"component":      "generator",
		"component_name": cfg.Kind,
	}, cfg.Labels)
	if cfg.ID != "" {
		labels["id"] = cfg.ID
	}

	g := &Generator{
		cfg:          cfg,
		bytesWritten: cfg.Sink.Counter("bytes_written", labels),
		packetsSent:  cfg.Sink.Counter("packets_sent", labels),
	}
	g.requestFailure = func(errKind string) telemetry.Counter {
		return cfg.Sink.Counter("request_failure", telemetry.Merge(labels, telemetry.Labels{"error": errKind}))
	}
	g.connectionFailure = func(errKind string) telemetry.Counter {
		return cfg.Sink.Counter("connection_failure", telemetry.Merge(labels, telemetry.Labels{"error": errKind}))
	}
	cfg.Sink.Gauge("bytes_per_second", labels).Set(cfg.BytesPerSecond)

	return g
}

// Spin runs the send loop until the shutdown subscriber fires or ctx ends.
func (g *Generator) Spin(ctx context.Context) error {
	defer g.cfg.Shutdown.Release()

	if g.cfg.TargetStart != nil {
		if _, err := g.cfg.TargetStart.Wait(ctx); err != nil {
			return nil
		}
	}

	recv := g.cfg.Cache.Spin(ctx)
	connected := false

	for {
		select {
		case <-g.cfg.Shutdown.Recv():
			g.cfg.Transport.Close()
			return nil
		case <-ctx.Done():
			g.cfg.Transport.Close()
			return nil
		default:
		}

		if !connected {
			if err := g.cfg.Transport.Connect(ctx); err != nil {
				g.connectionFailure(err.Error()).Add(1)
				if !g.sleepOrShutdown(ctx, g.cfg.ReconnectBackoff) {
					return nil
				}
				continue
			}
			connected = true
		}

		blk, err := recv.Peek(ctx)
		if err != nil {
			g.cfg.Transport.Close()
			return nil
		}

		if err := g.waitForThrottle(ctx, blk.TotalBytes); err != nil {
			g.cfg.Transport.Close()
			if errors.Is(err, throttle.ErrRequestExceedsBurst) {
				g.requestFailure("request_exceeds_burst").Add(1)
				return coderrors.Wrap(coderrors.CodeBlockCreation, err,
					"generator %s: block of %d bytes can never be admitted by its throttle", g.cfg.Kind, blk.TotalBytes)
			}
			return nil
		}

		if _, err := recv.Next(ctx); err != nil {
			g.cfg.Transport.Close()
			return nil
		}

		n, err := g.cfg.Transport.Write(ctx, blk.Bytes)
		g.bytesWritten.Add(float64(n))
		if err != nil {
			g.requestFailure(err.Error()).Add(1)
			g.cfg.Transport.Close()
			connected = false
			continue
		}
		g.packetsSent.Add(1)
	}
}

// waitForThrottle races the throttle grant against shutdown/ctx. A non-nil
// error is either the wrapped cancellation (shutdown fired or ctx ended) or
// throttle.ErrRequestExceedsBurst, which callers must treat as generator-fatal
// rather than as an ordinary cancellation: no amount of waiting ever admits a
// block larger than the throttle's own burst capacity.
func (g *Generator) waitForThrottle(ctx context.Context, n int) error {
	throttleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	abort := make(chan struct{})
	go func() {
		select {
		case <-g.cfg.Shutdown.Recv():
			cancel()
		case <-abort:
		}
	}()
	defer close(abort)

	return g.cfg.Throttle.WaitFor(throttleCtx, n)
}

// sleepOrShutdown sleeps for d, returning false early (without completing
// the sleep) if shutdown fires or ctx ends first.
func (g *Generator) sleepOrShutdown(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-g.cfg.Shutdown.Recv():
		return false
	case <-ctx.Done():
		return false
	}
}

// Package file implements the file generator: unlike the wire generators it
// has no Transport, instead appending serialised blocks to a local file
// that rotates once it crosses a configured size.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	coderrors "github.com/lading-rig/lading/errors"

	"github.com/lading-rig/lading/cache"
	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/targetstart"
	"github.com/lading-rig/lading/telemetry"
	"github.com/lading-rig/lading/throttle"
)

// Config parameterises a file Generator.
type Config struct {
	Cache               cache.Cache
	Throttle            *throttle.Throttle
	Shutdown            *shutdown.Subscriber
	// TargetStart, if set, is waited on before the first file is opened
	// (spec.md §9 "Target-start synchronisation"). The file generator has
	// no network target, so orchestrator leaves this nil in practice; it
	// exists for parity with the wire generators and for tests.
	TargetStart         *targetstart.Subscription
	PathTemplate        string // contains a literal "%NNN%" placeholder
	MaximumBytesPerFile int64
	Rotate              bool
	// FileIndex is fetch-added to assign each duplicate worker, and every
	// rotation of a given worker, a monotonically increasing index. It is
	// shared across duplicate workers of the same generator config.
	FileIndex      *int64
	Sink           telemetry.Sink
	Labels         telemetry.Labels
	BytesPerSecond float64
}

// Generator appends cache blocks to a local file, rotating per
// MaximumBytesPerFile.
type Generator struct {
	cfg Config

	currentPath string
	current     *os.File
	buf         *bufio.Writer
	written     int64

	bytesWritten   telemetry.Counter
	packetsSent    telemetry.Counter
	requestFailure telemetry.Counter
}

// New constructs a Generator and registers its static metrics.
func New(cfg Config) *Generator {
	labels := telemetry.Merge(telemetry.Labels{
		"component":      "generator",
		"component_name": "file",
	}, cfg.Labels)

	g := &Generator{
		cfg:            cfg,
		bytesWritten:   cfg.Sink.Counter("bytes_written", labels),
		packetsSent:    cfg.Sink.Counter("packets_sent", labels),
		requestFailure: cfg.Sink.Counter("request_failure", labels),
	}
	cfg.Sink.Gauge("bytes_per_second", labels).Set(cfg.BytesPerSecond)
	return g
}

func (g *Generator) nextPath() string {
	idx := atomic.AddInt64(g.cfg.FileIndex, 1) - 1
	return strings.Replace(g.cfg.PathTemplate, "%NNN%", fmt.Sprintf("%04d", idx), 1)
}

func (g *Generator) openNext() error {
	path := g.nextPath()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	g.currentPath = path
	g.current = f
	g.buf = bufio.NewWriter(f)
	g.written = 0
	return nil
}

func (g *Generator) flush() error {
	if g.buf == nil {
		return nil
	}
	if err := g.buf.Flush(); err != nil {
		return err
	}
	return g.current.Close()
}

// rotate flushes and closes the current file, optionally unlinking it, then
// opens a freshly indexed file. Existing holders of the old descriptor keep
// it valid even after unlink (standard POSIX semantics).
func (g *Generator) rotate() error {
	oldPath := g.currentPath
	if err := g.flush(); err != nil {
		return err
	}
	if g.cfg.Rotate {
		os.Remove(oldPath)
	}
	return g.openNext()
}

// Spin runs the send loop until shutdown fires or ctx ends.
func (g *Generator) Spin(ctx context.Context) error {
	defer g.cfg.Shutdown.Release()

	if g.cfg.TargetStart != nil {
		if _, err := g.cfg.TargetStart.Wait(ctx); err != nil {
			return nil
		}
	}

	if err := g.openNext(); err != nil {
		return err
	}
	defer g.flush()

	recv := g.cfg.Cache.Spin(ctx)

	for {
		select {
		case <-g.cfg.Shutdown.Recv():
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		blk, err := recv.Peek(ctx)
		if err != nil {
			return nil
		}

		if err := g.waitForThrottle(ctx, blk.TotalBytes); err != nil {
			if errors.Is(err, throttle.ErrRequestExceedsBurst) {
				g.requestFailure.Add(1)
				return coderrors.Wrap(coderrors.CodeBlockCreation, err,
					"generator file: block of %d bytes can never be admitted by its throttle", blk.TotalBytes)
			}
			return nil
		}
		if _, err := recv.Next(ctx); err != nil {
			return nil
		}

		n, err := g.buf.Write(blk.Bytes)
		g.written += int64(n)
		g.bytesWritten.Add(float64(n))
		if err != nil {
			g.requestFailure.Add(1)
			return err
		}
		g.packetsSent.Add(1)

		if g.written > g.cfg.MaximumBytesPerFile {
			if err := g.rotate(); err != nil {
				return err
			}
		}
	}
}

// waitForThrottle races the throttle grant against shutdown/ctx. See the
// wire generator's method of the same name for why ErrRequestExceedsBurst
// must be distinguished from an ordinary cancellation.
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

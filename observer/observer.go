// Package observer samples the target process's own resource usage
// (RSS, CPU) at a fixed interval via gopsutil, publishing it as telemetry
// and optionally triggering an early shutdown if the target's RSS crosses a
// configured limit.
package observer

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/telemetry"
)

const sampleInterval = 1 * time.Second

// Config parameterises an Observer.
type Config struct {
	PID int32
	// RSSBytesLimit triggers Notifier.Signal() once the target's RSS
	// exceeds it; zero disables the limit.
	RSSBytesLimit int64
	// Notifier is signalled when RSSBytesLimit is crossed.
	Notifier *shutdown.Notifier
	// Shutdown, if set, ends Run early once shutdown fires, mirroring
	// every other spawned worker (spec.md §9's "every spawned worker...
	// selects on" the shutdown broadcast).
	Shutdown *shutdown.Subscriber
	Sink     telemetry.Sink
	Labels   telemetry.Labels
}

// Observer samples one target process.
type Observer struct {
	cfg Config
	rss telemetry.Gauge
	cpu telemetry.Gauge
}

// New constructs an Observer and registers its gauges.
func New(cfg Config) *Observer {
	labels := telemetry.Merge(telemetry.Labels{
		"component": "observer",
	}, cfg.Labels)

	return &Observer{
		cfg: cfg,
		rss: cfg.Sink.Gauge("target_rss_bytes", labels),
		cpu: cfg.Sink.Gauge("target_cpu_percent", labels),
	}
}

// Run samples the target at sampleInterval until ctx is cancelled, shutdown
// fires, or the target process can no longer be found (it has exited).
func (o *Observer) Run(ctx context.Context) error {
	if o.cfg.Shutdown != nil {
		defer o.cfg.Shutdown.Release()
	}

	proc, err := process.NewProcess(o.cfg.PID)
	if err != nil {
		return err
	}

	var shutdownRecv <-chan struct{}
	if o.cfg.Shutdown != nil {
		shutdownRecv = o.cfg.Shutdown.Recv()
	}

	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.sampleOnce(proc)
		case <-shutdownRecv:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (o *Observer) sampleOnce(proc *process.Process) {
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		o.rss.Set(float64(mem.RSS))
		if o.cfg.RSSBytesLimit > 0 && int64(mem.RSS) > o.cfg.RSSBytesLimit && o.cfg.Notifier != nil {
			o.cfg.Notifier.Signal()
		}
	}
	if pct, err := proc.CPUPercent(); err == nil {
		o.cpu.Set(pct)
	}
}

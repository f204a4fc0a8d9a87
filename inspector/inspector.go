// Package inspector implements the rig's optional self-report worker:
// spec.md §4.6 step 4 spawns it "if configured and not disabled on the
// command line", but treats its own behaviour as an external collaborator
// ("interfaces only" per §1's scope). This is the thin, in-scope contract
// it consumes: a periodic log line summarising run progress, modeled on
// nabbar-golib's small poll-and-log worker shape (the monitor family of
// packages), trimmed to drop their pool/metrics/lifecycle machinery since
// this rig only ever runs one inspector per run.
package inspector

import (
	"context"
	"time"

	"github.com/lading-rig/lading/logger"
	"github.com/lading-rig/lading/shutdown"
)

// Config parameterises an Inspector.
type Config struct {
	Interval time.Duration
	Shutdown *shutdown.Subscriber
	Log      logger.Logger

	// GeneratorCount and BlackholeCount are reported verbatim in each tick,
	// giving an operator a heartbeat that the run is still alive and what
	// it's driving.
	GeneratorCount int
	BlackholeCount int
}

// Inspector logs a periodic status line until shutdown fires.
type Inspector struct {
	cfg Config
}

// New constructs an Inspector.
func New(cfg Config) *Inspector {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Inspector{cfg: cfg}
}

// Run logs a status line every Config.Interval until ctx ends or shutdown
// fires, whichever comes first.
func (i *Inspector) Run(ctx context.Context) {
	defer i.cfg.Shutdown.Release()

	ticker := time.NewTicker(i.cfg.Interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ticker.C:
			i.cfg.Log.Info("run in progress: elapsed=%s generators=%d blackholes=%d",
				time.Since(start).Round(time.Second), i.cfg.GeneratorCount, i.cfg.BlackholeCount)
		case <-i.cfg.Shutdown.Recv():
			return
		case <-ctx.Done():
			return
		}
	}
}

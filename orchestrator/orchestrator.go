// Package orchestrator implements the rig's run orchestrator (spec.md
// §4.6, component C6): it is the only component that constructs every
// other one, installs telemetry, spawns generators/blackholes/scrapers/
// observer/target, drives the warmup → sampling → shutdown state machine,
// and bounds the grace period on termination.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/lading-rig/lading/blackhole"
	"github.com/lading-rig/lading/config"
	coderrors "github.com/lading-rig/lading/errors"
	"github.com/lading-rig/lading/logger"
	"github.com/lading-rig/lading/observer"
	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/target"
	"github.com/lading-rig/lading/targetmetrics"
	"github.com/lading-rig/lading/targetstart"
	"github.com/lading-rig/lading/telemetry"

	"github.com/lading-rig/lading/inspector"
)

// Result is what Run reports back to the CLI entrypoint.
type Result struct {
	// ExitCode is 0 unless the target exited unexpectedly (spec.md §7
	// TargetExit row: "Fatal: exit code 1 after draining").
	ExitCode int
	// GeneratorErrors collects non-fatal BlockCreation (and similar)
	// failures: the generator that raised one never started, but the run
	// otherwise proceeds (spec.md §7 BlockCreation row).
	GeneratorErrors *multierror.Error
}

// Run drives one complete rig run: Init → TelemetryInstalled →
// WorkersSpawned → Warmup → Sampling → Draining → Terminated (spec.md
// §4.6's state machine). It returns once every worker has been given the
// chance to drain (or the grace period has elapsed).
func Run(ctx context.Context, cfg config.RunConfig, log logger.Logger) (Result, error) {
	cfg.ApplyDefaults()

	sink, err := installTelemetry(cfg.Telemetry)
	if err != nil {
		return Result{}, err
	}
	defer sink.close()

	sh := shutdown.New()
	ts := targetstart.New()

	var wg sync.WaitGroup
	var targetExitErr error
	var targetExitOnce sync.Once
	targetExited := make(chan struct{})

	result := Result{}

	// --- generators (spec.md §4.6 step 3) ---
	for _, gc := range cfg.Generators {
		runs, err := spawnGenerators(gc, cfg.GlobalLabels, sh, ts, sink)
		if err != nil {
			log.Error("generator %s/%s failed to construct: %v", gc.Transport, gc.ID, err)
			result.GeneratorErrors = multierror.Append(result.GeneratorErrors, err)
			continue
		}
		for _, run := range runs {
			wg.Add(1)
			go func(run func(context.Context) error) {
				defer wg.Done()
				if err := run(ctx); err != nil {
					log.Warning("generator exited with error: %v", err)
				}
			}(run)
		}
	}

	// --- inspector (step 4) ---
	if cfg.Inspector.Enabled && !cfg.DisableInspector {
		insp := inspector.New(inspector.Config{
			Interval:       cfg.Inspector.Interval,
			Shutdown:       sh.Subscribe(),
			Log:            log,
			GeneratorCount: len(cfg.Generators),
			BlackholeCount: len(cfg.Blackholes),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			insp.Run(ctx)
		}()
	}

	// --- blackholes (step 5) ---
	for _, bc := range cfg.Blackholes {
		b := blackhole.New(blackhole.Config{
			Kind:     bc.Kind,
			Addr:     bc.Addr,
			Shutdown: sh.Subscribe(),
			Sink:     sink,
			Labels:   telemetry.Labels(cfg.GlobalLabels),
		})
		wg.Add(1)
		go func(bc config.BlackholeConfig) {
			defer wg.Done()
			if err := b.Serve(ctx); err != nil {
				log.Warning("blackhole %s/%s exited with error: %v", bc.Kind, bc.Addr, err)
			}
		}(bc)
	}

	// --- target metrics scrapers (step 6) ---
	for _, tmc := range cfg.TargetMetrics {
		format := targetmetrics.Prometheus
		if tmc.Format == "expvar" {
			format = targetmetrics.ExpvarJSON
		}
		scraper := targetmetrics.New(targetmetrics.Config{
			URL:      tmc.URL,
			Format:   format,
			Shutdown: sh.Subscribe(),
			Sink:     sink,
			Labels:   telemetry.Labels(cfg.GlobalLabels),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			scraper.Run(ctx)
		}()
	}

	// --- target + observer (step 7) ---
	th, err := buildTargetHandle(cfg.Target)
	if err != nil {
		return result, fmt.Errorf("orchestrator: constructing target: %w", err)
	}

	if cfg.Target.Mode == config.TargetNone {
		ts.Publish(target.NewNone())
	} else {
		if err := th.Start(ctx); err != nil {
			return result, fmt.Errorf("orchestrator: starting target: %w", err)
		}
		ts.Publish(th)

		obs := observer.New(observer.Config{
			PID:           th.PID,
			RSSBytesLimit: cfg.Target.RSSBytesLimit,
			Notifier:      sh,
			Shutdown:      sh.Subscribe(),
			Sink:          sink,
			Labels:        telemetry.Labels(cfg.GlobalLabels),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs.Run(ctx)
		}()

		if th.Mode == target.Binary {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := th.Wait()
				targetExitOnce.Do(func() {
					if err != nil {
						err = coderrors.Wrap(coderrors.CodeTargetExit, err, "target process exited")
					}
					targetExitErr = err
					close(targetExited)
				})
			}()
		}
	}

	// --- race: ctrl-c vs. warmup+experiment duration vs. target exit (step 8) ---
	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	durationTimer := time.NewTimer(cfg.WarmupDuration + cfg.ExperimentDuration)
	defer durationTimer.Stop()

	select {
	case <-sigCtx.Done():
		log.Info("shutdown: received interrupt")
	case <-durationTimer.C:
		log.Info("shutdown: warmup + experiment duration elapsed")
	case <-targetExited:
		log.Info("shutdown: target exited")
	case <-ctx.Done():
	}
	sh.Signal()

	// --- drain, then force (step 9) ---
	half := cfg.MaxShutdownDelay / 2
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), half)
	if !sh.Drain(drainCtx) {
		log.Warning("%v", coderrors.New(coderrors.CodeShutdownTimeout, "grace period elapsed before every worker quiesced"))
	}
	cancelDrain()

	forceCtx, cancelForce := context.WithTimeout(context.Background(), half)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-forceCtx.Done():
		log.Warning("shutdown: forcing runtime drop after max_shutdown_delay")
	}
	cancelForce()

	result.ExitCode = 0
	if targetExitErr != nil {
		result.ExitCode = 1
	}
	return result, nil
}

// buildTargetHandle constructs the target.Handle described by tc.
func buildTargetHandle(tc config.TargetConfig) (*target.Handle, error) {
	switch tc.Mode {
	case config.TargetPID:
		return target.AttachPID(tc.PID), nil
	case config.TargetBinary:
		return target.NewBinary(tc.Path, tc.Args, tc.InheritEnvironment, tc.EnvironmentVariables, tc.StdoutPath, tc.StderrPath), nil
	default:
		return target.NewNone(), nil
	}
}

package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lading-rig/lading/config"
	"github.com/lading-rig/lading/logger"
)

// TestRunNoTargetShutsDownWithinBudget exercises spec.md §8 scenario 4
// ("Shutdown bound"): a no-target run with a short experiment duration must
// terminate within its warmup + experiment + max_shutdown_delay budget and
// exit 0.
func TestRunNoTargetShutsDownWithinBudget(t *testing.T) {
	capturePath := filepath.Join(t.TempDir(), "capture.log")

	cfg := config.RunConfig{
		Target: config.TargetConfig{Mode: config.TargetNone},
		Telemetry: config.TelemetryConfig{
			Kind:        "log",
			CapturePath: capturePath,
		},
		WarmupDuration:     0,
		ExperimentDuration: 200 * time.Millisecond,
		MaxShutdownDelay:   1 * time.Second,
	}

	log := logger.New()

	done := make(chan struct {
		res Result
		err error
	}, 1)
	start := time.Now()
	go func() {
		res, err := Run(context.Background(), cfg, log)
		done <- struct {
			res Result
			err error
		}{res, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("Run: %v", out.err)
		}
		if out.res.ExitCode != 0 {
			t.Fatalf("ExitCode = %d, want 0", out.res.ExitCode)
		}
		if elapsed := time.Since(start); elapsed > 3*time.Second {
			t.Fatalf("Run took %s, want <= 3s", elapsed)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return within the shutdown budget")
	}
}

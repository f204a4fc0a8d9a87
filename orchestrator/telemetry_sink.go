package orchestrator

import (
	"context"
	"fmt"

	"github.com/lading-rig/lading/config"
	"github.com/lading-rig/lading/telemetry"
	"github.com/lading-rig/lading/telemetry/capture"
	"github.com/lading-rig/lading/telemetry/promsink"
)

// installedSink bundles a telemetry.Sink with however it needs to be torn
// down at shutdown (spec.md §4.6 step 1: "Install telemetry sink exactly
// once").
type installedSink struct {
	telemetry.Sink
	close func() error
}

func installTelemetry(cfg config.TelemetryConfig) (*installedSink, error) {
	switch cfg.Kind {
	case "log":
		s := capture.New(cfg.CapturePath)
		return &installedSink{Sink: s, close: s.Close}, nil
	case "prometheus":
		s, err := promsink.New(cfg.PrometheusAddr)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: starting Prometheus exporter: %w", err)
		}
		return &installedSink{Sink: s, close: func() error { return s.Shutdown(context.Background()) }}, nil
	default:
		return nil, fmt.Errorf("orchestrator: unknown telemetry kind %q", cfg.Kind)
	}
}

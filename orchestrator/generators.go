package orchestrator

import (
	"context"
	"fmt"
	"time"

	coderrors "github.com/lading-rig/lading/errors"

	"github.com/lading-rig/lading/cache"
	"github.com/lading-rig/lading/config"
	"github.com/lading-rig/lading/generator"
	"github.com/lading-rig/lading/generator/file"
	"github.com/lading-rig/lading/generator/grpc"
	"github.com/lading-rig/lading/generator/tcp"
	"github.com/lading-rig/lading/generator/udp"
	"github.com/lading-rig/lading/generator/unix"
	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/targetstart"
	"github.com/lading-rig/lading/telemetry"
	"github.com/lading-rig/lading/throttle"
)

// tcpReconnectBackoff is spec.md §5's "1 s back-off between TCP reconnect
// attempts" — longer than every other transport's default so a flapping TCP
// peer isn't hammered with connection attempts.
const tcpReconnectBackoff = 1 * time.Second

// generatorLabels builds the {component, component_name, id?} label set
// shared by a generator's adapter metrics and its transport's own metrics
// (gRPC's request_ok/response_bytes), per spec.md §4.5.
func generatorLabels(gc config.GeneratorConfig, globalLabels map[string]string) telemetry.Labels {
	labels := telemetry.Merge(telemetry.Labels{
		"component":      "generator",
		"component_name": gc.Transport,
	}, telemetry.Labels(globalLabels))
	if gc.ID != "" {
		labels["id"] = gc.ID
	}
	return telemetry.Merge(labels, telemetry.Labels(gc.Labels))
}

// buildTransport constructs the generator.Transport for gc's wire
// generators. The file generator has no Transport (spec.md §4.5 "File
// generator specifics": "No transport").
func buildTransport(gc config.GeneratorConfig, sink telemetry.Sink, labels telemetry.Labels) (generator.Transport, error) {
	switch gc.Transport {
	case "tcp":
		return tcp.New(gc.Addr), nil
	case "udp":
		return udp.New(gc.Addr), nil
	case "unix":
		return unix.New(gc.Addr), nil
	case "grpc":
		return grpc.New(gc.Addr, gc.GRPCConcurrencyLimit, sink, labels), nil
	default:
		return nil, fmt.Errorf("orchestrator: unknown wire generator transport %q", gc.Transport)
	}
}

// spawnGenerator constructs and starts one generator config's worker(s),
// returning the list of run functions the orchestrator's errgroup should
// execute. A config's errors (e.g. BlockCreation) are returned rather than
// panicking so the caller can apply spec.md §7's "keeps other generators
// running" policy.
func spawnGenerators(gc config.GeneratorConfig, globalLabels map[string]string, sh *shutdown.Notifier, ts *targetstart.Broadcast, sink telemetry.Sink) ([]func(ctx context.Context) error, error) {
	duplicates := 1
	if gc.Transport == "file" && gc.File.Duplicates > 0 {
		duplicates = gc.File.Duplicates
	}

	var runs []func(ctx context.Context) error
	var fileIndex int64

	for d := 0; d < duplicates; d++ {
		id := gc.ID
		if duplicates > 1 {
			id = fmt.Sprintf("%s%d", gc.ID, d)
		}
		instanceCfg := gc
		instanceCfg.ID = id

		c, err := buildCache(instanceCfg)
		if err != nil {
			return nil, fmt.Errorf("generator %s/%s: %w", gc.Transport, id, err)
		}

		blockSizes, err := buildBlockSizes(instanceCfg)
		if err != nil {
			return nil, fmt.Errorf("generator %s/%s: %w", gc.Transport, id, err)
		}
		var maxBlockBytes float64
		for _, s := range blockSizes {
			if f := float64(s); f > maxBlockBytes {
				maxBlockBytes = f
			}
		}

		// A burst smaller than the largest configured block can never admit
		// it (throttle.ErrRequestExceedsBurst, permanently) — derive a
		// sufficient default when max_burst_bytes is unset, and reject an
		// explicit setting that's too small outright rather than let every
		// large block fail one at a time at runtime.
		burst := instanceCfg.MaxBurstBytes
		if burst <= 0 {
			burst = instanceCfg.BytesPerSecond
			if maxBlockBytes > burst {
				burst = maxBlockBytes
			}
		} else if burst < maxBlockBytes {
			return nil, coderrors.New(coderrors.CodeConfigInvalid,
				"generator %s/%s: max_burst_bytes (%.0f) is smaller than the largest configured block (%.0f bytes)",
				gc.Transport, id, burst, maxBlockBytes)
		}

		th, err := throttle.New(instanceCfg.BytesPerSecond, burst)
		if err != nil {
			return nil, fmt.Errorf("generator %s/%s: %w", gc.Transport, id, err)
		}

		labels := generatorLabels(instanceCfg, globalLabels)

		if instanceCfg.Transport == "file" {
			run, err := buildFileRun(instanceCfg, c, th, sh, sink, &fileIndex, globalLabels)
			if err != nil {
				return nil, err
			}
			runs = append(runs, run)
			continue
		}

		transport, err := buildTransport(instanceCfg, sink, labels)
		if err != nil {
			return nil, err
		}

		var reconnectBackoff time.Duration
		if instanceCfg.Transport == "tcp" {
			reconnectBackoff = tcpReconnectBackoff
		}

		g := generator.New(generator.Config{
			Kind:             instanceCfg.Transport,
			ID:               id,
			Cache:            c,
			Throttle:         th,
			Shutdown:         sh.Subscribe(),
			TargetStart:      ts.Subscribe(),
			Transport:        transport,
			BytesPerSecond:   instanceCfg.BytesPerSecond,
			ReconnectBackoff: reconnectBackoff,
			Sink:             sink,
			Labels:           telemetry.Merge(telemetry.Labels(globalLabels), telemetry.Labels(instanceCfg.Labels)),
		})
		runs = append(runs, g.Spin)
	}

	return runs, nil
}

func buildFileRun(gc config.GeneratorConfig, c cache.Cache, th *throttle.Throttle, sh *shutdown.Notifier, sink telemetry.Sink, fileIndex *int64, globalLabels map[string]string) (func(ctx context.Context) error, error) {
	if gc.File.PathTemplate == "" {
		return nil, fmt.Errorf("generator file: path_template is required")
	}
	if gc.File.MaximumBytesPerFile <= 0 {
		return nil, fmt.Errorf("generator file: maximum_bytes_per_file must be positive")
	}

	g := file.New(file.Config{
		Cache:               c,
		Throttle:            th,
		Shutdown:            sh.Subscribe(),
		PathTemplate:        gc.File.PathTemplate,
		MaximumBytesPerFile: gc.File.MaximumBytesPerFile,
		Rotate:              gc.File.Rotate,
		FileIndex:           fileIndex,
		Sink:                sink,
		Labels:              telemetry.Merge(telemetry.Labels(globalLabels), telemetry.Labels(gc.Labels)),
		BytesPerSecond:      gc.BytesPerSecond,
	})
	return g.Spin, nil
}

package config

import (
	"fmt"
	"time"

	spfcbr "github.com/spf13/cobra"
)

// Flags holds the parsed value of every CLI flag from spec.md §6, bound
// into a spf13/cobra command the way nabbar-golib/cobra binds its own
// persistent flags (trimmed here to a flat struct instead of the teacher's
// viper-backed FuncViper indirection: this rig has no live-reload surface
// for flags to feed back into).
type Flags struct {
	TargetPath    string
	TargetPID     int32
	NoTarget      bool
	ConfigPath    string
	GlobalLabels  string

	TargetInheritEnvironment bool
	TargetEnvironmentVars    string
	TargetArgs               []string
	TargetStdoutPath         string
	TargetStderrPath         string
	TargetRSSBytesLimit      int64

	CapturePath      string
	PrometheusAddr   string
	MaxShutdownDelay int
	ExperimentSeconds int
	WarmupSeconds     int
	DisableInspector  bool
}

// NewRootCommand builds the rig's root cobra command. run is invoked with
// the fully parsed Flags once cobra has processed os.Args; the caller
// supplies it so config stays independent of the orchestrator package.
func NewRootCommand(run func(Flags) error) *spfcbr.Command {
	var f Flags

	cmd := &spfcbr.Command{
		Use:   "lading",
		Short: "lading drives synthetic load against a target process and records telemetry",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			if err := validateTargetSelection(f); err != nil {
				return err
			}
			return run(f)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&f.TargetPath, "target-path", "", "path to a target binary to launch")
	flags.Int32Var(&f.TargetPID, "target-pid", 0, "PID of an already-running target process")
	flags.BoolVar(&f.NoTarget, "no-target", false, "run without a target process")
	flags.StringVar(&f.ConfigPath, "config-path", "/etc/lading/lading.yaml", "path to the run configuration YAML")
	flags.StringVar(&f.GlobalLabels, "global-labels", "", "comma-separated KEY=VAL labels merged into every metric")
	flags.BoolVar(&f.TargetInheritEnvironment, "target-inherit-environment", false, "let the target process inherit the rig's environment")
	flags.StringVar(&f.TargetEnvironmentVars, "target-environment-variables", "", "comma-separated KEY=VAL environment variables for the target process")
	flags.StringVar(&f.TargetStdoutPath, "target-stdout-path", "", "redirect the target's stdout to this path")
	flags.StringVar(&f.TargetStderrPath, "target-stderr-path", "", "redirect the target's stderr to this path")
	flags.Int64Var(&f.TargetRSSBytesLimit, "target-rss-bytes-limit", 0, "signal shutdown if the target's RSS exceeds this many bytes")
	flags.StringVar(&f.CapturePath, "capture-path", "", "write captures to this line-delimited log instead of exporting Prometheus")
	flags.StringVar(&f.PrometheusAddr, "prometheus-addr", "", "address to bind the Prometheus exporter to")
	flags.IntVar(&f.MaxShutdownDelay, "max-shutdown-delay", 30, "seconds to wait for graceful shutdown before forcing it")
	flags.IntVar(&f.ExperimentSeconds, "experiment-duration-seconds", 120, "length of the sampling phase, in seconds")
	flags.IntVar(&f.WarmupSeconds, "warmup-duration-seconds", 30, "length of the warmup phase, in seconds")
	flags.BoolVar(&f.DisableInspector, "disable-inspector", false, "do not spawn the inspector even if configured")

	cmd.Args = func(cmd *spfcbr.Command, args []string) error {
		f.TargetArgs = args
		return nil
	}

	return cmd
}

// validateTargetSelection enforces spec.md §6's "Required: exactly one of
// --target-path, --target-pid, --no-target".
func validateTargetSelection(f Flags) error {
	n := 0
	if f.TargetPath != "" {
		n++
	}
	if f.TargetPID != 0 {
		n++
	}
	if f.NoTarget {
		n++
	}
	if n != 1 {
		return fmt.Errorf("exactly one of --target-path, --target-pid, or --no-target is required")
	}
	return nil
}

// ResolveTarget builds the TargetConfig described by f.
func (f Flags) ResolveTarget() (TargetConfig, error) {
	switch {
	case f.TargetPath != "":
		env, err := ParseGlobalLabels(f.TargetEnvironmentVars)
		if err != nil {
			return TargetConfig{}, fmt.Errorf("--target-environment-variables: %w", err)
		}
		return TargetConfig{
			Mode:                 TargetBinary,
			Path:                 f.TargetPath,
			Args:                 f.TargetArgs,
			InheritEnvironment:   f.TargetInheritEnvironment,
			EnvironmentVariables: env,
			StdoutPath:           f.TargetStdoutPath,
			StderrPath:           f.TargetStderrPath,
			RSSBytesLimit:        f.TargetRSSBytesLimit,
		}, nil
	case f.TargetPID != 0:
		return TargetConfig{Mode: TargetPID, PID: f.TargetPID, RSSBytesLimit: f.TargetRSSBytesLimit}, nil
	default:
		return TargetConfig{Mode: TargetNone}, nil
	}
}

// ApplyTo merges f's overrides into cfg, following spec.md §6's precedence:
// CLI wins over the config file, and --capture-path wins over
// --prometheus-addr when both are given.
func (f Flags) ApplyTo(cfg *RunConfig) error {
	target, err := f.ResolveTarget()
	if err != nil {
		return err
	}
	cfg.Target = target

	globalLabels, err := ParseGlobalLabels(f.GlobalLabels)
	if err != nil {
		return fmt.Errorf("--global-labels: %w", err)
	}
	cfg.GlobalLabels = mergeLabels(cfg.GlobalLabels, globalLabels)

	if f.CapturePath != "" {
		cfg.Telemetry = TelemetryConfig{Kind: "log", CapturePath: f.CapturePath, GlobalLabels: cfg.GlobalLabels}
	} else if f.PrometheusAddr != "" {
		cfg.Telemetry = TelemetryConfig{Kind: "prometheus", PrometheusAddr: f.PrometheusAddr, GlobalLabels: cfg.GlobalLabels}
	}

	cfg.MaxShutdownDelay = time.Duration(f.MaxShutdownDelay) * time.Second
	cfg.ExperimentDuration = time.Duration(f.ExperimentSeconds) * time.Second
	cfg.WarmupDuration = time.Duration(f.WarmupSeconds) * time.Second
	cfg.DisableInspector = f.DisableInspector

	return nil
}

func mergeLabels(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

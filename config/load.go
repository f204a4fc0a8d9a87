package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	coderrors "github.com/lading-rig/lading/errors"
)

// EnvOverrideVar is the environment variable that, when set, supplies the
// entire YAML document in place of the file at --config-path (spec.md §6:
// "LADING_CONFIG overrides --config-path if set (its value is the YAML
// content, not a path)").
const EnvOverrideVar = "LADING_CONFIG"

// Load reads the YAML run configuration from path, or from the
// LADING_CONFIG environment variable if set, the way
// nabbar-golib/config wires viper (see firestige-Otus's internal/config for
// the viper.New + ReadInConfig + Unmarshal pattern this follows).
func Load(path string) (*RunConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if doc, ok := os.LookupEnv(EnvOverrideVar); ok {
		if err := v.ReadConfig(bytes.NewBufferString(doc)); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", EnvOverrideVar, err)
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg RunConfig
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields with the run defaults from
// spec.md §6 (warmup 30s, experiment 120s, max shutdown delay 30s).
func (c *RunConfig) ApplyDefaults() {
	if c.WarmupDuration == 0 {
		c.WarmupDuration = 30 * time.Second
	}
	if c.ExperimentDuration == 0 {
		c.ExperimentDuration = 120 * time.Second
	}
	if c.MaxShutdownDelay == 0 {
		c.MaxShutdownDelay = 30 * time.Second
	}
	if c.Inspector.Interval == 0 {
		c.Inspector.Interval = 5 * time.Second
	}
}

// Validate checks the structural invariants Load cannot express through
// decoding alone, per spec.md §7's ConfigInvalid row: "fatal at startup;
// process exits non-zero before spawning workers".
func (c *RunConfig) Validate() error {
	if c.Target.Mode == TargetNone && len(c.Generators) == 0 && len(c.Blackholes) == 0 {
		return coderrors.New(coderrors.CodeConfigInvalid, "no target, generators, or blackholes configured — nothing to run")
	}
	switch c.Telemetry.Kind {
	case "prometheus":
		if c.Telemetry.PrometheusAddr == "" {
			return coderrors.New(coderrors.CodeConfigInvalid, "telemetry.prometheus_addr is required for kind=prometheus")
		}
	case "log":
		if c.Telemetry.CapturePath == "" {
			return coderrors.New(coderrors.CodeConfigInvalid, "telemetry.path is required for kind=log")
		}
	default:
		return coderrors.New(coderrors.CodeConfigInvalid, "telemetry.kind must be \"prometheus\" or \"log\", got %q", c.Telemetry.Kind)
	}
	for i, g := range c.Generators {
		if g.Transport == "" {
			return coderrors.New(coderrors.CodeConfigInvalid, "generator[%d]: generator (transport) is required", i)
		}
		if g.Variant == "" {
			return coderrors.New(coderrors.CodeConfigInvalid, "generator[%d]: variant is required", i)
		}
	}
	return nil
}

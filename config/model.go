// Package config defines the rig's run configuration: the YAML document
// described in spec.md §6, merged with CLI flags and environment overrides,
// and decoded via spf13/viper + mitchellh/mapstructure the way
// nabbar-golib/config's Component-oriented tree is decoded (trimmed here to
// a one-shot struct: this rig has no Reload, so there is no need for the
// teacher's live Component registry).
package config

import (
	"time"

	"github.com/lading-rig/lading/size"
)

// TargetMode selects how (or whether) the rig attaches to a target process.
type TargetMode uint8

const (
	TargetNone TargetMode = iota
	TargetPID
	TargetBinary
)

// TargetConfig describes the process under test, per spec.md §3 Run config
// and §6's `--target-*` flags.
type TargetConfig struct {
	Mode                 TargetMode
	PID                  int32
	Path                 string
	Args                 []string
	InheritEnvironment   bool
	EnvironmentVariables map[string]string
	StdoutPath           string
	StderrPath           string
	RSSBytesLimit        int64
}

// GeneratorConfig is one entry of the `generator` list: a transport plus a
// payload variant plus the cache/throttle parameters that drive it.
type GeneratorConfig struct {
	// Transport selects the wire adapter: "tcp", "udp", "unix", "grpc", or
	// "file".
	Transport string `mapstructure:"generator"`
	// ID labels duplicated generators (spec.md §4.5's optional id label).
	ID string `mapstructure:"id"`
	// Addr is host:port for tcp/udp/grpc, or a socket path for unix.
	Addr string `mapstructure:"target_uri"`

	BytesPerSecond float64 `mapstructure:"bytes_per_second"`
	MaxBurstBytes  float64 `mapstructure:"max_burst_bytes"`

	CacheMethod         string   `mapstructure:"block_cache_method"` // "fixed" | "streaming"
	TotalByteBudget     string   `mapstructure:"total_byte_budget"`
	BlockSizes          []string `mapstructure:"block_sizes"`
	Seed                string   `mapstructure:"seed"`
	StreamingQueueDepth int      `mapstructure:"streaming_queue_depth"`

	// Variant selects the payload serialiser: "dogstatsd", "jsonline",
	// "plainascii", "syslog", or "staticfile".
	Variant             string `mapstructure:"variant"`
	StaticFilePath      string `mapstructure:"static_path"`
	PlainASCIILineWidth int    `mapstructure:"line_width"`
	DogStatsD           DogStatsDConfig `mapstructure:"dogstatsd"`

	// GRPCConcurrencyLimit bounds in-flight unary calls for the grpc
	// transport (spec.md §4.5's "configured concurrency limit").
	GRPCConcurrencyLimit int64 `mapstructure:"grpc_concurrency_limit"`

	File FileGeneratorConfig `mapstructure:"file"`

	Labels map[string]string `mapstructure:"labels"`
}

// DogStatsDConfig mirrors payload/dogstatsd.Config's fields for YAML
// decoding; zero values fall back to dogstatsd.DefaultConfig() in Build.
type DogStatsDConfig struct {
	ContextsMinimum            int     `mapstructure:"contexts_minimum"`
	ContextsMaximum            int     `mapstructure:"contexts_maximum"`
	TagsPerMsgMinimum          int     `mapstructure:"tags_per_msg_minimum"`
	TagsPerMsgMaximum          int     `mapstructure:"tags_per_msg_maximum"`
	MultivaluePackProbability  float64 `mapstructure:"multivalue_pack_probability"`
	MultivalueCntMinimum       int     `mapstructure:"multivalue_pack_min"`
	MultivalueCntMaximum       int     `mapstructure:"multivalue_pack_max"`
}

// FileGeneratorConfig parameterises the file generator (spec.md §4.5 "File
// generator specifics").
type FileGeneratorConfig struct {
	PathTemplate        string `mapstructure:"path_template"`
	MaximumBytesPerFile int64  `mapstructure:"maximum_bytes_per_file"`
	Rotate              bool   `mapstructure:"rotate"`
	Duplicates          int    `mapstructure:"duplicates"`
}

// BlackholeConfig is one entry of the `blackhole` list.
type BlackholeConfig struct {
	Kind string `mapstructure:"blackhole"` // "tcp" | "udp" | "unix"
	Addr string `mapstructure:"addr"`
}

// TargetMetricsConfig is one entry of the `target_metrics` list: a scrape
// endpoint polled at 1 Hz (spec.md §4.6 step 6).
type TargetMetricsConfig struct {
	URL    string `mapstructure:"url"`
	Format string `mapstructure:"format"` // "prometheus" | "expvar"
}

// ObserverConfig configures the /proc-derived target sampler.
type ObserverConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// InspectorConfig configures the run's periodic self-report.
type InspectorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// TelemetryConfig is the `telemetry` tagged union: exactly one of
// Prometheus or Log is populated, decided by Kind.
type TelemetryConfig struct {
	Kind          string            `mapstructure:"kind"` // "prometheus" | "log"
	PrometheusAddr string           `mapstructure:"prometheus_addr"`
	CapturePath   string            `mapstructure:"path"`
	GlobalLabels  map[string]string `mapstructure:"global_labels"`
}

// RunConfig is the fully resolved configuration for one run: the YAML
// document plus every CLI override applied on top of it (spec.md §3 "Run
// config").
type RunConfig struct {
	Target         TargetConfig
	Generators     []GeneratorConfig     `mapstructure:"generator"`
	Blackholes     []BlackholeConfig     `mapstructure:"blackhole"`
	TargetMetrics  []TargetMetricsConfig `mapstructure:"target_metrics"`
	Observer       ObserverConfig        `mapstructure:"observer"`
	Inspector      InspectorConfig       `mapstructure:"inspector"`
	Telemetry      TelemetryConfig       `mapstructure:"telemetry"`

	WarmupDuration     time.Duration
	ExperimentDuration time.Duration
	MaxShutdownDelay   time.Duration

	DisableInspector bool
	GlobalLabels     map[string]string
}

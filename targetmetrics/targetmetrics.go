// Package targetmetrics implements 1 Hz scrapers that pull the target
// process's own metrics endpoint and re-publish every sample through the
// rig's telemetry sink, so a run's own dashboards carry the target's
// counters alongside the generator's.
package targetmetrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/telemetry"
)

// Format selects how the target's scrape endpoint is parsed.
type Format uint8

const (
	// Prometheus parses the exposition text format.
	Prometheus Format = iota
	// ExpvarJSON parses Go's encoding/json expvar handler output,
	// re-publishing each numeric leaf as a gauge.
	ExpvarJSON
)

// scrapeInterval is fixed at 1 Hz.
const scrapeInterval = 1 * time.Second

// scrapeTimeout bounds a single HTTP scrape.
const scrapeTimeout = 1 * time.Second

// Config parameterises a Scraper.
type Config struct {
	URL      string
	Format   Format
	Shutdown *shutdown.Subscriber
	Sink     telemetry.Sink
	Labels   telemetry.Labels
}

// Scraper polls Config.URL at 1 Hz and republishes samples as gauges.
type Scraper struct {
	cfg    Config
	client *http.Client

	scrapeFailure telemetry.Counter
	gauges        map[string]telemetry.Gauge
}

// New constructs a Scraper.
func New(cfg Config) *Scraper {
	labels := telemetry.Merge(telemetry.Labels{
		"component":      "target_metrics",
		"component_name": cfg.URL,
	}, cfg.Labels)

	return &Scraper{
		cfg:           cfg,
		client:        &http.Client{Timeout: scrapeTimeout},
		scrapeFailure: cfg.Sink.Counter("scrape_failure", labels),
		gauges:        make(map[string]telemetry.Gauge),
	}
}

// Run polls until ctx is cancelled or shutdown fires.
func (s *Scraper) Run(ctx context.Context) {
	if s.cfg.Shutdown != nil {
		defer s.cfg.Shutdown.Release()
	}

	var shutdownRecv <-chan struct{}
	if s.cfg.Shutdown != nil {
		shutdownRecv = s.cfg.Shutdown.Recv()
	}

	ticker := time.NewTicker(scrapeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.scrapeOnce(ctx)
		case <-shutdownRecv:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scraper) scrapeOnce(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		s.scrapeFailure.Add(1)
		return
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.scrapeFailure.Add(1)
		return
	}
	defer resp.Body.Close()

	var samples map[string]float64
	switch s.cfg.Format {
	case ExpvarJSON:
		samples, err = s.parseExpvar(resp.Body)
	default:
		samples, err = s.parsePrometheus(resp.Body)
	}
	if err != nil {
		s.scrapeFailure.Add(1)
		return
	}

	for name, v := range samples {
		s.gauge(name).Set(v)
	}
}

func (s *Scraper) gauge(name string) telemetry.Gauge {
	if g, ok := s.gauges[name]; ok {
		return g
	}
	labels := telemetry.Merge(telemetry.Labels{
		"component":      "target_metrics",
		"component_name": s.cfg.URL,
		"metric":         name,
	}, s.cfg.Labels)
	g := s.cfg.Sink.Gauge(name, labels)
	s.gauges[name] = g
	return g
}

func (s *Scraper) parsePrometheus(r io.Reader) (map[string]float64, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for name, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[name] = m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

// parseExpvar flattens a top-level JSON object's numeric leaves into
// samples; nested objects are skipped (Go's default expvar set rarely
// nests more than one level for the counters this rig cares about).
func (s *Scraper) parseExpvar(r io.Reader) (map[string]float64, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for k, v := range raw {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out, nil
}

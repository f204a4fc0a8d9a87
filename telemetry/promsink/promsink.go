// Package promsink implements telemetry.Sink over client_golang, exposed on
// an HTTP listener bound to the configured prometheus_addr.
package promsink

import (
	"context"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lading-rig/lading/telemetry"
)

// Sink serves Prometheus-formatted metrics on addr until Shutdown is
// called. Each distinct (name, label set) pair gets its own const-labelled
// collector: generator labels include an optional id, so a variable-label
// Vec would need per-call reshaping for no benefit here.
type Sink struct {
	registry *prometheus.Registry
	server   *http.Server

	mu       sync.Mutex
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

// New constructs a Sink and starts serving /metrics on addr in the
// background. Call Shutdown to stop the listener.
func New(addr string) (*Sink, error) {
	registry := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s := &Sink{
		registry: registry,
		server:   &http.Server{Addr: addr, Handler: mux},
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go s.server.Serve(ln)
	return s, nil
}

// Shutdown stops the HTTP listener.
func (s *Sink) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Sink) Counter(name string, labels telemetry.Labels) telemetry.Counter {
	key := cacheKey(name, labels)

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[key]; ok {
		return counterAdapter{c}
	}

	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        sanitize(name),
		Help:        name + " (lading generator metric)",
		ConstLabels: prometheus.Labels(labels),
	})
	s.registry.MustRegister(c)
	s.counters[key] = c
	return counterAdapter{c}
}

func (s *Sink) Gauge(name string, labels telemetry.Labels) telemetry.Gauge {
	key := cacheKey(name, labels)

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gauges[key]; ok {
		return gaugeAdapter{g}
	}

	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        sanitize(name),
		Help:        name + " (lading generator metric)",
		ConstLabels: prometheus.Labels(labels),
	})
	s.registry.MustRegister(g)
	s.gauges[key] = g
	return gaugeAdapter{g}
}

type counterAdapter struct{ c prometheus.Counter }

func (a counterAdapter) Add(delta float64) { a.c.Add(delta) }

type gaugeAdapter struct{ g prometheus.Gauge }

func (a gaugeAdapter) Set(value float64) { a.g.Set(value) }

func cacheKey(name string, labels telemetry.Labels) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('\x00')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}

func sanitize(name string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
}

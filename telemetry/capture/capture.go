// Package capture implements telemetry.Sink as a line-delimited capture
// log: one JSON line per metric point, written through a rotating file per
// lumberjack.v2. Selected instead of the Prometheus sink when --capture-path
// is given.
package capture

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lading-rig/lading/telemetry"
)

// Sink appends one JSON record per metric update to a rotating log file.
type Sink struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

// New constructs a Sink writing to path, rotating at 100 MiB and keeping 3
// backups; callers that want different rotation limits can reach the
// underlying *lumberjack.Logger via Raw.
func New(path string) *Sink {
	return &Sink{out: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   false,
	}}
}

// Raw exposes the underlying rotating writer for callers that need to
// tune rotation thresholds beyond the defaults.
func (s *Sink) Raw() *lumberjack.Logger { return s.out }

// Close flushes and closes the underlying log file.
func (s *Sink) Close() error { return s.out.Close() }

type record struct {
	Kind   string            `json:"kind"`
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
	TS     string            `json:"ts"`
}

func (s *Sink) write(kind, name string, labels telemetry.Labels, value float64) {
	rec := record{
		Kind:   kind,
		Name:   name,
		Labels: sortedCopy(labels),
		Value:  value,
		TS:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Write(b)
}

func (s *Sink) Counter(name string, labels telemetry.Labels) telemetry.Counter {
	return &captureCounter{sink: s, name: name, labels: labels}
}

func (s *Sink) Gauge(name string, labels telemetry.Labels) telemetry.Gauge {
	return &captureGauge{sink: s, name: name, labels: labels}
}

type captureCounter struct {
	sink   *Sink
	name   string
	labels telemetry.Labels

	mu    sync.Mutex
	total float64
}

func (c *captureCounter) Add(delta float64) {
	c.mu.Lock()
	c.total += delta
	total := c.total
	c.mu.Unlock()
	c.sink.write("counter", c.name, c.labels, total)
}

type captureGauge struct {
	sink   *Sink
	name   string
	labels telemetry.Labels
}

func (g *captureGauge) Set(value float64) {
	g.sink.write("gauge", g.name, g.labels, value)
}

func sortedCopy(labels telemetry.Labels) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]string, len(labels))
	for _, k := range keys {
		out[k] = labels[k]
	}
	return out
}

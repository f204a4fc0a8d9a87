package targetmetrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/telemetry"
)

type recordingSink struct {
	gauges map[string]*recordedGauge
}

type recordedGauge struct{ value float64 }

func (g *recordedGauge) Set(v float64) { g.value = v }

func newRecordingSink() *recordingSink {
	return &recordingSink{gauges: make(map[string]*recordedGauge)}
}

func (s *recordingSink) Counter(name string, labels telemetry.Labels) telemetry.Counter {
	return &recordedGauge{}
}

func (s *recordingSink) Gauge(name string, labels telemetry.Labels) telemetry.Gauge {
	g := &recordedGauge{}
	s.gauges[name] = g
	return g
}

func TestScraperParsesPrometheusAndStopsOnShutdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("target_requests_total 42\n"))
	}))
	defer srv.Close()

	notifier := shutdown.New()
	sink := newRecordingSink()
	scraper := New(Config{
		URL:      srv.URL,
		Format:   Prometheus,
		Shutdown: notifier.Subscribe(),
		Sink:     sink,
	})

	done := make(chan struct{})
	go func() {
		scraper.Run(context.Background())
		close(done)
	}()

	// Let at least one scrape tick happen is not guaranteed within a short
	// window since scrapeInterval is 1s; exercise scrapeOnce directly for
	// the parsing assertion instead, and rely on the goroutine only for the
	// shutdown-wiring assertion below.
	scraper.scrapeOnce(context.Background())
	if g, ok := sink.gauges["target_requests_total"]; !ok || g.value != 42 {
		t.Fatalf("expected target_requests_total=42, got %+v", sink.gauges)
	}

	notifier.Signal()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after shutdown was signalled")
	}
}

package observer

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/telemetry"
)

type nopSink struct{}

func (nopSink) Counter(name string, labels telemetry.Labels) telemetry.Counter { return nopMetric{} }
func (nopSink) Gauge(name string, labels telemetry.Labels) telemetry.Gauge     { return nopMetric{} }

type nopMetric struct{}

func (nopMetric) Add(float64) {}
func (nopMetric) Set(float64) {}

func TestRunSamplesSelfAndStopsOnShutdown(t *testing.T) {
	notifier := shutdown.New()
	o := New(Config{
		PID:      int32(os.Getpid()),
		Notifier: notifier,
		Shutdown: notifier.Subscribe(),
		Sink:     nopSink{},
	})

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	notifier.Signal()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after shutdown was signalled")
	}
}

func TestRunReturnsErrorForUnknownPID(t *testing.T) {
	o := New(Config{
		PID:  2147483647,
		Sink: nopSink{},
	})
	if err := o.Run(context.Background()); err == nil {
		t.Fatalf("expected an error constructing process.NewProcess for an unknown PID")
	}
}

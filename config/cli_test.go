package config

import "testing"

func TestValidateTargetSelectionRequiresExactlyOne(t *testing.T) {
	cases := []struct {
		name    string
		flags   Flags
		wantErr bool
	}{
		{"none set", Flags{}, true},
		{"path only", Flags{TargetPath: "/bin/true"}, false},
		{"pid only", Flags{TargetPID: 42}, false},
		{"no-target only", Flags{NoTarget: true}, false},
		{"path and no-target", Flags{TargetPath: "/bin/true", NoTarget: true}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateTargetSelection(c.flags)
			if (err != nil) != c.wantErr {
				t.Fatalf("validateTargetSelection(%+v) = %v, wantErr=%v", c.flags, err, c.wantErr)
			}
		})
	}
}

func TestApplyToCapturePathWinsOverPrometheusAddr(t *testing.T) {
	f := Flags{NoTarget: true, CapturePath: "/tmp/cap.log", PrometheusAddr: ":9090"}
	cfg := &RunConfig{}
	if err := f.ApplyTo(cfg); err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	if cfg.Telemetry.Kind != "log" {
		t.Fatalf("got telemetry kind %q, want \"log\" (capture-path must win)", cfg.Telemetry.Kind)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Bus.Kind != BusLoopback {
		t.Errorf("default bus kind = %q, want %q", cfg.Bus.Kind, BusLoopback)
	}
	if cfg.Diagnostics.Interval() != 50*time.Millisecond {
		t.Errorf("default interval = %s, want 50ms", cfg.Diagnostics.Interval())
	}
	if cfg.Calibration.InitialTimingOffset != 5 {
		t.Errorf("default timing offset = %d, want 5", cfg.Calibration.InitialTimingOffset)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brakectl.yaml")
	content := `
listen:
  socket: /tmp/test-brakectl.sock
bus:
  kind: mqtt
  broker: mqtt://broker.local:1883/vehicle/brake
diagnostics:
  intervalMs: 200
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listen.Socket != "/tmp/test-brakectl.sock" {
		t.Errorf("socket = %q", cfg.Listen.Socket)
	}
	if cfg.Bus.Kind != BusMQTT || cfg.Bus.Broker != "mqtt://broker.local:1883/vehicle/brake" {
		t.Errorf("bus = %+v", cfg.Bus)
	}
	if cfg.Diagnostics.Interval() != 200*time.Millisecond {
		t.Errorf("interval = %s, want 200ms", cfg.Diagnostics.Interval())
	}
	// Untouched sections keep their defaults.
	if cfg.Calibration.Path != "/var/lib/brakectl/calibration.bin" {
		t.Errorf("calibration path lost its default: %q", cfg.Calibration.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults ok", mutate: func(*Config) {}},
		{name: "empty socket", mutate: func(c *Config) { c.Listen.Socket = "" }, wantErr: true},
		{name: "empty calibration path", mutate: func(c *Config) { c.Calibration.Path = "" }, wantErr: true},
		{name: "unknown bus kind", mutate: func(c *Config) { c.Bus.Kind = "serial" }, wantErr: true},
		{name: "mqtt without broker", mutate: func(c *Config) { c.Bus.Kind = BusMQTT }, wantErr: true},
		{name: "mqtt with broker", mutate: func(c *Config) {
			c.Bus.Kind = BusMQTT
			c.Bus.Broker = "mqtt://localhost:1883/brake"
		}},
		{name: "zero interval", mutate: func(c *Config) { c.Diagnostics.IntervalMs = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

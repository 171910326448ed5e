package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-naneye/pkg/framesync"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "naneye.yaml")
	body := []byte("mode: ch1\ncapacity: 5\ntolerance_us: 1000\nstream:\n  port: \"9000\"\n  quality: 70\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "ch1" || cfg.Capacity != 5 || cfg.ToleranceUS != 1000 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Stream.Port != "9000" || cfg.Stream.Quality != 70 {
		t.Errorf("stream values not applied: %+v", cfg.Stream)
	}
	// Untouched keys keep defaults
	if cfg.Sensor != "naneyem" {
		t.Errorf("sensor=%q, want default naneyem", cfg.Sensor)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("NANEYE_MODE", "stereo")
	t.Setenv("NANEYE_SIM", "1")

	path := filepath.Join(t.TempDir(), "naneye.yaml")
	if err := os.WriteFile(path, []byte("mode: ch2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "stereo" {
		t.Errorf("mode=%q, env override lost", cfg.Mode)
	}
	if !cfg.Sim.Enabled {
		t.Error("NANEYE_SIM=1 should enable the simulator")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad sensor", func(c *Config) { c.Sensor = "naneyez" }},
		{"bad mode", func(c *Config) { c.Mode = "mono" }},
		{"negative capacity", func(c *Config) { c.Capacity = -2 }},
		{"negative tolerance", func(c *Config) { c.ToleranceUS = -1 }},
		{"quality too high", func(c *Config) { c.Stream.Quality = 101 }},
		{"zero sim fps", func(c *Config) { c.Sim.FPS = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestQueueConfig_ModeMapping(t *testing.T) {
	cfg := Default()
	cfg.Mode = "stereo"
	if qc := cfg.QueueConfig(); qc.Mode != framesync.ModeStereo {
		t.Errorf("stereo capture should map to framesync.ModeStereo, got %v", qc.Mode)
	}

	cfg.Mode = "ch2"
	if qc := cfg.QueueConfig(); qc.Mode != framesync.ModeSingle {
		t.Errorf("ch2 capture should map to framesync.ModeSingle, got %v", qc.Mode)
	}
}

// Package config loads capture configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-naneye/pkg/framesync"
	"github.com/teslashibe/go-naneye/pkg/naneye"
)

// StreamConfig configures the web streaming server.
type StreamConfig struct {
	Port    string `yaml:"port"`    // listen port for naneye-stream
	Quality int    `yaml:"quality"` // JPEG quality 1-100
}

// SimConfig configures the synthetic capture driver.
type SimConfig struct {
	Enabled  bool  `yaml:"enabled"`   // use the simulator instead of hardware
	FPS      int   `yaml:"fps"`       // per-channel frame rate
	JitterUS int64 `yaml:"jitter_us"` // stereo timestamp skew, ± microseconds
}

// Config aggregates all capture settings.
type Config struct {
	Sensor      string `yaml:"sensor"`       // naneyem, naneye2d, naneyexs
	Mode        string `yaml:"mode"`         // ch1, ch2, stereo
	Capacity    int    `yaml:"capacity"`     // frames per channel, 0 = mode default
	ToleranceUS int64  `yaml:"tolerance_us"` // stereo pairing tolerance, 0 = 20000
	LogLevel    string `yaml:"log_level"`    // debug, info, warn, error

	Stream StreamConfig `yaml:"stream"`
	Sim    SimConfig    `yaml:"sim"`
}

// Default returns the recommended configuration: stereo capture on a
// NanEyeM head with library defaults for buffering.
func Default() Config {
	return Config{
		Sensor:   "naneyem",
		Mode:     "stereo",
		LogLevel: "info",
		Stream: StreamConfig{
			Port:    "8090",
			Quality: 85,
		},
		Sim: SimConfig{
			FPS:      40,
			JitterUS: 4000,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if
// one is given, then NANEYE_* environment overrides, then validation.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("NANEYE_SENSOR"); v != "" {
		cfg.Sensor = v
	}
	if v := os.Getenv("NANEYE_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("NANEYE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NANEYE_STREAM_PORT"); v != "" {
		cfg.Stream.Port = v
	}
	if v := os.Getenv("NANEYE_SIM"); v != "" {
		cfg.Sim.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("NANEYE_TOLERANCE_US"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ToleranceUS = n
		}
	}
}

// Validate checks ranges and enum values.
func (c Config) Validate() error {
	if _, err := naneye.ParseSensorType(c.Sensor); err != nil {
		return err
	}
	if _, err := naneye.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative, got %d", c.Capacity)
	}
	if c.ToleranceUS < 0 {
		return fmt.Errorf("tolerance_us must not be negative, got %d", c.ToleranceUS)
	}
	if c.Stream.Quality < 1 || c.Stream.Quality > 100 {
		return fmt.Errorf("stream quality must be 1-100, got %d", c.Stream.Quality)
	}
	if c.Sim.FPS < 1 {
		return fmt.Errorf("sim fps must be at least 1, got %d", c.Sim.FPS)
	}
	return nil
}

// CaptureMode returns the parsed channel mode.
func (c Config) CaptureMode() naneye.Mode {
	m, _ := naneye.ParseMode(c.Mode)
	return m
}

// SensorType returns the parsed sensor family.
func (c Config) SensorType() naneye.SensorType {
	s, _ := naneye.ParseSensorType(c.Sensor)
	return s
}

// QueueConfig maps the capture settings onto a framesync queue config.
func (c Config) QueueConfig() framesync.Config {
	mode := framesync.ModeSingle
	if c.CaptureMode().Stereo() {
		mode = framesync.ModeStereo
	}
	return framesync.Config{
		Mode:        mode,
		Capacity:    c.Capacity,
		ToleranceUS: c.ToleranceUS,
	}
}

// Package config provides configuration loading for the viewer.
// Configuration is read from a YAML file and falls back to defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry values like "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Server holds remote imaging server settings.
	Server struct {
		// CatalogueURL points at the series catalogue (JSON). May be a
		// local file path or an http(s) URL.
		CatalogueURL string `yaml:"catalogueUrl"`

		// ProxyPrefix, when set, rewrites every frame request through a
		// pass-through relay: <proxyPrefix><escaped original URL>.
		ProxyPrefix string `yaml:"proxyPrefix"`

		// RequestTimeout bounds each individual fetch strategy attempt.
		RequestTimeout Duration `yaml:"requestTimeout"`
	} `yaml:"server"`

	// Display holds viewer defaults.
	Display struct {
		// BrushDiameter is the paint/erase brush diameter in image pixels.
		BrushDiameter int `yaml:"brushDiameter"`

		// SegmentationOpacity is the overlay opacity (0..1).
		SegmentationOpacity float64 `yaml:"segmentationOpacity"`

		// WindowWidth/WindowCenter are the default window/level values
		// applied when a series loads.
		WindowWidth  float64 `yaml:"windowWidth"`
		WindowCenter float64 `yaml:"windowCenter"`
	} `yaml:"display"`
}

// Default returns a configuration with default values.
func Default() *Config {
	cfg := &Config{}

	cfg.Server.RequestTimeout = Duration(10 * time.Second)

	cfg.Display.BrushDiameter = 10
	cfg.Display.SegmentationOpacity = 0.5
	cfg.Display.WindowWidth = 400
	cfg.Display.WindowCenter = 40

	return cfg
}

// Load loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Display.BrushDiameter <= 0 {
		return fmt.Errorf("brushDiameter must be positive, got %d", c.Display.BrushDiameter)
	}
	if c.Display.SegmentationOpacity < 0 || c.Display.SegmentationOpacity > 1 {
		return fmt.Errorf("segmentationOpacity must be in [0,1], got %g", c.Display.SegmentationOpacity)
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = Default().Server.RequestTimeout
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	Prod = "prod"
	Dev  = "dev"
	Test = "test"
)

type Capture struct {
	Capture CaptureBox `yaml:"capture"`
}

func (c *Capture) IsProd() bool {
	return c.Capture.Env == Prod
}

func (c *Capture) IsDev() bool {
	return c.Capture.Env == Dev
}

func (c *Capture) IsTest() bool {
	return c.Capture.Env == Test
}

type CaptureBox struct {
	Env         string      `yaml:"env"`
	Enabled     bool        `yaml:"enabled"`
	Logs        Logs        `yaml:"logs"`
	Ring        Ring        `yaml:"ring"`
	Producer    Producer    `yaml:"producer"`
	Persistence Persistence `yaml:"persistence"`
	Metrics     Metrics     `yaml:"metrics"`
	Debug       Debug       `yaml:"debug"`
}

type Logs struct {
	Level string `yaml:"level"` // zerolog level: debug, info, warn, error
	Stats bool   `yaml:"stats"` // enables the periodic stats logger
}

type Ring struct {
	// Capacity is the fixed number of slots. Recommended at least twice the
	// maximum number of frames expected to be borrowed concurrently.
	Capacity int `yaml:"capacity"`
}

type Producer struct {
	FPS      int           `yaml:"fps"`      // Target capture rate. Zero means unpaced (as fast as the source allows).
	Interval time.Duration `yaml:"interval"` // Computed from FPS unless set explicitly.
	Frame    Frame         `yaml:"frame"`
}

type Frame struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"` // e.g. "gray8", "yuyv", "rgb24"
}

type Dump struct {
	IsEnabled    bool   `yaml:"enabled"`
	Format       string `yaml:"format"` // gzip or raw
	Dir          string `yaml:"dump_dir"`
	Name         string `yaml:"dump_name"`
	MaxFiles     int    `yaml:"max_files"`
	RotatePolicy string `yaml:"rotate_policy"` // fixed or ring
}

type Persistence struct {
	Dump Dump `yaml:"dump"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

type Debug struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // listen address of the fasthttp debug server, e.g. ":6070"
}

// BytesPerPixel reports the pixel width of the configured format.
// Unknown formats are treated as one byte per pixel.
func (f Frame) BytesPerPixel() int {
	switch f.Format {
	case "yuyv":
		return 2
	case "rgb24":
		return 3
	case "rgba", "bgra":
		return 4
	default: // gray8 and friends
		return 1
	}
}

func LoadConfig(path string) (*Capture, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	path, err = filepath.Abs(filepath.Clean(dir + path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute config filepath: %w", err)
	}

	if _, err = os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Capture
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}

	if cfg.Capture.Producer.Interval == 0 && cfg.Capture.Producer.FPS > 0 {
		cfg.Capture.Producer.Interval = time.Second / time.Duration(cfg.Capture.Producer.FPS)
	}

	return cfg, nil
}

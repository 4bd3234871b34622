package flicker

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds stage settings. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// Width and Height are the stage size in pixels.
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// Scale is the device scale the stage is rendered at.
	Scale float64 `toml:"scale"`
	// Background is the clear color as "#rrggbb" or "#rrggbbaa". Empty
	// means transparent.
	Background string `toml:"background"`
	// CacheBudget bounds the pixel bytes held by the shape cache.
	CacheBudget int64 `toml:"cache_budget"`
	// MaxSurfaceArea bounds the pixel area of any offscreen surface. Zero
	// means four times the scaled stage area.
	MaxSurfaceArea int `toml:"max_surface_area"`
	// Debug enables per-frame stats and tree warnings in the log.
	Debug bool `toml:"debug"`
	// Namespace prefixes cache keys so stages sharing a cache never
	// collide.
	Namespace string `toml:"namespace"`
}

// DefaultConfig returns a 550x400 stage at scale 1 with a white background.
func DefaultConfig() Config {
	return Config{
		Width:       550,
		Height:      400,
		Scale:       1,
		Background:  "#ffffff",
		CacheBudget: DefaultCacheBudget,
	}
}

// LoadConfig decodes TOML over DefaultConfig and validates the result.
// Unknown keys are rejected.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("flicker: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads and decodes a TOML config file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("flicker: read config %s: %w", path, err)
	}
	return LoadConfig(data)
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("flicker: invalid stage size %dx%d", c.Width, c.Height)
	}
	if !(c.Scale > 0) || !isFinite(c.Scale) {
		return fmt.Errorf("flicker: invalid scale %v", c.Scale)
	}
	if c.MaxSurfaceArea < 0 {
		return fmt.Errorf("flicker: invalid max surface area %d", c.MaxSurfaceArea)
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	return nil
}

// DeviceSize returns the stage size in device pixels.
func (c Config) DeviceSize() (w, h int) {
	return max(1, int(float64(c.Width)*c.Scale+0.5)), max(1, int(float64(c.Height)*c.Scale+0.5))
}

// surfaceLimit resolves MaxSurfaceArea.
func (c Config) surfaceLimit() int {
	if c.MaxSurfaceArea > 0 {
		return c.MaxSurfaceArea
	}
	w, h := c.DeviceSize()
	return 4 * w * h
}

var errBadColor = errors.New("want #rrggbb or #rrggbbaa")

// BackgroundColor parses Background.
func (c Config) BackgroundColor() (color.NRGBA, error) {
	s := strings.TrimSpace(c.Background)
	if s == "" {
		return color.NRGBA{}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("flicker: background %q: %w", s, errBadColor)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("flicker: background %q: %w", s, errBadColor)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

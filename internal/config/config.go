// Package config loads relief settings: built-in defaults, then a YAML file,
// then command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/talgya/relief/internal/lighting"
	"github.com/talgya/relief/internal/noise"
	"github.com/talgya/relief/internal/world"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	World    WorldConfig    `yaml:"world"`
	Lighting LightingConfig `yaml:"lighting"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WorldConfig holds terrain generation settings.
type WorldConfig struct {
	Width           int         `yaml:"width"`
	Height          int         `yaml:"height"`
	Seed            int64       `yaml:"seed"`   // 0 picks a random seed
	Noise           string      `yaml:"noise"`  // perlin or simplex
	Method          string      `yaml:"method"` // layered or diamond
	Base            world.Layer `yaml:"base"`
	Continentalness world.Layer `yaml:"continentalness"`
	Erosion         world.Layer `yaml:"erosion"`
}

// LightingConfig holds the initial light and the shading mode.
type LightingConfig struct {
	Light  lighting.Light `yaml:"light"`
	Anchor string         `yaml:"anchor"` // fixed or light
}

// StoreConfig holds scene store settings.
type StoreConfig struct {
	Path         string `yaml:"path"` // Empty disables the store
	SaveOnStart  bool   `yaml:"save_on_start"`
	SaveOnExit   bool   `yaml:"save_on_exit"`
	ListOnLaunch int    `yaml:"list_on_launch"` // Log this many recent scenes at startup
	Restore      string `yaml:"restore"`        // Scene id to load instead of generating, or "last"
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Port           int           `yaml:"port"`
	AdminKey       string        `yaml:"admin_key"` // Overridden by RELIEF_ADMIN_KEY
	PreviewLimit   int           `yaml:"preview_limit"`
	PreviewWindow  time.Duration `yaml:"preview_window"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// OutputConfig holds one-shot export settings.
type OutputConfig struct {
	PreviewPNG string `yaml:"preview_png"` // Shaded preview written after generation
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config matching the reference terrain: a 513x513 map
// lit from its centre at height 300.
func Default() *Config {
	gen := world.DefaultGenConfig()
	return &Config{
		World: WorldConfig{
			Width:           gen.Width,
			Height:          gen.Height,
			Seed:            gen.Seed,
			Noise:           gen.Backend.String(),
			Method:          gen.Method.String(),
			Base:            gen.Base,
			Continentalness: gen.Continentalness,
			Erosion:         gen.Erosion,
		},
		Lighting: LightingConfig{
			Light: lighting.Light{
				X:         float64(gen.Width) / 2,
				Y:         float64(gen.Height) / 2,
				Z:         300,
				Intensity: 1,
			},
			Anchor: lighting.AnchorFixed.String(),
		},
		Store: StoreConfig{
			Path:         "data/relief.db",
			SaveOnStart:  false,
			SaveOnExit:   true,
			ListOnLaunch: 5,
		},
		Server: ServerConfig{
			Enabled:       true,
			Port:          8080,
			PreviewLimit:  60,
			PreviewWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GenConfig converts the world section into generator parameters.
func (c *Config) GenConfig() (world.GenConfig, error) {
	backend, err := noise.ParseBackend(c.World.Noise)
	if err != nil {
		return world.GenConfig{}, err
	}
	method, err := world.ParseMethod(c.World.Method)
	if err != nil {
		return world.GenConfig{}, err
	}
	return world.GenConfig{
		Width:           c.World.Width,
		Height:          c.World.Height,
		Seed:            c.World.Seed,
		Backend:         backend,
		Method:          method,
		Base:            c.World.Base,
		Continentalness: c.World.Continentalness,
		Erosion:         c.World.Erosion,
	}, nil
}

// Anchor parses the lighting anchor.
func (c *Config) Anchor() (lighting.Anchor, error) {
	return lighting.ParseAnchor(c.Lighting.Anchor)
}

// Validate reports every problem at once, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var errs []error

	gen, err := c.GenConfig()
	if err != nil {
		errs = append(errs, err)
	} else if err := gen.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Anchor(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Store.Restore != "" && c.Store.Path == "" {
		errs = append(errs, errors.New("store.restore needs store.path"))
	}
	if c.Server.PreviewLimit < 0 {
		errs = append(errs, fmt.Errorf("preview_limit must be >= 0, got %d", c.Server.PreviewLimit))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Light returns the initial light.
func (c *Config) Light() lighting.Light {
	return c.Lighting.Light
}

// Package config loads the YAML configuration of the rlcd host tools.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/rlcd"
	"github.com/BeatGlow/rlcd/conn"
	"github.com/BeatGlow/rlcd/internal/log"
)

// Defaults.
const (
	DefaultModel     = "WAVESHARE_400X300"
	DefaultSpeedHz   = 10_000_000
	DefaultDCPin     = "GPIO24"
	DefaultResetPin  = "GPIO25"
	DefaultLogLevel  = "info"
	defaultTempGlob  = ".rlcd-config-*.tmp"
	defaultFileMode  = 0o600
	defaultDirectory = 0o700
)

// Interval is the refresh period. The zero value means "never": the panel is
// only refreshed on request.
type Interval time.Duration

// ParseInterval parses "never" (or empty) or a Go duration such as "30s".
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "never") {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid update_interval %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: update_interval %q must be positive", s)
	}
	return Interval(d), nil
}

// Duration of the interval, zero for never.
func (i Interval) Duration() time.Duration {
	return time.Duration(i)
}

func (i Interval) String() string {
	if i <= 0 {
		return "never"
	}
	return time.Duration(i).String()
}

func (i *Interval) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseInterval(s)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i Interval) MarshalYAML() (any, error) {
	return i.String(), nil
}

// SPIConfig is the bus configuration.
type SPIConfig struct {
	// Bus is the periph.io SPI port name, empty for the first port.
	Bus string `yaml:"bus"`
	// SpeedHz is the maximum clock speed.
	SpeedHz int64 `yaml:"speed_hz"`
	// BatchSize limits the size of a single write.
	BatchSize int `yaml:"batch_size"`
}

// PinsConfig names the GPIO pins, as known to periph.io (e.g. "GPIO24").
type PinsConfig struct {
	// DC is the data/command pin, required.
	DC string `yaml:"dc"`
	// Reset is the reset pin, optional.
	Reset string `yaml:"reset,omitempty"`
	// CS is a GPIO chip select, optional. Without it the SPI port drives chip select.
	CS string `yaml:"cs,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	// Model is one of WAVESHARE_400X300, OSPTEK_200X200 or CUSTOM.
	Model string `yaml:"model"`

	// Width, Height and Orientation describe a CUSTOM panel and must be absent
	// for the other models.
	Width       *int   `yaml:"width,omitempty"`
	Height      *int   `yaml:"height,omitempty"`
	Orientation string `yaml:"orientation,omitempty"`

	// UpdateInterval is "never" (default) or a duration.
	UpdateInterval Interval `yaml:"update_interval"`

	// Inverted selects display inversion.
	Inverted bool `yaml:"inverted"`

	// LogLevel is debug, info or error.
	LogLevel string `yaml:"log_level"`

	SPI  SPIConfig  `yaml:"spi"`
	Pins PinsConfig `yaml:"pins"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		LogLevel: DefaultLogLevel,
		SPI: SPIConfig{
			SpeedHz:   DefaultSpeedHz,
			BatchSize: conn.DefaultBatchSize,
		},
		Pins: PinsConfig{
			DC:    DefaultDCPin,
			Reset: DefaultResetPin,
		},
	}
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	c.Model = strings.ToUpper(strings.TrimSpace(c.Model))
	if c.Model == "" {
		c.Model = DefaultModel
	}
	c.Orientation = strings.ToUpper(strings.TrimSpace(c.Orientation))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.SPI.SpeedHz <= 0 {
		c.SPI.SpeedHz = DefaultSpeedHz
	}
	if c.SPI.BatchSize <= 0 {
		c.SPI.BatchSize = conn.DefaultBatchSize
	}
}

// Validate checks the configuration. Geometry is only accepted for CUSTOM
// panels, where it is required.
func (c *Config) Validate() error {
	model, err := rlcd.ParseModel(c.Model)
	if err != nil {
		return err
	}

	if model != rlcd.Custom {
		for _, field := range []struct {
			name string
			set  bool
		}{
			{"width", c.Width != nil},
			{"height", c.Height != nil},
			{"orientation", c.Orientation != ""},
		} {
			if field.set {
				return &rlcd.ConfigurationError{Field: field.name, Reason: fmt.Sprintf("not supported for model %s", model)}
			}
		}
	} else {
		panel, err := c.Panel()
		if err != nil {
			return err
		}
		if _, err = rlcd.ResolveProfile(panel); err != nil {
			return err
		}
	}

	if c.Pins.DC == "" {
		return &rlcd.ConfigurationError{Field: "pins.dc", Reason: "required"}
	}
	if _, err = log.ParseLevel(c.LogLevel); err != nil {
		return &rlcd.ConfigurationError{Field: "log_level", Reason: err.Error()}
	}
	return nil
}

// Panel returns the panel selection for the driver.
func (c *Config) Panel() (rlcd.PanelConfig, error) {
	model, err := rlcd.ParseModel(c.Model)
	if err != nil {
		return rlcd.PanelConfig{}, err
	}
	if model != rlcd.Custom {
		return rlcd.PanelConfig{Model: model}, nil
	}

	p := rlcd.PanelConfig{Model: model}
	if c.Width != nil {
		p.Width = *c.Width
	}
	if c.Height != nil {
		p.Height = *c.Height
	}
	if c.Orientation != "" {
		if p.Orientation, err = rlcd.ParseOrientation(c.Orientation); err != nil {
			return rlcd.PanelConfig{}, err
		}
	}
	return p, nil
}

// SpeedHz is the SPI clock speed.
func (c *Config) SpeedHz() physic.Frequency {
	return physic.Frequency(c.SPI.SpeedHz) * physic.Hertz
}

// Parse decodes, normalizes and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads configuration from the given YAML path. When the file does not
// exist a default configuration is written and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			log.Info("writing default config", "path", path)
			return cfg, Save(path, cfg)
		}
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically, with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, defaultDirectory); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Write to a temp file in the same directory then rename.
	tmp, err := os.CreateTemp(dir, defaultTempGlob)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, defaultFileMode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

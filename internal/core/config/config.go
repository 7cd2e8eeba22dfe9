// Package config handles configuration loading and validation for dscqs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/dscqs/internal/core/styles"
)

// DefaultLabels are the five ITU-R BT.500 quality labels, best first.
var DefaultLabels = []string{"Excellent", "Good", "Fair", "Poor", "Bad"}

// Config holds the application configuration.
type Config struct {
	ResultsDir   string         `yaml:"results_dir"`
	Player       PlayerConfig   `yaml:"player"`
	Scale        ScaleConfig    `yaml:"scale"`
	Database     DatabaseConfig `yaml:"database"`
	Theme        string         `yaml:"theme"`
	Instructions string         `yaml:"instructions"` // markdown shown before the first trial
	DataDir      string         `yaml:"-"`            // set by caller, not from config file
}

// PlayerConfig configures the external media player.
type PlayerConfig struct {
	// Command is the player argv. Every element is a template rendered with
	// .Path and .Label of the stimulus.
	Command []string `yaml:"command"`
	// StallTimeout bounds a single stimulus presentation. Zero waits
	// indefinitely.
	StallTimeout time.Duration `yaml:"stall_timeout"`
}

// ScaleConfig describes the continuous quality scale.
type ScaleConfig struct {
	Min    float64  `yaml:"min"`
	Max    float64  `yaml:"max"`
	Step   float64  `yaml:"step"`
	Labels []string `yaml:"labels"`
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Theme: styles.DefaultTheme,
		Player: PlayerConfig{
			Command: []string{"ffplay", "-autoexit", "-loglevel", "quiet", "{{ .Path }}"},
		},
		Scale: ScaleConfig{
			Min:    0,
			Max:    100,
			Step:   1,
			Labels: append([]string(nil), DefaultLabels...),
		},
		Database: DatabaseConfig{
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
	if len(c.Player.Command) == 0 {
		c.Player.Command = defaults.Player.Command
	}
	if c.Scale.Min == 0 && c.Scale.Max == 0 {
		c.Scale.Min, c.Scale.Max = defaults.Scale.Min, defaults.Scale.Max
	}
	if c.Scale.Step == 0 {
		c.Scale.Step = defaults.Scale.Step
	}
	if len(c.Scale.Labels) == 0 {
		c.Scale.Labels = defaults.Scale.Labels
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if len(c.Player.Command) == 0 || c.Player.Command[0] == "" {
		return fmt.Errorf("player.command cannot be empty")
	}

	if c.Player.StallTimeout < 0 {
		return fmt.Errorf("player.stall_timeout cannot be negative")
	}

	if c.Scale.Max <= c.Scale.Min {
		return fmt.Errorf("scale.max (%g) must be greater than scale.min (%g)", c.Scale.Max, c.Scale.Min)
	}

	if c.Scale.Step <= 0 || c.Scale.Step > c.Scale.Max-c.Scale.Min {
		return fmt.Errorf("scale.step must be in (0, %g]", c.Scale.Max-c.Scale.Min)
	}

	for i, label := range c.Scale.Labels {
		if label == "" {
			return fmt.Errorf("scale.labels[%d] cannot be empty", i)
		}
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns must be between 0 and max_open_conns")
	}

	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	if _, ok := styles.GetPalette(c.Theme); !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", c.Theme, styles.ThemeNames())
	}

	return nil
}

// ResultsPath returns the directory for text results files.
func (c *Config) ResultsPath() string {
	if c.ResultsDir != "" {
		return c.ResultsDir
	}
	return filepath.Join(c.DataDir, "results")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "dscqs.log")
}

// Package config loads engine configuration from defaults, an optional
// agora.yaml file, and AGORA_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the CLI needs to assemble an engine.
type Config struct {
	// Teams is the number of deliberation teams in the roster.
	Teams int `mapstructure:"teams"`
	// SanctionThreshold is the sanction count that triggers replacement.
	SanctionThreshold int `mapstructure:"sanction_threshold"`
	// ReadinessThreshold is the mean-performance gate.
	ReadinessThreshold float64 `mapstructure:"readiness_threshold"`
	// Seed drives roster seeding, score jitter, and the production voter
	// and generator. Zero means time-seeded.
	Seed int64 `mapstructure:"seed"`
	// JournalPath is the JSON-lines result log. Empty disables persistence.
	JournalPath string `mapstructure:"journal_path"`
	// GenerationTimeout bounds each content-generation call.
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	// LogLevel is the zap level: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration. path, when non-empty, names an explicit config
// file; otherwise agora.yaml is searched in the working directory and is
// optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("teams", 3)
	v.SetDefault("sanction_threshold", 3)
	v.SetDefault("readiness_threshold", 0.8)
	v.SetDefault("seed", int64(0))
	v.SetDefault("journal_path", "agora-history.jsonl")
	v.SetDefault("generation_timeout", 30*time.Second)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("AGORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else {
		v.SetConfigName("agora")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Teams < 2 {
		return fmt.Errorf("config: teams must be >= 2, got %d", c.Teams)
	}
	if c.SanctionThreshold < 1 {
		return fmt.Errorf("config: sanction_threshold must be >= 1, got %d", c.SanctionThreshold)
	}
	if c.ReadinessThreshold <= 0 || c.ReadinessThreshold > 1 {
		return fmt.Errorf("config: readiness_threshold must be in (0, 1], got %g", c.ReadinessThreshold)
	}
	if c.GenerationTimeout < 0 {
		return fmt.Errorf("config: generation_timeout must be >= 0, got %s", c.GenerationTimeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return nil
}

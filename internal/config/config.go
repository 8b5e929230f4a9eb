// Package config loads application configuration from file and environment
// and installs the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Policy   PolicyConfig   `yaml:"policy" mapstructure:"policy"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Profile  ProfileConfig  `yaml:"profile" mapstructure:"profile"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-tracker/enrichment backend.
type StoreConfig struct {
	// Driver is sqlite, postgres or memory.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PolicyConfig points at the deny-list files.
type PolicyConfig struct {
	BlockedAddressesPath string `yaml:"blocked_addresses_path" mapstructure:"blocked_addresses_path"`
	BlockedDomainsPath   string `yaml:"blocked_domains_path" mapstructure:"blocked_domains_path"`
}

// PipelineConfig configures batch processing behavior.
type PipelineConfig struct {
	OutputDir       string `yaml:"output_dir" mapstructure:"output_dir"`
	CrossBatchDedup bool   `yaml:"cross_batch_dedup" mapstructure:"cross_batch_dedup"`
	Parallelism     int    `yaml:"parallelism" mapstructure:"parallelism"`
}

// ProfileConfig points at the default market profile.
type ProfileConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CURATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "curate.db")
	v.SetDefault("policy.blocked_addresses_path", "policy/blocked_addresses.txt")
	v.SetDefault("policy.blocked_domains_path", "policy/blocked_domains.txt")
	v.SetDefault("pipeline.output_dir", "out")
	v.SetDefault("pipeline.cross_batch_dedup", true)
	v.SetDefault("pipeline.parallelism", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/andrei-cloud/go_binio/pkg/abi"
)

var (
	configData Config
	v          *viper.Viper
)

// Config holds all configuration settings.
type Config struct {
	// Guest module selection
	Guest GuestConfig `mapstructure:"guest"`
	// Engine limits
	Runtime RuntimeConfig `mapstructure:"runtime"`
	// Logging configuration
	Log LogConfig `mapstructure:"log"`
}

// GuestConfig selects the guest module and its protocol exports.
type GuestConfig struct {
	// Path to a .wasm file; empty means the embedded reference guest.
	Path          string `mapstructure:"path"`
	ReserveExport string `mapstructure:"reserve_export"`
	ComputeExport string `mapstructure:"compute_export"`
	Convention    string `mapstructure:"convention"`
}

// RuntimeConfig bounds the WASM engine.
type RuntimeConfig struct {
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
	PoolSize         int    `mapstructure:"pool_size"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Human reports whether console output was requested.
func (l LogConfig) Human() bool {
	return l.Format != "json"
}

// Initialize loads configuration into the package state. An empty configFile
// searches the default locations; a missing file there is not an error.
func Initialize(configFile string) error {
	nv, cfg, err := load(configFile)
	if err != nil {
		return err
	}
	v = nv
	configData = *cfg

	return nil
}

// Load reads configuration without touching the package state.
func Load(configFile string) (*Config, error) {
	_, cfg, err := load(configFile)
	return cfg, err
}

func load(configFile string) (*viper.Viper, *Config, error) {
	nv := newViper()

	if configFile != "" {
		nv.SetConfigFile(configFile)
	} else {
		nv.SetConfigName("config")          // name of config file (without extension)
		nv.SetConfigType("yaml")            // config file type
		nv.AddConfigPath(".")               // optionally look for config in working directory
		nv.AddConfigPath("$HOME/.go_binio") // look for config in .go_binio directory in home
		nv.AddConfigPath("/etc/go_binio/")  // path to look for the config file in
	}

	// Environment variables
	nv.SetEnvPrefix("BINIO")
	nv.AutomaticEnv()
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := nv.ReadInConfig(); err != nil {
		// It's okay if we can't find a config file, we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := nv.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return nv, &cfg, nil
}

func newViper() *viper.Viper {
	nv := viper.New()
	setDefaults(nv)
	return nv
}

// setDefaults sets default values for all configuration options.
func setDefaults(nv *viper.Viper) {
	// Guest defaults
	nv.SetDefault("guest.path", "")
	nv.SetDefault("guest.reserve_export", "reserve_buffer")
	nv.SetDefault("guest.compute_export", "do_compute")
	nv.SetDefault("guest.convention", "packed64")

	// Runtime defaults
	nv.SetDefault("runtime.memory_limit_pages", 256)
	nv.SetDefault("runtime.pool_size", 4)

	// Logging defaults
	nv.SetDefault("log.level", "info")
	nv.SetDefault("log.format", "human")
}

// Validate checks values that would otherwise fail deep inside the engine.
func (c *Config) Validate() error {
	if _, err := abi.ConventionByName(c.Guest.Convention); err != nil {
		return fmt.Errorf("guest.convention: %w", err)
	}
	if c.Guest.ReserveExport == "" || c.Guest.ComputeExport == "" {
		return errors.New("guest.reserve_export and guest.compute_export must be set")
	}
	if c.Runtime.PoolSize < 1 {
		return fmt.Errorf("runtime.pool_size must be positive, got %d", c.Runtime.PoolSize)
	}
	if c.Runtime.MemoryLimitPages > 65536 {
		return fmt.Errorf("runtime.memory_limit_pages exceeds 65536: %d", c.Runtime.MemoryLimitPages)
	}
	switch c.Log.Format {
	case "human", "json":
	default:
		return fmt.Errorf("log.format must be human or json, got %q", c.Log.Format)
	}

	return nil
}

// WriteDefault writes the default configuration to path, creating parent
// directories. An existing file is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	nv := newViper()
	if overwrite {
		return nv.WriteConfigAs(path)
	}
	return nv.SafeWriteConfigAs(path)
}

// DefaultPath is where `config init` writes when no path is given.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_binio", "config.yaml")
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}

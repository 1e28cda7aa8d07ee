// Package config provides configuration management for dzman.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultConfigDir  = ".config/dzman"
	DefaultConfigFile = "config.yaml"
	DefaultDataDir    = "~/daemon-zero"
)

// defaultImage is the default container image (unexported).
const defaultImage = "daemon-zero"

// Sentinel errors for configuration operations.
var (
	ErrInvalidKey   = errors.New("invalid configuration key")
	ErrInvalidValue = errors.New("invalid configuration value")
)

// validKeys is built once from Config struct reflection.
var validKeys = buildValidKeys()

// validate is the shared validator instance.
var validate = validator.New()

// Config represents the full dzman configuration.
type Config struct {
	Image     string            `mapstructure:"image" validate:"required"`
	Storage   StorageConfig     `mapstructure:"storage" validate:"required"`
	Ports     PortsConfig       `mapstructure:"ports" validate:"required"`
	Engine    EngineConfig      `mapstructure:"engine"`
	Ephemeral EphemeralConfig   `mapstructure:"ephemeral"`
	Env       map[string]string `mapstructure:"env"`
	Server    ServerConfig      `mapstructure:"server"`
}

// StorageConfig holds storage location configuration.
type StorageConfig struct {
	DataDir  string `mapstructure:"data_dir" validate:"required"`
	Registry string `mapstructure:"registry" validate:"required"`
}

// PortsConfig holds the host port allocation range.
type PortsConfig struct {
	Base int `mapstructure:"base" validate:"required,gte=1024,lte=65535"`
	Span int `mapstructure:"span" validate:"required,gt=0"`
}

// EngineConfig holds container engine configuration.
type EngineConfig struct {
	StopTimeout time.Duration `mapstructure:"stop_timeout" validate:"required"`
	Flags       []string      `mapstructure:"flags"`
}

// EphemeralConfig holds policy for ephemeral instances.
type EphemeralConfig struct {
	PurgeOnStop bool `mapstructure:"purge_on_stop"`
}

// ServerConfig holds the web API server configuration.
type ServerConfig struct {
	Listen string `mapstructure:"listen" validate:"required,hostname_port"`
}

// Validate checks the configuration for errors using struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Loader provides configuration loading and saving.
type Loader struct {
	v       *viper.Viper
	path    string
	homeDir string
}

// NewLoader creates a new configuration loader.
func NewLoader() (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	configPath := filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
	return NewLoaderAt(configPath, home), nil
}

// NewLoaderAt creates a loader for an explicit config file path. Used by tests
// and the --config flag.
func NewLoaderAt(configPath, homeDir string) *Loader {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Environment variable binding
	v.SetEnvPrefix("DZMAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific env vars to config keys.
	// We intentionally ignore errors here as BindEnv only fails if called with zero arguments.
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("image", "DZMAN_IMAGE")
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("storage.data_dir", "DZMAN_DATA_DIR")
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("ports.base", "DZMAN_PORT_BASE")
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("server.listen", "DZMAN_LISTEN")

	l := &Loader{
		v:       v,
		path:    configPath,
		homeDir: homeDir,
	}

	// Set defaults before any config reading
	l.setDefaults()

	return l
}

// setDefaults sets all default configuration values using Viper.
func (l *Loader) setDefaults() {
	l.v.SetDefault("image", defaultImage)
	l.v.SetDefault("storage.data_dir", DefaultDataDir)
	l.v.SetDefault("storage.registry", DefaultDataDir+"/registry.json")
	l.v.SetDefault("ports.base", 50080)
	l.v.SetDefault("ports.span", 1000)
	l.v.SetDefault("engine.stop_timeout", "10s")
	l.v.SetDefault("engine.flags", []string{})
	l.v.SetDefault("ephemeral.purge_on_stop", true)
	l.v.SetDefault("env", map[string]string{})
	l.v.SetDefault("server.listen", "127.0.0.1:8990")
}

// Load reads the configuration file, creating defaults if it doesn't exist.
func (l *Loader) Load() (*Config, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := l.createDefault(); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand paths
	cfg.Storage.DataDir = l.expandPath(cfg.Storage.DataDir)
	cfg.Storage.Registry = l.expandPath(cfg.Storage.Registry)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Get returns a configuration value by dot-notation key.
func (l *Loader) Get(key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return l.v.Get(key), nil
}

// Set sets a configuration value by dot-notation key and persists it.
func (l *Loader) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	// Validate the stop timeout parses before persisting
	if key == "engine.stop_timeout" {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s (want a duration like 10s)", ErrInvalidValue, value)
		}
	}

	l.v.Set(key, value)
	return l.v.WriteConfig()
}

// createDefault writes the default configuration file using Viper.
func (l *Loader) createDefault() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	return l.v.SafeWriteConfigAs(l.path)
}

// expandPath replaces ~ with the home directory.
func (l *Loader) expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(l.homeDir, path[2:])
	}
	if path == "~" {
		return l.homeDir
	}
	return path
}

// ValidateKey checks if a key is a valid configuration key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	// Check for exact match in derived valid keys
	if validKeys[key] {
		return nil
	}

	// env.<NAME> addresses one variable inside the env map
	if strings.HasPrefix(key, "env.") && len(key) > len("env.") {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrInvalidKey, key)
}

// buildValidKeys builds the set of valid keys from Config struct using reflection.
func buildValidKeys() map[string]bool {
	keys := make(map[string]bool)
	addKeysFromType(reflect.TypeOf(Config{}), "", keys)
	return keys
}

// addKeysFromType recursively adds keys from a struct type.
func addKeysFromType(t reflect.Type, prefix string, keys map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		keys[key] = true

		// Recurse into nested structs (but not maps)
		if field.Type.Kind() == reflect.Struct {
			addKeysFromType(field.Type, key, keys)
		}
	}
}

// Package config loads phxstream configuration from file, environment and .env.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, e.g. PHXSTREAM_SOCKET_URL.
const EnvPrefix = "PHXSTREAM"

// Config holds all configuration for phxstream.
type Config struct {
	Socket   SocketConfig   `mapstructure:"socket"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Output   OutputConfig   `mapstructure:"output"`
	Recorder RecorderConfig `mapstructure:"recorder"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SocketConfig describes the realtime endpoint.
type SocketConfig struct {
	URL               string            `mapstructure:"url"`
	VSN               string            `mapstructure:"vsn"`
	Params            map[string]string `mapstructure:"params"`
	ConnectTimeout    time.Duration     `mapstructure:"connect_timeout"`
	ReadTimeout       time.Duration     `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration     `mapstructure:"write_timeout"`
	HeartbeatInterval time.Duration     `mapstructure:"heartbeat_interval"`
	RequestTimeout    time.Duration     `mapstructure:"request_timeout"`
}

// StreamConfig controls what is observed and how much of it.
type StreamConfig struct {
	// Topics are joined on connect.
	Topics     []string          `mapstructure:"topics"`
	JoinParams map[string]string `mapstructure:"join_params"`

	// Events limits channel streams to these event names. Empty means every message.
	Events []string `mapstructure:"events"`

	// Demand is the initial demand per stream; 0 means unlimited.
	Demand int `mapstructure:"demand"`

	// Replenish is added to the demand after each element.
	Replenish int `mapstructure:"replenish"`

	// Status also streams socket open/close/error transitions.
	Status bool `mapstructure:"status"`
}

// OutputConfig controls how records are printed.
type OutputConfig struct {
	Format string   `mapstructure:"format"`
	Types  []string `mapstructure:"types"`
}

// RecorderConfig controls the SQLite record store.
type RecorderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from configPath, or from the default search
// paths when configPath is empty, then validates it.
func Load(configPath string) (*Config, error) {
	v, err := NewViper(configPath)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// NewViper builds the viper instance backing Load. A .env file in the
// working directory is applied to the environment first.
func NewViper(configPath string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.phxstream")
		v.AddConfigPath("/etc/phxstream")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return v, nil
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("socket.url", "")
	v.SetDefault("socket.vsn", DefaultVSN)
	v.SetDefault("socket.params", map[string]string{})
	v.SetDefault("socket.connect_timeout", DefaultConnectTimeout)
	v.SetDefault("socket.read_timeout", DefaultReadTimeout)
	v.SetDefault("socket.write_timeout", DefaultWriteTimeout)
	v.SetDefault("socket.heartbeat_interval", DefaultHeartbeatInterval)
	v.SetDefault("socket.request_timeout", DefaultRequestTimeout)

	v.SetDefault("stream.topics", []string{})
	v.SetDefault("stream.join_params", map[string]string{})
	v.SetDefault("stream.events", []string{})
	v.SetDefault("stream.demand", 0)
	v.SetDefault("stream.replenish", 0)
	v.SetDefault("stream.status", true)

	v.SetDefault("output.format", "json")
	v.SetDefault("output.types", []string{})

	v.SetDefault("recorder.enabled", false)
	v.SetDefault("recorder.path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func postProcess(cfg *Config) error {
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))

	if cfg.Recorder.Path == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve recorder path: %w", err)
		}
		cfg.Recorder.Path = filepath.Join(dir, DefaultRecorderFile)
	}

	path, err := expandHome(cfg.Recorder.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve recorder path: %w", err)
	}
	cfg.Recorder.Path = path

	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// GetConfigDir returns ~/.phxstream.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".phxstream"), nil
}

// EnsureConfigDir creates the config directory if needed and returns it.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

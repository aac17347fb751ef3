package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the static configuration of the nsmd agent.
//
// Configuration sources, in order of precedence (see Load):
//  1. Environment variables (NSMD_*) (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// Agent controls the NSM transport and device-runtime behavior.
	Agent AgentConfig `mapstructure:"agent" yaml:"agent" validate:"required"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// StatusAPI contains the status/inventory HTTP server configuration.
	StatusAPI StatusAPIConfig `mapstructure:"status_api" yaml:"status_api"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// AgentConfig configures the NSM transport, request/response exchange
// defaults, and the instance-number remap table (spec.md §6's abstract
// property-fetch interface, made concrete as static config).
type AgentConfig struct {
	// SocketPath is the AF_UNIX SOCK_SEQPACKET path of the local MCTP demux.
	SocketPath string `mapstructure:"socket_path" validate:"required" yaml:"socket_path"`

	// PollInterval is the scheduler's per-device pass budget: each pass over
	// a device's sensors is padded out to this interval.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required,gt=0" yaml:"poll_interval"`

	// RetryCount is the default number of retries for a request before it
	// fails with a TIMEOUT error.
	RetryCount int `mapstructure:"retry_count" validate:"gte=0" yaml:"retry_count"`

	// AttemptTimeout is the per-attempt timeout waiting for a response
	// before retrying or failing.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" validate:"required,gt=0" yaml:"attempt_timeout"`

	// LongRunningTimeout bounds how long a long-running command's async
	// completion event is awaited before the exchange fails.
	LongRunningTimeout time.Duration `mapstructure:"long_running_timeout" validate:"required,gt=0" yaml:"long_running_timeout"`

	// AsyncOpPoolCapacity is the number of concurrent in-flight async
	// set-operations the pool tracks.
	AsyncOpPoolCapacity int `mapstructure:"async_op_pool_capacity" validate:"required,gt=0" yaml:"async_op_pool_capacity"`

	// InstanceRemap is an ordered list of rules mapping a discovered device
	// to its stable instance number. Rules are evaluated top to bottom;
	// the first match wins.
	InstanceRemap []InstanceRemapRule `mapstructure:"instance_remap" yaml:"instance_remap,omitempty"`

	// StaticEndpoints lists the (eid, uuid, medium, networkId, binding)
	// discovery tuples spec.md §4.5 describes as arriving "from the MCTP
	// layer". MCTP endpoint discovery itself is out of scope (spec.md §1
	// Non-goals); this is the static stand-in that feeds the same tuples
	// into the device manager's FIFO at startup.
	StaticEndpoints []StaticEndpoint `mapstructure:"static_endpoints" yaml:"static_endpoints,omitempty"`
}

// StaticEndpoint is one configured discovery tuple.
type StaticEndpoint struct {
	EID       uint8  `mapstructure:"eid" validate:"required" yaml:"eid"`
	UUID      string `mapstructure:"uuid" validate:"required,uuid" yaml:"uuid"`
	Medium    string `mapstructure:"medium" yaml:"medium,omitempty"`
	NetworkID string `mapstructure:"network_id" yaml:"network_id,omitempty"`
	Binding   string `mapstructure:"binding" yaml:"binding,omitempty"`
}

// InstanceRemapRule matches a discovered device by one identity key and
// assigns it a stable instance number within its device type.
type InstanceRemapRule struct {
	// Key selects which device identity field Match is compared against.
	Key string `mapstructure:"key" validate:"required,oneof=deviceInstanceId eid uuid" yaml:"key"`

	// Match is the value Key must equal for this rule to apply.
	Match string `mapstructure:"match" validate:"required" yaml:"match"`

	// DeviceType restricts the rule to devices of this type (GPU, Switch,
	// PCIeBridge, Baseboard, EROT).
	DeviceType string `mapstructure:"device_type" validate:"required" yaml:"device_type"`

	// Instance is the instance number assigned when this rule matches.
	Instance uint32 `mapstructure:"instance" yaml:"instance"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use an insecure (non-TLS) connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect.
	// Relevant to a cooperative scheduler: cpu, goroutines, block_count,
	// block_duration (useful for spotting a sensor blocking the event loop).
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the HTTP server are enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// StatusAPIConfig configures the status/inventory HTTP server (A6).
type StatusAPIConfig struct {
	// Enabled controls whether the status API is served.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Address is the address the status API binds to. Defaults to
	// localhost-only; operators must opt in to a wider bind address.
	Address string `mapstructure:"address" yaml:"address"`

	// Port is the HTTP port for the status API.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NSMD_*)
//  2. Configuration file
//  3. Default values
//
// When no configuration file is found, the defaults are returned as they
// are and the environment is not read. With a file, an environment variable
// overrides only a key that the file sets.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  nsmd config init\n\n"+
				"Or specify a custom config file:\n"+
				"  nsmd <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// Validate runs struct-tag validation over the configuration.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	for i, rule := range cfg.Agent.InstanceRemap {
		if err := v.Struct(rule); err != nil {
			return fmt.Errorf("instance_remap[%d]: %w", i, err)
		}
	}
	return nil
}

// SaveConfig saves the configuration to the specified file path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variable and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the NSMD_ prefix and underscores for nesting.
	// Example: NSMD_AGENT_SOCKET_PATH=/run/mctp/demux.sock
	v.SetEnvPrefix("NSMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns the combined mapstructure decode hook for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts strings like "30s", "5m", "1h" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or "." as a last resort.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nsmd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "nsmd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the CLI).
func GetConfigDir() string {
	return getConfigDir()
}

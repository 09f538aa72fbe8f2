// Package config loads the cfdpd configuration: engine-wide settings plus
// the default MIB entry new remote entities inherit.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (CFDP_*), for keys the configuration file sets
//  2. Configuration file (YAML)
//  3. Default values
//
// No CLI flag is bound to a configuration key; cmd/cfdpd's --config flag
// only selects the file. When no configuration file is found, Load returns
// the built-in defaults without reading the environment.
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

	"github.com/marmos91/cfdpgo/internal/bytesize"
)

// Config is the top-level cfdpd configuration.
type Config struct {
	Logging         LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	ShutdownTimeout time.Duration      `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
	Entity          EntityConfig       `mapstructure:"entity" yaml:"entity"`
	DefaultMIB      MIBEntryConfig     `mapstructure:"default_mib" yaml:"default_mib"`
	Metrics         MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	ControlPlane    ControlPlaneConfig `mapstructure:"controlplane" yaml:"controlplane"`
	MIBStore        MIBStoreConfig     `mapstructure:"mib_store" yaml:"mib_store"`
	Filestore       FilestoreConfig    `mapstructure:"filestore" yaml:"filestore"`
	Audit           AuditConfig        `mapstructure:"audit" yaml:"audit"`
	Tracing         TracingConfig      `mapstructure:"tracing" yaml:"tracing"`
}

// EntityConfig names the local CFDP entity this daemon acts as.
type EntityConfig struct {
	ID uint64 `mapstructure:"id" validate:"required" yaml:"id"`
}

// MIBEntryConfig is the default remote-entity configuration applied when no
// MIBStore entry exists for a destination/source entity.
type MIBEntryConfig struct {
	TransmissionMode     string            `mapstructure:"transmission_mode" validate:"required,oneof=unacknowledged acknowledged" yaml:"transmission_mode"`
	MaxFileSegmentLength bytesize.ByteSize `mapstructure:"max_file_segment_length" validate:"required" yaml:"max_file_segment_length"`
	ChecksumType         string            `mapstructure:"checksum_type" validate:"required,oneof=modular crc32c" yaml:"checksum_type"`
	PositiveAckTimeout   time.Duration     `mapstructure:"positive_ack_timeout" validate:"required,gt=0" yaml:"positive_ack_timeout"`
	PositiveAckLimit     int               `mapstructure:"positive_ack_limit" validate:"required,gt=0" yaml:"positive_ack_limit"`
	NakTimeout           time.Duration     `mapstructure:"nak_timeout" validate:"required,gt=0" yaml:"nak_timeout"`
	NakLimit             int               `mapstructure:"nak_limit" validate:"required,gt=0" yaml:"nak_limit"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// ControlPlaneConfig controls the REST control-plane HTTP endpoint.
type ControlPlaneConfig struct {
	Address       string `mapstructure:"address" yaml:"address"`
	JWTSigningKey string `mapstructure:"jwt_signing_key" yaml:"jwt_signing_key"`
}

// MIBStoreConfig selects the MIB backend: in-memory ("static", the
// default) or a persistent Badger directory.
type MIBStoreConfig struct {
	BadgerDir string `mapstructure:"badger_dir" yaml:"badger_dir"`
}

// FilestoreConfig selects the filestore backend: a native directory root
// (the default) or an S3 bucket.
type FilestoreConfig struct {
	RootDir  string `mapstructure:"root_dir" yaml:"root_dir"`
	S3Bucket string `mapstructure:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix string `mapstructure:"s3_prefix" yaml:"s3_prefix"`
}

// TracingConfig controls OTLP/gRPC trace export for the relay and
// control-plane request path. Disabled by default.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,min=0,max=1" yaml:"sample_rate"`
}

// AuditConfig selects the durable transaction-audit backend. Leaving Type
// empty disables the audit trail entirely; the daemon still runs, it just
// has no record of transactions beyond the in-memory status tracker.
type AuditConfig struct {
	Type     string              `mapstructure:"type" validate:"omitempty,oneof=sqlite postgres" yaml:"type"`
	SQLite   AuditSQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres AuditPostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// AuditSQLiteConfig is the SQLite backend for AuditConfig.
type AuditSQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AuditPostgresConfig is the PostgreSQL backend for AuditConfig.
type AuditPostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Database     string `mapstructure:"database" yaml:"database"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"password"`
	SSLMode      string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// GetDefaultConfig returns a complete, valid Config populated entirely from
// built-in defaults.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills any zero-valued field of cfg with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.DefaultMIB.TransmissionMode == "" {
		cfg.DefaultMIB.TransmissionMode = "acknowledged"
	}
	if cfg.DefaultMIB.MaxFileSegmentLength == 0 {
		cfg.DefaultMIB.MaxFileSegmentLength = 1024
	}
	if cfg.DefaultMIB.ChecksumType == "" {
		cfg.DefaultMIB.ChecksumType = "crc32c"
	}
	if cfg.DefaultMIB.PositiveAckTimeout == 0 {
		cfg.DefaultMIB.PositiveAckTimeout = 10 * time.Second
	}
	if cfg.DefaultMIB.PositiveAckLimit == 0 {
		cfg.DefaultMIB.PositiveAckLimit = 3
	}
	if cfg.DefaultMIB.NakTimeout == 0 {
		cfg.DefaultMIB.NakTimeout = 5 * time.Second
	}
	if cfg.DefaultMIB.NakLimit == 0 {
		cfg.DefaultMIB.NakLimit = 5
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
	if cfg.ControlPlane.Address == "" {
		cfg.ControlPlane.Address = ":8080"
	}
	if cfg.Filestore.RootDir == "" && cfg.Filestore.S3Bucket == "" {
		cfg.Filestore.RootDir = "./cfdp-data"
	}
	if cfg.Tracing.Enabled && cfg.Tracing.SampleRate == 0 {
		cfg.Tracing.SampleRate = 1.0
	}
}

var validate = validator.New()

// Validate checks cfg against its struct validation tags.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
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

// SaveConfig writes cfg as YAML to path, creating parent directories as
// needed.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CFDP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("cfdpd")
		v.SetConfigType("yaml")
	}
}

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

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook lets config files use human-readable sizes like "1Gi"
// or "1024" for MaxFileSegmentLength.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook lets config files use human-readable durations like
// "30s" for timer fields.
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

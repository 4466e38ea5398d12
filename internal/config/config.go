package config

import (
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vango-dev/primitives/internal/errors"
	"github.com/vango-dev/primitives/internal/logging"
)

// Config is the full primitives configuration.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Log     logging.Config `mapstructure:"log"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Tracing TracingConfig  `mapstructure:"tracing"`
	Report  ReportConfig   `mapstructure:"report"`
}

// ServerConfig configures the playground server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" default:":7070"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"5s"`
	// MaxMessageBytes limits websocket frames and request bodies.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" default:"65536"`
	// MaxItems limits the number of items per reconcile step.
	MaxItems int `mapstructure:"max_items" default:"10000"`
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" default:"true"`
	Namespace string `mapstructure:"namespace" default:"primitives"`
}

// TracingConfig configures pass spans.
type TracingConfig struct {
	Enabled    bool   `mapstructure:"enabled" default:"false"`
	TracerName string `mapstructure:"tracer_name" default:"github.com/vango-dev/primitives"`
}

// Report sinks.
const (
	SinkNone = "none"
	SinkFile = "file"
	SinkS3   = "s3"
)

// ReportConfig selects where scenario reports are written.
type ReportConfig struct {
	Sink     string `mapstructure:"sink" default:"none"`
	Path     string `mapstructure:"path" default:"reports"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix" default:"reports/"`
	Region   string `mapstructure:"region" default:"us-east-1"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load reads dir/.env (if present), then file (if not empty), then the
// environment, and validates the result.
func Load(dir, file string) (*Config, error) {
	envPath := ".env"
	if dir != "" && dir != "." {
		envPath = filepath.Join(dir, ".env")
	}
	// Missing .env is fine.
	_ = godotenv.Overload(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New("E102").WithDetail(file).Wrap(err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("E101").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration built from the struct tag defaults only.
func Default() *Config {
	v := viper.New()
	bindValues(v, Config{}, "")
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E101").WithDetailf("log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.New("E101").WithDetailf("log.format %q", c.Log.Format)
	}
	if c.Server.MaxMessageBytes <= 0 {
		return errors.New("E101").WithDetail("server.max_message_bytes must be positive")
	}
	if c.Server.MaxItems <= 0 {
		return errors.New("E101").WithDetail("server.max_items must be positive")
	}
	switch c.Report.Sink {
	case SinkNone, SinkFile:
	case SinkS3:
		if c.Report.Bucket == "" {
			return errors.New("E101").WithDetail("report.bucket is required for the s3 sink")
		}
	default:
		return errors.New("E302").WithDetailf("report.sink %q", c.Report.Sink)
	}
	if c.Tracing.Enabled && c.Tracing.TracerName == "" {
		return errors.New("E101").WithDetail("tracing.tracer_name is empty")
	}
	return nil
}

// bindValues registers every mapstructure key with its default tag so that
// AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

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

		// time.Duration is an int64, not a struct, so it lands below.
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/rangeserve"
	"github.com/sagarc03/rangeserve/database"
	rangehttp "github.com/sagarc03/rangeserve/http"
	"github.com/sagarc03/rangeserve/s3store"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "RANGESERVE"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for rangeserve.
type Config struct {
	Server   ServerConfig         `mapstructure:"server" yaml:"server"`
	Backend  BackendConfig        `mapstructure:"backend" yaml:"backend"`
	Database database.Config      `mapstructure:"database" yaml:"database"`
	Storage  StorageConfig        `mapstructure:"storage" yaml:"storage"`
	S3       s3store.Config       `mapstructure:"s3" yaml:"s3"`
	Response ResponseConfig       `mapstructure:"response" yaml:"response"`
	CORS     rangehttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
	Metrics  MetricsConfig        `mapstructure:"metrics" yaml:"metrics"`
	Log      LogConfig            `mapstructure:"log" yaml:"log"`
	// Env selects the log format: prod or production writes JSON, anything
	// else writes colored text.
	Env string `mapstructure:"env" yaml:"env"`
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Mode string `mapstructure:"mode" yaml:"mode" validate:"required,oneof=store static spa"`
	// BandwidthLimit is bytes per second per response; 0 means unlimited.
	BandwidthLimit int64 `mapstructure:"bandwidth_limit" yaml:"bandwidth_limit" validate:"min=0"`
}

// BackendConfig selects where object bytes come from.
type BackendConfig struct {
	// Type is "catalog" (SQL metadata plus local files) or "s3".
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=catalog s3"`
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// ResponseConfig holds headers applied to every object response.
//
// Header names in Headers are case-insensitive; viper lowercases them and
// they are canonicalized when written.
type ResponseConfig struct {
	Headers            map[string]string `mapstructure:"headers" yaml:"headers"`
	ContentDisposition string            `mapstructure:"content_disposition" yaml:"content_disposition"`
	ContentType        string            `mapstructure:"content_type" yaml:"content_type"`
}

// Overrides converts the response section into rangeserve.Overrides.
func (r ResponseConfig) Overrides() rangeserve.Overrides {
	return rangeserve.Overrides{
		AdditionalHeaders:  r.Headers,
		ContentDisposition: r.ContentDisposition,
		ContentType:        r.ContentType,
	}
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":         "database.type",
	"db-dsn":          "database.dsn",
	"storage-path":    "storage.path",
	"backend":         "backend.type",
	"port":            "server.port",
	"mode":            "server.mode",
	"bandwidth-limit": "server.bandwidth_limit",
	"metrics":         "metrics.enabled",
	"metrics-addr":    "metrics.addr",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// needs a default, even an empty one, so AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5708)
	v.SetDefault("server.mode", "store")
	v.SetDefault("server.bandwidth_limit", 0)

	v.SetDefault("backend.type", "catalog")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "rangeserve.db")
	v.SetDefault("database.tables.meta_data", "rangeserve_metadata")

	v.SetDefault("storage.path", "./data")

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "auto")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_path_style", false)

	v.SetDefault("response.content_disposition", "")
	v.SetDefault("response.content_type", "")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_methods", []string{"GET", "HEAD"})
	v.SetDefault("cors.allowed_headers", []string{"Range"})
	v.SetDefault("cors.exposed_headers", []string{"Accept-Ranges", "Content-Range", "Content-Length", "ETag"})

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9708")

	v.SetDefault("log.level", "info")
	v.SetDefault("env", "dev")
}

// LoadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. With no paths it loads ./.env
// if present.
func LoadEnvFiles(paths []string) error {
	if len(paths) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	validate.RegisterStructValidation(validateBackend, Config{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// validateBackend requires a bucket when the s3 backend is selected.
func validateBackend(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	if cfg.Backend.Type == "s3" && cfg.S3.Bucket == "" {
		sl.ReportError(cfg.S3.Bucket, "S3.Bucket", "Bucket", "required_with_s3_backend", "")
	}
}

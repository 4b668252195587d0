package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/admin"
	"github.com/sagarc03/webroot/database"
)

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

// Config is the root configuration struct for webroot.
type Config struct {
	Env       string           `mapstructure:"env" validate:"omitempty,oneof=dev prod"`
	Server    ServerConfig     `mapstructure:"server"`
	Site      SiteConfig       `mapstructure:"site"`
	AccessLog AccessLogConfig  `mapstructure:"access_log"`
	Admin     AdminConfig      `mapstructure:"admin"`
	CORS      admin.CORSConfig `mapstructure:"cors"`
	Log       LogConfig        `mapstructure:"log"`
}

// ServerConfig holds the raw TCP listener configuration.
type ServerConfig struct {
	Address        string        `mapstructure:"address" validate:"required"`
	Port           int           `mapstructure:"port" validate:"min=0,max=65535"`
	Backlog        int           `mapstructure:"backlog" validate:"min=1"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	MaxRequestLine int           `mapstructure:"max_request_line" validate:"min=16"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" validate:"min=4"`
}

// SiteConfig holds the web root and its routing rules.
type SiteConfig struct {
	WebRoot             string            `mapstructure:"web_root" validate:"required"`
	DefaultDocument     string            `mapstructure:"default_document" validate:"required"`
	ForbiddenPath       string            `mapstructure:"forbidden_path" validate:"omitempty,startswith=/"`
	ErrorPath           string            `mapstructure:"error_path" validate:"omitempty,startswith=/"`
	Redirects           []Redirect        `mapstructure:"redirects" validate:"dive"`
	ContentTypes        map[string]string `mapstructure:"content_types"`
	FallbackContentType string            `mapstructure:"fallback_content_type" validate:"required"`
}

// Redirect is one entry of the redirection table. Paths are kept as list
// entries because viper splits map keys on dots.
type Redirect struct {
	From string `mapstructure:"from" yaml:"from" validate:"required,startswith=/"`
	To   string `mapstructure:"to" yaml:"to" validate:"required"`
}

// AccessLogConfig holds the optional access-log database configuration.
type AccessLogConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	database.Config `mapstructure:",squash"`
	QueueSize       int `mapstructure:"queue_size" validate:"min=1"`
}

// AdminConfig holds the optional admin API listener configuration.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" validate:"required"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	// File receives log output instead of stdout when set.
	File string `mapstructure:"file"`
}

// Rules builds the dispatcher routing rules. Duplicate redirect sources are
// rejected.
func (s SiteConfig) Rules() (webroot.SiteConfig, error) {
	redirects := make(map[string]string, len(s.Redirects))
	for _, r := range s.Redirects {
		if _, dup := redirects[r.From]; dup {
			return webroot.SiteConfig{}, fmt.Errorf("site rules: %w: duplicate redirect from %s", webroot.ErrInvalidInput, r.From)
		}
		redirects[r.From] = r.To
	}

	return webroot.SiteConfig{
		DefaultDocument: s.DefaultDocument,
		ForbiddenPath:   s.ForbiddenPath,
		ErrorPath:       s.ErrorPath,
		Redirects:       webroot.NewRedirects(redirects),
		ContentTypes:    webroot.NewContentTypes(s.ContentTypes, s.FallbackContentType),
	}, nil
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"address":      "server.address",
	"port":         "server.port",
	"backlog":      "server.backlog",
	"read-timeout": "server.read_timeout",
	"web-root":     "site.web_root",
	"access-log":   "access_log.enabled",
	"db-type":      "access_log.type",
	"db-dsn":       "access_log.dsn",
	"admin":        "admin.enabled",
	"admin-port":   "admin.port",
	"log-level":    "log.level",
	"log-file":     "log.file",
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

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.backlog", 10)
	v.SetDefault("server.read_timeout", "0s") // disabled
	v.SetDefault("server.max_request_line", 8192)
	v.SetDefault("server.max_header_bytes", 65536)

	v.SetDefault("site.web_root", "./www")
	v.SetDefault("site.default_document", "index.html")
	v.SetDefault("site.forbidden_path", "/forbidden")
	v.SetDefault("site.error_path", "/error")
	v.SetDefault("site.redirects", []map[string]any{{"from": "/moved", "to": "/index.html"}})
	v.SetDefault("site.content_types", contentTypeDefaults())
	v.SetDefault("site.fallback_content_type", webroot.DefaultFallbackContentType)

	v.SetDefault("access_log.enabled", false)
	v.SetDefault("access_log.type", "sqlite")
	v.SetDefault("access_log.dsn", "webroot.db")
	v.SetDefault("access_log.tables.access_log", "webroot_access_log")
	v.SetDefault("access_log.queue_size", 256)

	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.address", "127.0.0.1")
	v.SetDefault("admin.port", 8081)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("env", "")
}

// contentTypeDefaults returns the built-in table as a generic map so viper
// merges configured extensions into it key by key.
func contentTypeDefaults() map[string]any {
	table := webroot.DefaultContentTypeTable()
	out := make(map[string]any, len(table))
	for ext, mime := range table {
		out[ext] = mime
	}
	return out
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
	v.SetEnvPrefix("WEBROOT")
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
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.AccessLog.Enabled {
		if err := cfg.AccessLog.Tables.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}

	return &cfg, nil
}

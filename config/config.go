// Package config loads coalwatch settings from defaults, an optional YAML
// file, COALWATCH_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables, e.g. COALWATCH_SERVER_ADDR.
const EnvPrefix = "COALWATCH"

// Config holds all configuration for the coalwatch server.
type Config struct {
	Server struct {
		Addr            string        `mapstructure:"addr" validate:"required,hostname_port"`
		StaticDir       string        `mapstructure:"static_dir"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	} `mapstructure:"server"`

	App struct {
		Title  string `mapstructure:"title" validate:"required"`
		Anchor string `mapstructure:"anchor" validate:"required,startswith=#,min=2"`
	} `mapstructure:"app"`

	Routes struct {
		Variant string `mapstructure:"variant" validate:"required,oneof=full minimal partial"`
		Mode    string `mapstructure:"mode" validate:"required,oneof=history hash"`
	} `mapstructure:"routes"`

	Live struct {
		Enabled bool    `mapstructure:"enabled"`
		Rate    float64 `mapstructure:"rate" validate:"gte=0"`
		Burst   int     `mapstructure:"burst" validate:"gte=1"`
	} `mapstructure:"live"`

	Cache struct {
		Size int `mapstructure:"size" validate:"gte=1"`
	} `mapstructure:"cache"`

	Sitemap struct {
		BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	} `mapstructure:"sitemap"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path" validate:"omitempty,startswith=/"`
	} `mapstructure:"metrics"`

	Log struct {
		Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"required,oneof=text json"`
	} `mapstructure:"log"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("app.title", "coalwatch")
	v.SetDefault("app.anchor", "#app")

	v.SetDefault("routes.variant", "full")
	v.SetDefault("routes.mode", "history")

	v.SetDefault("live.enabled", true)
	v.SetDefault("live.rate", 10.0)
	v.SetDefault("live.burst", 20)

	v.SetDefault("cache.size", 64)

	v.SetDefault("sitemap.base_url", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. If file is empty, coalwatch.yaml is looked up
// in the working directory and ./config; a missing file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("coalwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

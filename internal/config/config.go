// Package config loads CoverStencil settings from defaults, an optional YAML
// file and COVERSTENCIL_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xob0t/CoverStencil/pkg/overlay"
)

// EnvPrefix is the prefix of every environment override, e.g.
// COVERSTENCIL_SERVER_PORT.
const EnvPrefix = "COVERSTENCIL"

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Assets AssetsConfig `mapstructure:"assets" yaml:"assets"`
	Editor EditorConfig `mapstructure:"editor" yaml:"editor"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ServerConfig configures the editor HTTP service.
type ServerConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	SessionTTL   time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	SessionSweep time.Duration `mapstructure:"session_sweep" yaml:"session_sweep"`
	MaxUploadMB  int           `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// RenderConfig configures the render service client.
type RenderConfig struct {
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RatePerSec float64       `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`
	Burst      int           `mapstructure:"burst" yaml:"burst"`
}

// AssetsConfig says where logos, fonts and brand kits come from.
type AssetsConfig struct {
	LogoDirs    []string `mapstructure:"logo_dirs" yaml:"logo_dirs"`
	LogoBaseURL string   `mapstructure:"logo_base_url" yaml:"logo_base_url"`
	BrandKit    string   `mapstructure:"brand_kit" yaml:"brand_kit"`
	FontPath    string   `mapstructure:"font_path" yaml:"font_path"`
}

// EditorConfig holds editor defaults.
type EditorConfig struct {
	DefaultTheme   string  `mapstructure:"default_theme" yaml:"default_theme"`
	DefaultHeader  bool    `mapstructure:"default_header" yaml:"default_header"`
	ViewportWidth  float64 `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight float64 `mapstructure:"viewport_height" yaml:"viewport_height"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "coverstencil")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Server --
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.session_ttl", "2h")
	v.SetDefault("server.session_sweep", "5m")
	v.SetDefault("server.max_upload_mb", 10)

	// -- Render --
	v.SetDefault("render.endpoint", "")
	v.SetDefault("render.timeout", "90s")
	v.SetDefault("render.rate_per_sec", 2.0)
	v.SetDefault("render.burst", 2)

	// -- Assets --
	v.SetDefault("assets.logo_dirs", []string{"./assets", "~/.coverstencil/assets"})
	v.SetDefault("assets.logo_base_url", "")
	v.SetDefault("assets.brand_kit", "")
	v.SetDefault("assets.font_path", "")

	// -- Editor --
	v.SetDefault("editor.default_theme", overlay.DefaultTheme)
	v.SetDefault("editor.default_header", false)
	v.SetDefault("editor.viewport_width", 640.0)
	v.SetDefault("editor.viewport_height", float64(overlay.FallbackViewportHeight))
}

// Configure points v at cfgFile (or ./config.yaml) and the environment.
// A missing default config file is not an error.
func Configure(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", got %q", c.Logger.Format)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.session_ttl must be a positive duration")
	}
	if c.Server.SessionSweep <= 0 {
		return fmt.Errorf("server.session_sweep must be a positive duration")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be a positive integer")
	}
	if c.Render.RatePerSec < 0 {
		return fmt.Errorf("render.rate_per_sec must not be negative")
	}
	if c.Render.Endpoint != "" && !strings.HasPrefix(c.Render.Endpoint, "http://") && !strings.HasPrefix(c.Render.Endpoint, "https://") {
		return fmt.Errorf("render.endpoint must be an http(s) URL")
	}
	if !overlay.HasTheme(c.Editor.DefaultTheme) {
		return fmt.Errorf("editor.default_theme %q is not a known theme", c.Editor.DefaultTheme)
	}
	if c.Editor.ViewportWidth < 0 || c.Editor.ViewportHeight < 0 {
		return fmt.Errorf("editor viewport size must not be negative")
	}
	return nil
}

// Addr is the listen address for the server.
func (s ServerConfig) Addr() string { return fmt.Sprintf(":%d", s.Port) }

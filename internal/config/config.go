package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("netcall version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Client  ClientConfig  `mapstructure:"client"`
}

// AuthType represents the kind of static credentials attached to requests
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
)

// ClientConfig holds what every request sent by the client shares.
type ClientConfig struct {
	Timeout    time.Duration     `mapstructure:"timeout"`
	AuthType   AuthType          `mapstructure:"auth_type"`
	AuthConfig map[string]string `mapstructure:"auth_config"`
	// RateLimit caps requests per second sent through one session; zero
	// disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
	// Headers are added to every request; descriptor headers win on conflict.
	Headers map[string]string `mapstructure:"headers"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
			Color:  true,
		},
		Client: ClientConfig{
			Timeout:  30 * time.Second,
			AuthType: AuthTypeNone,
		},
	}
}

// InitFlags registers the configuration flags on fs (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file")
	fs.String("log-level", "", "Log level (debug|info|warn|error)")
	fs.Duration("timeout", 0, "Request timeout")
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.color", d.Logging.Color)
	v.SetDefault("client.timeout", d.Client.Timeout)
	v.SetDefault("client.auth_type", string(d.Client.AuthType))
	v.SetDefault("client.rate_limit", d.Client.RateLimit)
	v.SetDefault("client.rate_burst", d.Client.RateBurst)
}

// Load reads configuration from flags, NETCALL_* environment variables and
// an optional config.yaml. A missing config file is not an error.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NETCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/netcall")
		v.AddConfigPath("/etc/netcall")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Flags override file values
	if level := v.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if timeout := v.GetDuration("timeout"); timeout > 0 {
		cfg.Client.Timeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot check by itself.
func (c *Config) Validate() error {
	switch c.Client.AuthType {
	case "", AuthTypeNone, AuthTypeBasic, AuthTypeBearer, AuthTypeAPIKey:
	default:
		return fmt.Errorf("unsupported auth type: %s", c.Client.AuthType)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("client.timeout must not be negative")
	}
	if c.Client.RateLimit < 0 || c.Client.RateBurst < 0 {
		return fmt.Errorf("client.rate_limit and client.rate_burst must not be negative")
	}
	return nil
}

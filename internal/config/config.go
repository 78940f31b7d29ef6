// Package config loads runtime settings from defaults, an optional YAML file,
// a .env file and PORTAFOLIO_* environment variables, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "PORTAFOLIO"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Security SecurityConfig `mapstructure:"security"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	RPCSocket         string        `mapstructure:"rpc_socket"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SecurityConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

type SessionConfig struct {
	Store        string        `mapstructure:"store"`
	BoltPath     string        `mapstructure:"bolt_path"`
	TTL          time.Duration `mapstructure:"ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type UIConfig struct {
	Language string `mapstructure:"language"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"server.addr":                ":5000",
	"server.rpc_socket":          "/tmp/portafolio.sock",
	"server.read_header_timeout": "5s",
	"server.shutdown_timeout":    "10s",
	"backend.url":                "http://localhost:5031/api",
	"backend.timeout":            "10s",
	"security.secret_key":        "",
	"session.store":              "sqlite",
	"session.bolt_path":          "portafolio-sessions.bolt",
	"session.ttl":                "12h",
	"session.cookie_name":        "portafolio_session",
	"session.secure_cookie":      false,
	"database.path":              "portafolio.db",
	"ui.language":                "es",
	"log.level":                  "info",
	"log.format":                 "json",
}

// Load reads configuration. configFile may be empty, in which case
// ./portafolio.yaml is used when present. envFile names a dotenv file that
// is loaded into the process environment if it exists.
func Load(configFile, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("portafolio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: backend.url %q is not an absolute URL", c.Backend.URL)
	}
	if c.Backend.Timeout < 0 {
		return errors.New("config: backend.timeout must not be negative")
	}
	switch c.Session.Store {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("config: session.store must be sqlite or bolt, got %q", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session.ttl must be positive")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("config: session.cookie_name is required")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("config: database.path is required")
	}
	return nil
}

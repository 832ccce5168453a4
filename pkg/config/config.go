// Package config loads the finledger settings from defaults, an optional config file and the
// environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileEnv names the environment variable holding an optional config file path.
const FileEnv = "FINLEDGER_CONFIG"

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	LogMode      bool   `mapstructure:"log_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	TTL        time.Duration `mapstructure:"ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type Config struct {
	Port     string         `mapstructure:"port"`
	GinMode  string         `mapstructure:"gin_mode"`
	LogLevel string         `mapstructure:"log_level"`
	Database DatabaseConfig `mapstructure:"db"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
}

// env maps config keys to the environment variables that override them.
var env = map[string]string{
	"port":              "PORT",
	"gin_mode":          "GIN_MODE",
	"log_level":         "LOG_LEVEL",
	"db.driver":         "DB_DRIVER",
	"db.dsn":            "DB_DSN",
	"db.auto_migrate":   "DB_AUTO_MIGRATE",
	"db.log_mode":       "DB_LOG",
	"db.max_open_conns": "DB_MAX_OPEN_CONNS",
	"jwt.secret":        "JWT_SECRET",
	"jwt.issuer":        "JWT_ISSUER",
	"jwt.ttl":           "JWT_TTL",
	"jwt.refresh_ttl":   "REFRESH_TTL",
	"amqp.url":          "AMQP_URL",
	"amqp.exchange":     "AMQP_EXCHANGE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/finledger.db")
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_mode", false)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "finledger")
	v.SetDefault("jwt.ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "finledger")
}

// Load reads the configuration. Values come from, in increasing precedence: defaults, the file
// named by FINLEDGER_CONFIG when set, and the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}
	if path := os.Getenv(FileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	return &cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errors = append(errors, fmt.Sprintf("invalid gin mode '%s': must be debug, release or test", c.GinMode))
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be postgres or sqlite", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errors = append(errors, "DB_DSN cannot be empty")
	}
	if c.Database.MaxOpenConns < 1 {
		errors = append(errors, fmt.Sprintf("invalid max open conns %d: must be at least 1", c.Database.MaxOpenConns))
	}

	if len(c.JWT.Secret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.JWT.TTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid JWT_TTL %v: must be positive", c.JWT.TTL))
	}
	if c.JWT.RefreshTTL < c.JWT.TTL {
		errors = append(errors, fmt.Sprintf("invalid REFRESH_TTL %v: must not be shorter than JWT_TTL", c.JWT.RefreshTTL))
	}

	if c.AMQP.URL != "" {
		if u, err := url.Parse(c.AMQP.URL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQP.Exchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

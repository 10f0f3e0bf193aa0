// Package config loads pinpoint settings from an optional config.yaml and
// PINPOINT_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// DSN renders a postgres:// URL. User and password are escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// OverpassConfig controls the OpenStreetMap Overpass client.
type OverpassConfig struct {
	URL string `mapstructure:"url"`
	// RateInterval is the minimum spacing between queries.
	RateInterval time.Duration `mapstructure:"rate_interval"`
	Burst        int           `mapstructure:"burst"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
}

type CacheConfig struct {
	// ReferenceTTL is how long a resolved amenity reference stays cached.
	ReferenceTTL time.Duration `mapstructure:"reference_ttl"`
	// MemorySize is the entry count of the in-process LRU in front of valkey.
	MemorySize int `mapstructure:"memory_size"`
}

var defaults = map[string]any{
	"server.port":            8080,
	"server.read_timeout":    10 * time.Second,
	"server.write_timeout":   10 * time.Second,
	"database.host":          "localhost",
	"database.port":          5432,
	"database.user":          "pinpoint",
	"database.password":      "",
	"database.dbname":        "pinpoint",
	"database.sslmode":       "disable",
	"database.max_conns":     20,
	"nats.url":               "nats://localhost:4222",
	"valkey.addr":            "localhost:6379",
	"telemetry.tempo_addr":   "tempo:4317",
	"telemetry.enabled":      true,
	"temporal.host_port":     "localhost:7233",
	"temporal.namespace":     "default",
	"temporal.task_queue":    "pinpoint-locate",
	"overpass.url":           "https://overpass-api.de/api/interpreter",
	"overpass.rate_interval": time.Second,
	"overpass.burst":         1,
	"overpass.timeout":       60 * time.Second,
	"overpass.user_agent":    "pinpoint/1.0 (+https://github.com/samirrijal/pinpoint)",
	"cache.reference_ttl":    6 * time.Hour,
	"cache.memory_size":      512,
}

// Load builds the configuration for service. service doubles as the default
// telemetry service name. The result is validated before it is returned.
func Load(service string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetDefault("telemetry.service_name", service)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// PINPOINT_OVERPASS_RATE_INTERVAL maps to overpass.rate_interval.
	v.SetEnvPrefix("PINPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once rather than stopping at the first.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}
	validPort := func(p int) bool { return p > 0 && p <= 65535 }

	check(validPort(c.Server.Port), "server.port must be 1-65535, got %d", c.Server.Port)
	check(c.Server.ReadTimeout > 0, "server.read_timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server.write_timeout must be positive")

	check(c.Database.Host != "", "database.host is required")
	check(validPort(c.Database.Port), "database.port must be 1-65535, got %d", c.Database.Port)
	check(c.Database.User != "", "database.user is required")
	check(c.Database.DBName != "", "database.dbname is required")
	check(c.Database.MaxConns >= 0, "database.max_conns must not be negative")

	check(c.NATS.URL != "", "nats.url is required")
	check(c.Valkey.Addr != "", "valkey.addr is required")
	check(c.Temporal.TaskQueue != "", "temporal.task_queue is required")

	check(c.Overpass.URL != "", "overpass.url is required")
	check(c.Overpass.RateInterval >= 0, "overpass.rate_interval must not be negative")
	check(c.Overpass.Burst > 0, "overpass.burst must be positive, got %d", c.Overpass.Burst)
	check(c.Overpass.Timeout > 0, "overpass.timeout must be positive")

	check(c.Cache.ReferenceTTL >= time.Second, "cache.reference_ttl must be at least 1s")
	check(c.Cache.MemorySize >= 0, "cache.memory_size must not be negative")

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

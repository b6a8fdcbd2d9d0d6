// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads deckhub settings from defaults, an optional YAML
// file, the environment and command-line flags, in that order.
package config

import (
	"os"
	"slices"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/deckhub/internal/logging"
)

// Supported password hashers.
const (
	HasherArgon2id = "argon2id"
	HasherBcrypt   = "bcrypt"
)

// Config is the full process configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	StaticDir         string        `koanf:"static_dir"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	CORS              CORSConfig    `koanf:"cors"`
}

// CORSConfig lists the origin glob patterns allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL            string `koanf:"url"`
	ConnectRetries uint64 `koanf:"connect_retries"`
	AutoMigrate    bool   `koanf:"auto_migrate"`
}

// AuthConfig configures credential hashing and identity tokens.
type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	Hasher     string        `koanf:"hasher"`
	BcryptCost int           `koanf:"bcrypt_cost"`
	Argon2     Argon2Config  `koanf:"argon2"`
}

// Argon2Config holds argon2id cost parameters.
type Argon2Config struct {
	Time    uint32 `koanf:"time"`
	Memory  uint32 `koanf:"memory"`
	Threads uint8  `koanf:"threads"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Environment variables read by Load.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvJWTSecret   = "JWT_SECRET"
	EnvHTTPAddr    = "DECKHUB_HTTP_ADDR"
	EnvLogFormat   = "DECKHUB_LOG_FORMAT"
)

var envKeys = map[string]string{
	EnvDatabaseURL: "database.url",
	EnvJWTSecret:   "auth.jwt_secret",
	EnvHTTPAddr:    "http.addr",
	EnvLogFormat:   "log.format",
}

// flagKeys maps the flags registered by BindFlags to configuration keys.
var flagKeys = map[string]string{
	"http-addr":    "http.addr",
	"static-dir":   "http.static_dir",
	"metrics-addr": "metrics.addr",
	"auto-migrate": "database.auto_migrate",
	"log-format":   "log.format",
	"log-level":    "log.level",
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":                 ":3000",
		"http.static_dir":           "public",
		"http.read_header_timeout":  10 * time.Second,
		"http.cors.allowed_origins": []string{"*"},
		"metrics.addr":              "127.0.0.1:9100",
		"database.url":              "",
		"database.connect_retries":  5,
		"database.auto_migrate":     true,
		"auth.jwt_secret":           "",
		"auth.token_ttl":            7 * 24 * time.Hour,
		"auth.hasher":               HasherArgon2id,
		"auth.bcrypt_cost":          bcrypt.DefaultCost,
		"auth.argon2.time":          1,
		"auth.argon2.memory":        64 * 1024,
		"auth.argon2.threads":       4,
		"log.format":                "json",
		"log.level":                 "info",
	}
}

// BindFlags registers the serve flags that override configuration when set.
// Flag defaults are informational; only flags the user changes are applied.
func BindFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("http-addr", d["http.addr"].(string), "API listen address")
	fs.String("static-dir", d["http.static_dir"].(string), "directory served at / (empty = disabled)")
	fs.String("metrics-addr", d["metrics.addr"].(string), "metrics/health HTTP address (empty = disabled)")
	fs.Bool("auto-migrate", d["database.auto_migrate"].(bool), "apply pending migrations at startup")
	fs.String("log-format", d["log.format"].(string), "log format (json or text)")
	fs.String("log-level", d["log.level"].(string), "log level (debug, info, warn, error)")
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// File is an optional YAML file. Empty skips it.
	File string
	// Flags is the command's flag set. Nil skips flags.
	Flags *pflag.FlagSet
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load layers defaults, File, environment and changed Flags into a Config.
// It does not validate the result.
func Load(opts LoadOptions) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "read config file").
				With("file", opts.File).
				Wrap(err)
		}
	}

	for env, key := range envKeys {
		if value := getenv(env); value != "" {
			if err := k.Set(key, value); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	if opts.Flags != nil {
		fs := opts.Flags
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "read flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "decode config").Wrap(err)
	}
	return &cfg, nil
}

// RequireDatabase checks the settings needed by commands that only talk to
// the database.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "database.url").
			Errorf("database url is required (set %s)", EnvDatabaseURL)
	}
	return nil
}

// Validate checks everything the API server needs to start.
func (c *Config) Validate() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.jwt_secret").
			Errorf("token signing secret is required (set %s)", EnvJWTSecret)
	}
	if c.Auth.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.token_ttl").
			Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Auth.Hasher {
	case HasherArgon2id:
		a := c.Auth.Argon2
		if a.Time == 0 || a.Memory == 0 || a.Threads == 0 {
			return oops.Code("CONFIG_INVALID").
				With("key", "auth.argon2").
				Errorf("argon2 time, memory and threads must be positive")
		}
	case HasherBcrypt:
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.hasher").
			Errorf("hasher must be %q or %q, got %q", HasherArgon2id, HasherBcrypt, c.Auth.Hasher)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return oops.Code("CONFIG_INVALID").
			With("key", "auth.bcrypt_cost").
			Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "http.addr").Errorf("http address is required")
	}
	if c.HTTP.ReadHeaderTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "http.read_header_timeout").
			Errorf("read header timeout must be positive, got %s", c.HTTP.ReadHeaderTimeout)
	}
	if !slices.Contains([]string{"json", "text"}, c.Log.Format) {
		return oops.Code("CONFIG_INVALID").
			With("key", "log.format").
			Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "log.level").Wrap(err)
	}
	return nil
}

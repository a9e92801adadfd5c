// Package config loads settings for the todo binaries.
//
// Values are resolved in order: defaults, an optional TOML file, then
// environment variables. Command-line flags are applied by each binary on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Backend names.
const (
	BackendAuto   = "auto"
	BackendSQLite = "sqlite"
	BackendKV     = "kv"
)

// KV driver names.
const (
	KVDriverFile  = "file"
	KVDriverRedis = "redis"
)

// Default values.
const (
	DefaultDBPath    = "todos.db"
	DefaultKVKey     = "todos:v1"
	DefaultKVDir     = ".todo-data"
	DefaultRedisAddr = "localhost:6379"
	DefaultHTTPPort  = 3000
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config holds all settings.
type Config struct {
	Storage Storage `toml:"storage"`
	HTTP    HTTP    `toml:"http"`
	Log     Log     `toml:"log"`
}

// Storage selects and configures the repository backend.
type Storage struct {
	// Backend is auto, sqlite or kv.
	Backend string `toml:"backend"`
	SQLite  SQLite `toml:"sqlite"`
	KV      KV     `toml:"kv"`
}

// SQLite configures the transactional backend.
type SQLite struct {
	Path  string `toml:"path"`
	Debug bool   `toml:"debug"`
}

// KV configures the key-value backend.
type KV struct {
	// Driver is file or redis.
	Driver string `toml:"driver"`
	Key    string `toml:"key"`
	// Dir is where the file driver keeps one file per key.
	Dir   string `toml:"dir"`
	Redis Redis  `toml:"redis"`
}

// Redis configures the redis KV driver.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// HTTP configures the REST server.
type HTTP struct {
	Port int `toml:"port"`
}

// Log configures logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a config with every field set to its default.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Backend: BackendAuto,
			SQLite:  SQLite{Path: DefaultDBPath},
			KV: KV{
				Driver: KVDriverFile,
				Key:    DefaultKVKey,
				Dir:    DefaultKVDir,
				Redis:  Redis{Addr: DefaultRedisAddr},
			},
		},
		HTTP: HTTP{Port: DefaultHTTPPort},
		Log:  Log{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Load builds the config. path may be empty; a missing file at a non-empty
// path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv overrides cfg from environment variables.
func loadFromEnv(cfg *Config, lookup func(string) (string, bool)) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("TODO_BACKEND", &cfg.Storage.Backend)
	setString("DB_PATH", &cfg.Storage.SQLite.Path)
	if v, ok := lookup("DB_DEBUG"); ok {
		cfg.Storage.SQLite.Debug = v == "true" || v == "1"
	}
	setString("KV_DRIVER", &cfg.Storage.KV.Driver)
	setString("KV_KEY", &cfg.Storage.KV.Key)
	setString("KV_DIR", &cfg.Storage.KV.Dir)
	setString("REDIS_ADDR", &cfg.Storage.KV.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Storage.KV.Redis.Password)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(
		setInt("REDIS_DB", &cfg.Storage.KV.Redis.DB),
		setInt("HTTP_PORT", &cfg.HTTP.Port),
	)
}

// Validate normalizes enum fields and rejects unknown values.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	switch c.Storage.Backend {
	case BackendAuto, BackendSQLite, BackendKV:
	default:
		return fmt.Errorf("unknown storage backend %q (want auto, sqlite or kv)", c.Storage.Backend)
	}

	c.Storage.KV.Driver = strings.ToLower(c.Storage.KV.Driver)
	switch c.Storage.KV.Driver {
	case KVDriverFile, KVDriverRedis:
	default:
		return fmt.Errorf("unknown kv driver %q (want file or redis)", c.Storage.KV.Driver)
	}

	if c.Storage.KV.Key == "" {
		return errors.New("kv key must not be empty")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}

	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	return nil
}

// Package config loads lendflow settings from a YAML file, the environment
// and an optional .env file.
//
// Environment variables use the LENDFLOW_ prefix with "__" separating
// sections, e.g. LENDFLOW_STORAGE__REDIS__ADDR. String values may reference
// other variables as ${NAME}.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LENDFLOW_"

// DefaultFile is read when no path is given. It may be absent.
const DefaultFile = "lendflow.yaml"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Lock      LockConfig      `koanf:"lock"`
	LLM       LLMConfig       `koanf:"llm"`
	Bureau    BureauConfig    `koanf:"bureau"`
	CRM       CRMConfig       `koanf:"crm"`
	Documents DocumentsConfig `koanf:"documents"`
	Privacy   PrivacyConfig   `koanf:"privacy"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port        int      `koanf:"port"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type StorageConfig struct {
	Driver string       `koanf:"driver"` // memory, file, redis, sqlite
	File   FileConfig   `koanf:"file"`
	Redis  RedisConfig  `koanf:"redis"`
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type FileConfig struct {
	Path string `koanf:"path"`
}

type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
	Prefix   string        `koanf:"prefix"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// LockConfig enables distributed per-session locking. Requires the redis driver.
type LockConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl"`
}

// LLMConfig configures the reply composer. Without an API key or base URL,
// replies use the fixed texts.
type LLMConfig struct {
	BaseURL        string        `koanf:"base_url"`
	APIKey         string        `koanf:"api_key"`
	Model          string        `koanf:"model"`
	Conversational float32       `koanf:"conversational_temperature"`
	Analytical     float32       `koanf:"analytical_temperature"`
	MaxTokens      int           `koanf:"max_tokens"`
	Timeout        time.Duration `koanf:"timeout"`
}

// Enabled reports whether a composer should be wired.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" || c.BaseURL != ""
}

type BureauConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type CRMConfig struct {
	Customers string        `koanf:"customers"` // YAML fixture; empty uses the built-in set
	Latency   time.Duration `koanf:"latency"`
}

type DocumentsConfig struct {
	Dir     string `koanf:"dir"`
	BaseURL string `koanf:"base_url"`
	Company string `koanf:"company"`
}

type PrivacyConfig struct {
	PIIKeys       []string `koanf:"pii_keys"`
	EncryptionKey string   `koanf:"encryption_key"` // hex or base64, 32 bytes
	FallbackKeys  []string `koanf:"fallback_keys"`
}

type TelemetryConfig struct {
	Tracing bool `koanf:"tracing"`
	Metrics bool `koanf:"metrics"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text, json
}

var defaults = map[string]any{
	"server.port":                    8080,
	"storage.driver":                 DriverMemory,
	"storage.file.path":              ".lendflow/sessions",
	"storage.redis.addr":             "localhost:6379",
	"storage.redis.ttl":              "24h",
	"storage.redis.prefix":           "lendflow:session:",
	"storage.sqlite.path":            ".lendflow/lendflow.db",
	"lock.ttl":                       "30s",
	"llm.model":                      "llama-3.1-8b-instant",
	"llm.conversational_temperature": 0.7,
	"llm.analytical_temperature":     0.3,
	"llm.max_tokens":                 1024,
	"llm.timeout":                    "30s",
	"bureau.timeout":                 "5s",
	"documents.dir":                  ".lendflow/letters",
	"telemetry.metrics":              true,
	"log.level":                      "info",
	"log.format":                     "text",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads .env, then the YAML file at path, then LENDFLOW_ variables.
// An empty path reads DefaultFile if it exists.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	optional := path == ""
	if optional {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	for _, key := range k.Keys() {
		if s, ok := k.Get(key).(string); ok && strings.Contains(s, "${") {
			if err := k.Set(key, substituteEnvVars(s)); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverRedis, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Lock.Enabled && c.Storage.Driver != DriverRedis {
		errs = append(errs, errors.New("lock.enabled requires storage.driver redis"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if c.Privacy.EncryptionKey != "" {
		if _, _, err := c.Privacy.Keys(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Keys decodes the active and fallback encryption keys.
func (p PrivacyConfig) Keys() (active []byte, fallback [][]byte, err error) {
	active, err = DecodeKey(p.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("privacy.encryption_key: %w", err)
	}
	for i, s := range p.FallbackKeys {
		k, err := DecodeKey(s)
		if err != nil {
			return nil, nil, fmt.Errorf("privacy.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, k)
	}
	return active, fallback, nil
}

// DecodeKey reads a 32-byte key written as hex or standard base64.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	key, err := hex.DecodeString(s)
	if err != nil {
		key, err = base64.StdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, errors.New("key is neither hex nor base64")
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

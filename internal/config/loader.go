package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CALENDAR_"

// Config captures the settings shared by the calendar server and calendarctl.
type Config struct {
	HTTPPort int
	Store    StoreConfig
	// CacheDSN points at the SQLite file holding the on-device cache.
	CacheDSN       string
	AdminSecret    string
	AdminTokenTTL  time.Duration
	AdminConfigTTL time.Duration
	// Retention is how long past sessions are kept before ExpireSessions removes them.
	Retention time.Duration
	LogLevel  string
}

// StoreConfig locates the hosted document store and the three documents in it.
type StoreConfig struct {
	BaseURL          string
	AccessKey        string
	KeyHeader        string
	Timeout          time.Duration
	SessionsDoc      string
	RegistrationsDoc string
	AdminConfigDoc   string
}

func defaults() Config {
	return Config{
		HTTPPort: 8080,
		Store: StoreConfig{
			BaseURL:   "https://api.jsonbin.io/v3",
			KeyHeader: "X-Access-Key",
			Timeout:   10 * time.Second,
		},
		CacheDSN:       "file:calendar-cache.db",
		AdminTokenTTL:  24 * time.Hour,
		AdminConfigTTL: 10 * time.Minute,
		Retention:      90 * 24 * time.Hour,
		LogLevel:       "info",
	}
}

// Load parses configuration values from the process environment. A .env file
// in the working directory is read first; variables already set win over it.
//
// The loader applies defaults for optional fields while validating required
// values and reporting localized error messages for missing entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf(".env ファイルを読み込めません: %w", err)
	}
	return parse(func(name string) string {
		return os.Getenv(name)
	})
}

// LoadFile reads a YAML, TOML, or JSON configuration file. Keys are the
// variable names without the CALENDAR_ prefix in lower case, for example
// store_url. Environment variables override file values.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(strings.TrimSuffix(envPrefix, "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("設定ファイルを読み込めません: %w", err)
	}
	return parse(func(name string) string {
		return v.GetString(strings.ToLower(strings.TrimPrefix(name, envPrefix)))
	})
}

func parse(lookup func(string) string) (Config, error) {
	cfg := defaults()

	missing := make([]string, 0, 5)
	invalid := make([]string, 0, 2)

	get := func(name string) string {
		return strings.TrimSpace(lookup(envPrefix + name))
	}
	required := func(name string, dst *string) {
		if value := get(name); value != "" {
			*dst = value
			return
		}
		missing = append(missing, envPrefix+name)
	}
	optional := func(name string, dst *string) {
		if value := get(name); value != "" {
			*dst = value
		}
	}
	duration := func(name string, dst *time.Duration) {
		value := get(name)
		if value == "" {
			return
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, envPrefix+name)
			return
		}
		*dst = parsed
	}

	if portValue := get("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, envPrefix+"HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	optional("STORE_URL", &cfg.Store.BaseURL)
	required("STORE_ACCESS_KEY", &cfg.Store.AccessKey)
	optional("STORE_KEY_HEADER", &cfg.Store.KeyHeader)
	duration("STORE_TIMEOUT", &cfg.Store.Timeout)
	required("SESSIONS_DOC", &cfg.Store.SessionsDoc)
	required("REGISTRATIONS_DOC", &cfg.Store.RegistrationsDoc)
	required("ADMIN_CONFIG_DOC", &cfg.Store.AdminConfigDoc)
	optional("CACHE_DSN", &cfg.CacheDSN)
	required("ADMIN_SECRET", &cfg.AdminSecret)
	duration("ADMIN_TOKEN_TTL", &cfg.AdminTokenTTL)
	duration("ADMIN_CONFIG_TTL", &cfg.AdminConfigTTL)
	duration("RETENTION", &cfg.Retention)
	optional("LOG_LEVEL", &cfg.LogLevel)

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
		cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	default:
		invalid = append(invalid, envPrefix+"LOG_LEVEL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/usercards/internal/users"
)

// Config holds application configuration.
type Config struct {
	Endpoint EndpointConfig
	Journal  JournalConfig
	Log      LogConfig
}

// EndpointConfig describes where users are fetched from.
type EndpointConfig struct {
	URL     string
	Timeout time.Duration
}

// JournalConfig controls the sqlite outcome journal.
type JournalConfig struct {
	Enabled bool
	Path    string
}

// LogConfig controls the diagnostics log.
type LogConfig struct {
	Path  string
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix USERCARDS_.
func Load() (Config, error) {
	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("endpoint.url", users.DefaultURL)
	v.SetDefault("endpoint.timeout", "30s")
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", filepath.Join(home, ".local", "share", "usercards", "journal.db"))
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "usercards", "usercards.log"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("USERCARDS_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "usercards"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("USERCARDS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// a missing default file is fine; an explicit path or a broken file is not
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Endpoint.Timeout < 0 {
		return Config{}, fmt.Errorf("endpoint.timeout must not be negative, got %s", c.Endpoint.Timeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

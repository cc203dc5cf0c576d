package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the service needs at startup. Values come from an
// optional YAML file and are overridden by environment variables, so a bare
// container can run on env alone.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Forwarder ForwarderConfig `yaml:"forwarder"`
	Sync      SyncConfig      `yaml:"sync"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

// ForwarderConfig carries the OAuth2 password-grant credentials and endpoints
// of the external logistics API.
type ForwarderConfig struct {
	TokenURL     string `yaml:"token_url"`
	APIBaseURL   string `yaml:"api_base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

type SyncConfig struct {
	PageSize int           `yaml:"page_size"`
	Interval time.Duration `yaml:"interval"` // zero disables the scheduler
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file at path (skipped when path is empty or the file is
// absent) and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Migrate: true},
		Sync:     SyncConfig{PageSize: 100},
		Log:      LogConfig{Level: "info"},
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.Sync.PageSize <= 0 {
		cfg.Sync.PageSize = 100
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	c.Database.URL = envOr("DATABASE_URL", c.Database.URL)
	if v := os.Getenv("DB_MIGRATE"); v != "" {
		c.Database.Migrate = v != "false"
	}
	c.Redis.URL = envOr("REDIS_URL", c.Redis.URL)
	c.Forwarder.TokenURL = envOr("FORWARDER_TOKEN_URL", c.Forwarder.TokenURL)
	c.Forwarder.APIBaseURL = envOr("FORWARDER_API_URL", c.Forwarder.APIBaseURL)
	c.Forwarder.ClientID = envOr("FORWARDER_CLIENT_ID", c.Forwarder.ClientID)
	c.Forwarder.ClientSecret = envOr("FORWARDER_CLIENT_SECRET", c.Forwarder.ClientSecret)
	c.Forwarder.Username = envOr("FORWARDER_USERNAME", c.Forwarder.Username)
	c.Forwarder.Password = envOr("FORWARDER_PASSWORD", c.Forwarder.Password)
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Sync.Interval = d
		}
	}
	if v := os.Getenv("SYNC_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sync.PageSize = n
		}
	}
	c.Log.Level = envOr("LOG_LEVEL", c.Log.Level)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

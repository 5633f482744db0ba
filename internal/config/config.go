// Package config loads the server configuration from a YAML file, an
// optional .env file and HUB_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hub/internal/util"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Seed     SeedConfig     `yaml:"seed"`
}

type ServerConfig struct {
	Addr          string   `yaml:"addr"`
	Mode          string   `yaml:"mode"` // debug, release, test
	StaticDir     string   `yaml:"static_dir"`
	CORSOrigins   []string `yaml:"cors_origins"`
	WaitlistRPS   float64  `yaml:"waitlist_rps"`
	WaitlistBurst int      `yaml:"waitlist_burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig enables the optional read-through cache in front of sqlite.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SeedConfig describes the user created on first start when the users
// table is empty.
type SeedConfig struct {
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			Mode:      "release",
			StaticDir:     "web/dist",
			WaitlistRPS:   0.2,
			WaitlistBurst: 3,
		},
		Database: DatabaseConfig{
			Path: "data/hub.db",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		Seed: SeedConfig{
			Name:     "Workspace Owner",
			Username: "owner",
			Email:    "owner@example.com",
		},
	}
}

// Load reads configPath (default config.yaml) and .env from the working
// directory.
func Load(configPath string) (*Config, error) {
	return LoadFiles(configPath, ".env")
}

// LoadFiles is Load with an explicit env file. Missing files are skipped:
// a missing config yields the defaults, and values present in the file
// replace the defaults field by field. Variables already set in the
// process environment win over the env file.
func LoadFiles(configPath, envPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}

	cfg.overrideFromEnv()
	return cfg, cfg.Validate()
}

func (c *Config) overrideFromEnv() {
	c.Server.Addr = util.EnvOrDefault("HUB_ADDR", c.Server.Addr)
	c.Server.Mode = util.EnvOrDefault("HUB_MODE", c.Server.Mode)
	c.Server.StaticDir = util.EnvOrDefault("HUB_STATIC_DIR", c.Server.StaticDir)
	if origins := util.EnvList("HUB_CORS_ORIGINS"); len(origins) > 0 {
		c.Server.CORSOrigins = origins
	}
	c.Database.Path = util.EnvOrDefault("HUB_DB_PATH", c.Database.Path)
	c.Redis.Enabled = util.EnvBool("HUB_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = util.EnvOrDefault("HUB_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = util.EnvOrDefault("HUB_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = util.EnvInt("HUB_REDIS_DB", c.Redis.DB)
	c.Redis.TTL = util.EnvDuration("HUB_REDIS_TTL", c.Redis.TTL)
	c.Log.Level = util.EnvOrDefault("HUB_LOG_LEVEL", c.Log.Level)
	c.Seed.Name = util.EnvOrDefault("HUB_SEED_NAME", c.Seed.Name)
	c.Seed.Username = util.EnvOrDefault("HUB_SEED_USERNAME", c.Seed.Username)
	c.Seed.Email = util.EnvOrDefault("HUB_SEED_EMAIL", c.Seed.Email)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode %q: want debug, release or test", c.Server.Mode)
	}
	if c.Server.WaitlistRPS < 0 {
		return fmt.Errorf("server.waitlist_rps must not be negative, got %v", c.Server.WaitlistRPS)
	}
	if c.Redis.Enabled && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be positive, got %s", c.Redis.TTL)
	}
	return nil
}

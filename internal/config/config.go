package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Server contains HTTP bind configuration.
type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Storage selects and configures the persistence backend. When RedisURL
// is set the key-value backend is used, otherwise records are kept as
// JSON files under StateDir.
type Storage struct {
	RedisURL string `toml:"redis_url"`
	StateDir string `toml:"state_dir"`
}

// OpenAI contains the question model connection settings.
type OpenAI struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Auth contains session token settings.
type Auth struct {
	JWTSecret string `toml:"jwt_secret"`
}

// Config encapsulates all configuration values for Oppie.
type Config struct {
	Server  Server  `toml:"server"`
	Storage Storage `toml:"storage"`
	OpenAI  OpenAI  `toml:"openai"`
	Auth    Auth    `toml:"auth"`

	// DataDir holds the PDF documents offered for quiz generation.
	DataDir string `toml:"data_dir"`
}

// Default returns the configuration defaults applied before any file or
// environment override.
func Default() Config {
	return Config{
		Server: Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: Storage{
			StateDir: "./state",
		},
		OpenAI: OpenAI{
			Model: "gpt-4o-mini",
		},
		DataDir: "./data",
	}
}

// Load parses an optional TOML file and applies environment overrides.
// A missing file is not an error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("open config: %w", err)
			}
		} else {
			defer file.Close()
			decoder := toml.NewDecoder(file)
			if err := decoder.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv lets environment variables override file values, so container
// deployments need no config file at all.
func (c *Config) applyEnv() {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("OPPIE_STATE_DIR"); v != "" {
		c.Storage.StateDir = v
	}
	if v := os.Getenv("OPPIE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("OPPIE_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
}

// Validate checks the values a running server cannot do without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or OPPIE_JWT_SECRET) is required")
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.Storage.RedisURL == "" && c.Storage.StateDir == "" {
		return errors.New("storage.state_dir is required when no redis_url is set")
	}
	return nil
}

// UseRedis reports whether the key-value backend is configured.
func (c *Config) UseRedis() bool {
	return c.Storage.RedisURL != ""
}

// EnsureDirectories creates the state directory for the file backend.
func (c *Config) EnsureDirectories() error {
	if c.UseRedis() {
		return nil
	}
	if err := os.MkdirAll(c.Storage.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory %q: %w", c.Storage.StateDir, err)
	}
	return nil
}

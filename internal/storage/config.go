package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig selects the driver and its connection target. Path is used by
// sqlite, URL by postgres and pgx.
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path,omitempty" toml:"path,omitempty"`
	URL    string `yaml:"url,omitempty" toml:"url,omitempty"`
}

// FeedSource is an RSS/Atom feed imported into a topic under a fixed author.
type FeedSource struct {
	URL    string `yaml:"url" toml:"url"`
	Topic  string `yaml:"topic" toml:"topic"`
	Author string `yaml:"author" toml:"author"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database" toml:"database"`

	Server struct {
		Addr           string        `yaml:"addr" toml:"addr"`
		AllowedOrigins []string      `yaml:"allowed_origins" toml:"allowed_origins"`
		ReadTimeout    time.Duration `yaml:"read_timeout" toml:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout" toml:"write_timeout"`
		IdleTimeout    time.Duration `yaml:"idle_timeout" toml:"idle_timeout"`
	} `yaml:"server" toml:"server"`

	Pagination struct {
		DefaultLimit int `yaml:"default_limit" toml:"default_limit"`
	} `yaml:"pagination" toml:"pagination"`

	Feeds struct {
		Interval time.Duration `yaml:"interval" toml:"interval"`
		Sources  []FeedSource  `yaml:"sources,omitempty" toml:"sources,omitempty"`
	} `yaml:"feeds" toml:"feeds"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = "./newsdesk.db"
	cfg.Server.Addr = ":9090"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.IdleTimeout = 60 * time.Second
	cfg.Pagination.DefaultLimit = 10
	cfg.Feeds.Interval = 30 * time.Minute
	return cfg
}

// LoadConfig reads path over the defaults, then applies environment overrides.
// A missing file is not an error. Files ending in .toml are decoded as TOML,
// everything else as YAML.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		case strings.EqualFold(filepath.Ext(path), ".toml"):
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv loads a .env file from the working directory when present and
// overlays DB_DRIVER, DATABASE_URL, DB_PATH, ADDR, ALLOWED_ORIGINS and
// DEFAULT_PAGE_SIZE.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
		if os.Getenv("DB_DRIVER") == "" {
			c.Database.Driver = DriverPostgres
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v := os.Getenv("DEFAULT_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("DEFAULT_PAGE_SIZE must be a positive integer, got %q", v)
		}
		c.Pagination.DefaultLimit = n
	}
	return nil
}

// Save writes the config to path, as TOML or YAML depending on the extension.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.NewEncoder(f).Encode(c)
	} else {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		err = enc.Encode(c)
		if err == nil {
			err = enc.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

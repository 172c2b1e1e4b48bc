package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"EPESPO-inventario/internal/platform/db"
)

const DefaultPath = "config/config.yaml"

type Server struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
	Cert         string   `yaml:"cert"`
	Key          string   `yaml:"key"`
}

// Backend is the upstream inventory REST API.
type Backend struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Journal stores multi-category submission progress. Driver is "memory" or "mysql".
type Journal struct {
	Driver string            `yaml:"driver"`
	DB     db.DatabaseConfig `yaml:"database"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Cache struct {
	TTL     time.Duration `yaml:"ttl"`
	Cleanup time.Duration `yaml:"cleanup"`
}

type Config struct {
	Version            string   `yaml:"version"`
	Mode               string   `yaml:"mode"`
	Server             Server   `yaml:"server"`
	Backend            Backend  `yaml:"backend"`
	Journal            Journal  `yaml:"journal"`
	Log                Log      `yaml:"log"`
	Cache              Cache    `yaml:"cache"`
	Timezone           string   `yaml:"timezone"`
	AllowedDepartments []string `yaml:"departamentos_permitidos"`
}

// LoadConfig reads the YAML file, then applies .env and INVENTARIO_*
// environment overrides, then fills defaults.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Mode, "INVENTARIO_MODE")
	setString(&c.Server.Addr, "INVENTARIO_SERVER_ADDR")
	setString(&c.Backend.BaseURL, "INVENTARIO_BACKEND_URL")
	setString(&c.Journal.Driver, "INVENTARIO_JOURNAL_DRIVER")
	setString(&c.Journal.DB.Host, "INVENTARIO_DB_HOST")
	setString(&c.Journal.DB.Username, "INVENTARIO_DB_USER")
	setString(&c.Journal.DB.Password, "INVENTARIO_DB_PASSWORD")
	setString(&c.Journal.DB.DBName, "INVENTARIO_DB_NAME")
	setString(&c.Log.Level, "INVENTARIO_LOG_LEVEL")
	setString(&c.Timezone, "INVENTARIO_TIMEZONE")
	if v := os.Getenv("INVENTARIO_DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Journal.DB.Port = p
		}
	}
	if v := os.Getenv("INVENTARIO_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backend.Timeout = d
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8443"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.Journal.Driver == "" {
		c.Journal.Driver = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.Cleanup == 0 {
		c.Cache.Cleanup = time.Minute
	}
	if c.Timezone == "" {
		c.Timezone = "America/Guayaquil"
	}
}

func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release, got %q", c.Mode)
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Journal.Driver != "memory" && c.Journal.Driver != "mysql" {
		return fmt.Errorf("journal.driver must be memory or mysql, got %q", c.Journal.Driver)
	}
	return nil
}

// Location is the business timezone used to decide what "today" is.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

/*
Package config loads server configuration.

PRECEDENCE (lowest to highest):
  1. Defaults()
  2. YAML file (optional; missing keys keep their defaults)
  3. Environment: PORT, DB_DRIVER, DB_PATH, MONGO_URI, MONGO_DATABASE,
     JWT_SECRET, TZ
  4. Command-line flags, applied by cmd/server after Load

EXAMPLE FILE:
  server:
    port: 5000
    base_path: /api
    allowed_origins: ["http://localhost:5173"]
  database:
    driver: sqlite
    path: leave.db
  auth:
    jwt_secret: change-me
    token_ttl: 168h
  timezone: Asia/Kolkata
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// DevJWTSecret is used when no secret is configured. Fine for local runs.
const DevJWTSecret = "leave-manager-dev-secret"

type Config struct {
	Server         ServerConfig   `yaml:"server"`
	Database       DatabaseConfig `yaml:"database"`
	Auth           AuthConfig     `yaml:"auth"`
	Timezone       string         `yaml:"timezone"`
	SeedLeaveTypes bool           `yaml:"seed_leave_types"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	BasePath       string        `yaml:"base_path"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type DatabaseConfig struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Defaults returns a config that runs locally with no file and no env.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           5000,
			BasePath:       "/api",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:        DriverSQLite,
			Path:          "leave.db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "leave_management",
		},
		Auth: AuthConfig{
			JWTSecret: DevJWTSecret,
			TokenTTL:  7 * 24 * time.Hour,
		},
		Timezone:       "UTC",
		SeedLeaveTypes: true,
	}
}

// Load builds a config from defaults, the optional YAML file at path and the
// environment, then validates it. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("DB_DRIVER"); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := lookup("DB_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup("MONGO_URI"); ok && v != "" {
		c.Database.MongoURI = v
	}
	if v, ok := lookup("MONGO_DATABASE"); ok && v != "" {
		c.Database.MongoDatabase = v
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("TZ"); ok && v != "" {
		c.Timezone = v
	}
	return nil
}

// Validate checks ranges and enum values.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("server.base_path must start with /: %q", c.Server.BasePath))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path required for sqlite"))
		}
	case DriverMongo:
		if c.Database.MongoURI == "" || c.Database.MongoDatabase == "" {
			errs = append(errs, errors.New("database.mongo_uri and database.mongo_database required for mongo"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	return errors.Join(errs...)
}

// Location resolves Timezone. Call after Validate.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

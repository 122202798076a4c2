// Package config provides configuration management for the gateway.
// Configuration is loaded once at startup from a YAML file with
// ${VAR} and ${VAR:-default} environment substitution.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all configuration settings for the gateway.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Reactor   ReactorConfig   `yaml:"reactor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	// Salt is mixed into credential fingerprints. Empty is permitted
	// but discouraged; the loader warns in that case.
	Salt string `yaml:"salt"`
}

// RateLimitConfig holds the process-wide default rate limit rule.
// Per-key overrides stored on a key record take precedence.
type RateLimitConfig struct {
	Limit         int `yaml:"limit"`
	WindowSeconds int `yaml:"windowSeconds"`
}

// Window returns the rule window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// MongoConfig holds document store connection settings.
type MongoConfig struct {
	URI              string        `yaml:"uri"`
	Database         string        `yaml:"database"`
	KeysCollection   string        `yaml:"keysCollection"`
	VaultCollection  string        `yaml:"vaultCollection"`
	ConnectTimeout   time.Duration `yaml:"connectTimeout"`
	OperationTimeout time.Duration `yaml:"operationTimeout"`
}

// RedisConfig holds settings for the optional distributed rate limiter.
// When Address is empty the gateway uses in-process counters.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ReactorConfig holds settings for the upstream scoring service.
type ReactorConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	SharedSecret string        `yaml:"sharedSecret"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         "",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		RateLimit: RateLimitConfig{
			Limit:         120,
			WindowSeconds: 60,
		},
		Mongo: MongoConfig{
			Database:         "afi_gateway",
			KeysCollection:   "api_keys",
			VaultCollection:  "tssd_signals",
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 10 * time.Second,
		},
		Reactor: ReactorConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
	}
}

// Validate checks the configuration for fatal misconfiguration.
// A missing Mongo URI is fatal: the gateway must not serve traffic
// without its durable key registry and vault partitions.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in range 1-65535, got %d", c.Server.Port)
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rateLimit.limit must be positive, got %d", c.RateLimit.Limit)
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rateLimit.windowSeconds must be positive, got %d", c.RateLimit.WindowSeconds)
	}
	if c.Mongo.URI == "" {
		return errors.New("mongo.uri is required")
	}
	if c.Mongo.Database == "" {
		return errors.New("mongo.database is required")
	}
	if c.Mongo.KeysCollection == "" {
		return errors.New("mongo.keysCollection is required")
	}
	if c.Mongo.VaultCollection == "" {
		return errors.New("mongo.vaultCollection is required")
	}
	if c.Reactor.BaseURL == "" {
		return errors.New("reactor.baseURL is required")
	}
	return nil
}

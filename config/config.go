package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

/* Config é um pacote auxiliar. Poderia ser uma lib externa
 * Every key has a default, so the .env file is optional and the
 * environment alone is enough to run the service
 */

type Config struct {
	Port                     string `mapstructure:"PORT"`
	RedisURL                 string `mapstructure:"REDIS_URL"`
	BufferCapacity           int    `mapstructure:"BUFFER_CAPACITY"`
	RecordTTLHours           int    `mapstructure:"RECORD_TTL_HOURS"`
	CommandTimeoutMS         int    `mapstructure:"COMMAND_TIMEOUT_MS"`
	HealthCheckTimeoutMS     int    `mapstructure:"HEALTH_CHECK_TIMEOUT_MS"`
	HealthCheckTTLSeconds    int    `mapstructure:"HEALTH_CHECK_TTL_SECONDS"`
	HeartbeatIntervalSeconds int    `mapstructure:"HEARTBEAT_INTERVAL_SECONDS"`
	ListDefaultLimit         int    `mapstructure:"LIST_DEFAULT_LIMIT"`
	MaxBodyBytes             int64  `mapstructure:"MAX_BODY_BYTES"`
	LogLevel                 string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"PORT":                       "3000",
	"REDIS_URL":                  "",
	"BUFFER_CAPACITY":            100,
	"RECORD_TTL_HOURS":           7 * 24,
	"COMMAND_TIMEOUT_MS":         5000,
	"HEALTH_CHECK_TIMEOUT_MS":    3000,
	"HEALTH_CHECK_TTL_SECONDS":   30,
	"HEARTBEAT_INTERVAL_SECONDS": 30,
	"LIST_DEFAULT_LIMIT":         50,
	"MAX_BODY_BYTES":             1 << 20,
	"LOG_LEVEL":                  "info",
}

// GetConfig reads .env from the working directory, then lets the environment override it
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load is GetConfig with an explicit directory to look for .env in
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	err = v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("BUFFER_CAPACITY must be positive, got %d", c.BufferCapacity)
	}
	if c.ListDefaultLimit < 1 {
		return fmt.Errorf("LIST_DEFAULT_LIMIT must be positive, got %d", c.ListDefaultLimit)
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

func (c *Config) RecordTTL() time.Duration {
	return time.Duration(c.RecordTTLHours) * time.Hour
}

func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) HealthCheckTimeout() time.Duration {
	return time.Duration(c.HealthCheckTimeoutMS) * time.Millisecond
}

func (c *Config) HealthCheckTTL() time.Duration {
	return time.Duration(c.HealthCheckTTLSeconds) * time.Second
}

func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSeconds) * time.Second
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

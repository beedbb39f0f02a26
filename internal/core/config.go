package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Cache struct {
	RedisAddress string `yaml:"redisAddress"`
	TTLSeconds   int    `yaml:"ttlSeconds"`
}

type ServiceConfig struct {
	Port     int      `yaml:"port"`
	Database Database `yaml:"database"`
	Cache    Cache    `yaml:"cache"`
}

func (c *ServiceConfig) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// LoadConfig loads configuration from the specified YAML file. For the
// postgres backend, the DSN comes from the DATABASE_URL environment
// variable (managed database endpoint plus access key); loading fails
// fast when it is unset.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return nil, err
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *ServiceConfig) error {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		config.Database.ConnectionString = dsn
	}
	if addr := os.Getenv("REDIS_ADDRESS"); addr != "" {
		config.Cache.RedisAddress = addr
	}
	if config.Database.Type == "postgres" && config.Database.ConnectionString == "" {
		return fmt.Errorf("postgres database requires DATABASE_URL to be set")
	}
	return nil
}

func validateConfig(config *ServiceConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is out of range", config.Port)
	}
	if config.Database.Type == "" {
		return fmt.Errorf("database type must be set")
	}
	if config.Database.ConnectionString == "" {
		return fmt.Errorf("database connection string must be set")
	}
	return nil
}

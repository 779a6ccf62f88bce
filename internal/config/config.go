package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql (default) | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Generation struct {
		Provider       string `yaml:"provider"` // gemini | openai | "" (placeholder)
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		Endpoint       string `yaml:"endpoint"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"generation"`

	Auth struct {
		TokenInfoURL string `yaml:"tokenInfoURL"`
	} `yaml:"auth"`

	Session struct {
		CookieName string `yaml:"cookieName"`
		TTLMinutes int    `yaml:"ttlMinutes"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}

// GenerationTimeout returns the bound for one generation call.
func (c *Config) GenerationTimeout() time.Duration {
	if c.Generation.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Generation.TimeoutSeconds) * time.Second
}

// SessionTTL returns the server-side session lifetime.
func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "powerlog/backend/libs/config"
)

// MQTTConfig describes the broker subscription.
type MQTTConfig struct {
	Broker         string `yaml:"broker" env:"POWERLOG_MQTT_BROKER"`
	Topic          string `yaml:"topic" env:"POWERLOG_MQTT_TOPIC"`
	QoS            int    `yaml:"qos" env:"POWERLOG_MQTT_QOS"`
	ClientID       string `yaml:"clientId" env:"POWERLOG_MQTT_CLIENT_ID"`
	ClientIDPrefix string `yaml:"clientIdPrefix" env:"POWERLOG_MQTT_CLIENT_ID_PREFIX"`
	Username       string `yaml:"username" env:"POWERLOG_MQTT_USERNAME"`
	Password       string `yaml:"password" env:"POWERLOG_MQTT_PASSWORD"`
	ConnectRetry   bool   `yaml:"connectRetry" env:"POWERLOG_MQTT_CONNECT_RETRY"`
}

// CSVConfig describes the output file.
type CSVConfig struct {
	Path string `yaml:"path" env:"POWERLOG_CSV_PATH"`
	CRLF bool   `yaml:"crlf" env:"POWERLOG_CSV_CRLF"`
}

// DatabaseConfig enables the Postgres mirror when DSN is set.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"POWERLOG_POSTGRES_DSN"`
}

// RedisConfig enables the latest-row cache when Addr is set.
type RedisConfig struct {
	Addr       string `yaml:"addr" env:"POWERLOG_REDIS_ADDR"`
	Password   string `yaml:"password" env:"POWERLOG_REDIS_PASSWORD"`
	TTLSeconds int    `yaml:"ttlSeconds" env:"POWERLOG_REDIS_TTL"`
}

// HTTPConfig enables the status API when Port is set.
type HTTPConfig struct {
	Port      string `yaml:"port" env:"POWERLOG_HTTP_PORT"`
	JWTSecret string `yaml:"jwtSecret" env:"POWERLOG_HTTP_JWT_SECRET"`
}

// Config defines collector service configuration.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	CSV      CSVConfig      `yaml:"csv"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:         "tcp://public.mqtthq.com:1883",
			Topic:          "stat/medidorenergia/realtimepower",
			ClientIDPrefix: "powerlog",
			ConnectRetry:   true,
		},
		CSV: CSVConfig{
			Path: "mqtt_data.csv",
		},
		Redis: RedisConfig{
			TTLSeconds: 86400,
		},
	}
}

// Load configuration using shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MQTT.Broker) == "" {
		return errors.New("config: mqtt broker required")
	}
	if strings.TrimSpace(c.MQTT.Topic) == "" {
		return errors.New("config: mqtt topic required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if strings.TrimSpace(c.CSV.Path) == "" {
		return errors.New("config: csv path required")
	}
	if c.Redis.TTLSeconds < 0 {
		return errors.New("config: redis ttl must not be negative")
	}
	return nil
}

// HTTPEnabled reports whether the status API should be served.
func (c *Config) HTTPEnabled() bool {
	return strings.TrimSpace(c.HTTP.Port) != ""
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// RedisTTL returns cache expiry; zero keeps keys forever.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

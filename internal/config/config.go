package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const placeholderJWTSecret = "replace_this_with_a_long_random_string"

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"HTTP_PORT"`
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret           string `yaml:"secret" env:"JWT_SECRET"`
	ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"JWT_EXPIRES_MINUTES"`
}

// MQTTConfig holds the ingestion listener settings.
type MQTTConfig struct {
	Enabled          bool   `yaml:"enabled" env:"MQTT_ENABLED"`
	BrokerURL        string `yaml:"brokerUrl" env:"MQTT_BROKER_URL"`
	Topic            string `yaml:"topic" env:"MQTT_TOPIC"`
	ClientID         string `yaml:"clientId" env:"MQTT_CLIENT_ID"`
	ReconnectSeconds int    `yaml:"reconnectSeconds" env:"MQTT_RECONNECT_SECONDS"`
}

// RedisConfig holds the optional resolver cache settings. An empty Addr
// disables the cache entirely.
type RedisConfig struct {
	Addr               string `yaml:"addr" env:"REDIS_ADDR"`
	Password           string `yaml:"password" env:"REDIS_PASSWORD"`
	ResolverTTLSeconds int    `yaml:"resolverTTLSeconds" env:"REDIS_RESOLVER_TTL_SECONDS"`
}

// Config is the full process configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Redis    RedisConfig    `yaml:"redis"`
}

// Load reads configuration from YAML/env and validates it. Ingestion
// misconfiguration (enabled without broker URL or topic) fails here, at
// startup, rather than silently dropping every frame at runtime.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{Port: "4000"},
		JWT:  JWTConfig{ExpiresInMinutes: 720},
		MQTT: MQTTConfig{ReconnectSeconds: 5},
		Redis: RedisConfig{
			ResolverTTLSeconds: 30,
		},
	}

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn is required")
	}
	secret := strings.TrimSpace(cfg.JWT.Secret)
	if secret == "" || secret == placeholderJWTSecret {
		return nil, errors.New("config: jwt secret must be set to a secure random string")
	}
	if cfg.JWT.ExpiresInMinutes <= 0 {
		cfg.JWT.ExpiresInMinutes = 720
	}
	if cfg.MQTT.ReconnectSeconds <= 0 {
		cfg.MQTT.ReconnectSeconds = 5
	}
	if cfg.Redis.ResolverTTLSeconds <= 0 {
		cfg.Redis.ResolverTTLSeconds = 30
	}

	if cfg.MQTT.Enabled {
		if strings.TrimSpace(cfg.MQTT.BrokerURL) == "" {
			return nil, errors.New("config: mqtt broker url is required when ingestion is enabled")
		}
		if strings.TrimSpace(cfg.MQTT.Topic) == "" {
			return nil, errors.New("config: mqtt topic is required when ingestion is enabled")
		}
	}

	return cfg, nil
}

// HTTPAddress returns :port style listen address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "4000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiration converts the configured expiry to a duration.
func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWT.ExpiresInMinutes) * time.Minute
}

// ReconnectDelay returns the fixed MQTT reconnect interval.
func (c *MQTTConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectSeconds) * time.Second
}

// ResolverTTL returns the resolver cache entry lifetime.
func (c *RedisConfig) ResolverTTL() time.Duration {
	return time.Duration(c.ResolverTTLSeconds) * time.Second
}

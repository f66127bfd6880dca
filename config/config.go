// Package config loads the server configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fizzbuzz-server/kafka"
)

type Config struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout string        `yaml:"shutdown_timeout"`
	Logging         LoggingConfig `yaml:"logging"`
	Game            GameConfig    `yaml:"game"`
	Stats           StatsConfig   `yaml:"stats"`
	Kafka           KafkaConfig   `yaml:"kafka"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type GameConfig struct {
	// MaxCountTo caps countTo on /game. Zero disables the cap.
	MaxCountTo int `yaml:"max_count_to"`
}

type StatsConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// KafkaConfig enables the event transport when Brokers is non-empty.
type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	Topic          string   `yaml:"topic"`
	GroupID        string   `yaml:"group_id"`
	PublishTimeout string   `yaml:"publish_timeout"`
	RetryAttempts  int      `yaml:"retry_attempts"`
	RetryBackoff   string   `yaml:"retry_backoff"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		ShutdownTimeout: "10s",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Stats: StatsConfig{
			BufferSize: 1024,
		},
		Kafka: KafkaConfig{
			Topic:          "game-plays",
			GroupID:        "fizzbuzz-stats",
			PublishTimeout: "5s",
			RetryAttempts:  3,
			RetryBackoff:   "200ms",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("FIZZBUZZ_PORT"); port != "" {
		c.Port = port
	}
	if level := os.Getenv("FIZZBUZZ_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		c.Kafka.Topic = topic
	}
}

func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}
	if c.Game.MaxCountTo < 0 {
		return fmt.Errorf("game.max_count_to must not be negative, got %d", c.Game.MaxCountTo)
	}
	if c.Stats.BufferSize < 1 {
		return fmt.Errorf("stats.buffer_size must be positive, got %d", c.Stats.BufferSize)
	}
	if c.KafkaEnabled() {
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when brokers are set")
		}
		if _, err := time.ParseDuration(c.Kafka.PublishTimeout); err != nil {
			return fmt.Errorf("invalid kafka.publish_timeout: %w", err)
		}
		if _, err := time.ParseDuration(c.Kafka.RetryBackoff); err != nil {
			return fmt.Errorf("invalid kafka.retry_backoff: %w", err)
		}
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// KafkaSettings converts the YAML section into the transport's config.
func (c *Config) KafkaSettings() kafka.Config {
	publishTimeout, _ := time.ParseDuration(c.Kafka.PublishTimeout)
	retryBackoff, _ := time.ParseDuration(c.Kafka.RetryBackoff)
	return kafka.Config{
		Brokers:        c.Kafka.Brokers,
		Topic:          c.Kafka.Topic,
		GroupID:        c.Kafka.GroupID,
		PublishTimeout: publishTimeout,
		RetryAttempts:  c.Kafka.RetryAttempts,
		RetryBackoff:   retryBackoff,
	}
}

// Package config loads the CemTemBot configuration: the Telegram/logging core
// plus database, storage, web chat, session, matching, Redis and Kafka
// sections.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/cemtembot/core/config"
	coredatabase "github.com/m3rciful/cemtembot/core/database"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
}

// WebConfig configures the web chat edge.
type WebConfig struct {
	Enabled        bool          `yaml:"enabled" envconfig:"WEB_ENABLED"`
	Listen         string        `yaml:"listen" envconfig:"WEB_LISTEN"`
	AllowedOrigins []string      `yaml:"allowed_origins" envconfig:"WEB_ALLOWED_ORIGINS"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"WEB_WRITE_TIMEOUT"`
}

// SessionsConfig controls conversation and quote draft lifetimes.
type SessionsConfig struct {
	Backend         string        `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	ConversationTTL time.Duration `yaml:"conversation_ttl" envconfig:"SESSIONS_CONVERSATION_TTL"`
	DraftTTL        time.Duration `yaml:"draft_ttl" envconfig:"SESSIONS_DRAFT_TTL"`
	SweepInterval   time.Duration `yaml:"sweep_interval" envconfig:"SESSIONS_SWEEP_INTERVAL"`
}

// MatchingConfig tunes the vendor fan-out.
type MatchingConfig struct {
	MaxVendorsPerInquiry int `yaml:"max_vendors_per_inquiry" envconfig:"MATCHING_MAX_VENDORS"`
}

// RedisConfig is used when sessions.backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// KafkaConfig enables the notification event stream.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" envconfig:"KAFKA_ENABLED"`
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"KAFKA_TOPIC"`
	Async   bool     `yaml:"async" envconfig:"KAFKA_ASYNC"`
}

// IDsConfig configures the snowflake node of this instance.
type IDsConfig struct {
	Node int64 `yaml:"node" envconfig:"IDS_NODE"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Storage  StorageConfig       `yaml:"storage"`
	Web      WebConfig           `yaml:"web"`
	Sessions SessionsConfig      `yaml:"sessions"`
	Matching MatchingConfig      `yaml:"matching"`
	Redis    RedisConfig         `yaml:"redis"`
	Kafka    KafkaConfig         `yaml:"kafka"`
	IDs      IDsConfig           `yaml:"ids"`
}

// CoreConfig exposes the embedded Telegram/logging configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads an optional .env file, the YAML file at path and environment
// overrides, then normalizes the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Sections are processed one by one so variables keep their short names
	// (DB_HOST rather than DATABASE_DB_HOST).
	sections := []any{&cfg.Config, &cfg.Database, &cfg.Storage, &cfg.Web, &cfg.Sessions,
		&cfg.Matching, &cfg.Redis, &cfg.Kafka, &cfg.IDs}
	for _, s := range sections {
		if err := envconfig.Process("", s); err != nil {
			return nil, fmt.Errorf("failed to process env: %w", err)
		}
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Storage.Driver = lower(cfg.Storage.Driver, StoragePostgres)
	switch cfg.Storage.Driver {
	case StoragePostgres:
		if err := normalizeDatabase(&cfg.Database); err != nil {
			return err
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: postgres, memory", cfg.Storage.Driver)
	}

	if strings.TrimSpace(cfg.Web.Listen) == "" {
		cfg.Web.Listen = ":8080"
	}
	if cfg.Web.WriteTimeout <= 0 {
		cfg.Web.WriteTimeout = 5 * time.Second
	}

	s := &cfg.Sessions
	s.Backend = lower(s.Backend, SessionsMemory)
	switch s.Backend {
	case SessionsMemory:
	case SessionsRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when sessions.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, redis", s.Backend)
	}
	if s.ConversationTTL < 0 || s.DraftTTL < 0 || s.SweepInterval < 0 {
		return fmt.Errorf("sessions durations must be >= 0")
	}
	if s.ConversationTTL == 0 {
		s.ConversationTTL = 24 * time.Hour
	}
	if s.DraftTTL == 0 {
		s.DraftTTL = 72 * time.Hour
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = 10 * time.Minute
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "cemtembot:"
	}

	if cfg.Matching.MaxVendorsPerInquiry < 0 {
		return fmt.Errorf("matching.max_vendors_per_inquiry must be >= 0")
	}
	if cfg.Matching.MaxVendorsPerInquiry == 0 {
		cfg.Matching.MaxVendorsPerInquiry = 3
	}

	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka.enabled is true")
		}
		if cfg.Kafka.Topic == "" {
			cfg.Kafka.Topic = "cemtembot.events"
		}
	}

	if cfg.IDs.Node < 0 || cfg.IDs.Node > 1023 {
		return fmt.Errorf("ids.node must be within 0-1023, got %d", cfg.IDs.Node)
	}
	return nil
}

func normalizeDatabase(db *coredatabase.Config) error {
	if strings.TrimSpace(db.Host) == "" || strings.TrimSpace(db.Name) == "" {
		return fmt.Errorf("database.host and database.name are required for the postgres driver")
	}
	if db.Port == "" {
		db.Port = "5432"
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.MaxConnections <= 0 {
		db.MaxConnections = 10
	}
	if db.MigrationsDir == "" {
		db.MigrationsDir = coredatabase.DefaultMigrationsDir
	}
	return nil
}

func lower(v, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}

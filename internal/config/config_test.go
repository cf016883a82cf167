package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/cemtembot/core/config"
)

func minimal() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Storage.Driver = "memory"
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := minimal()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != coreconfig.RunModeLongpoll {
		t.Fatalf("unexpected run mode %q", cfg.Telegram.RunMode)
	}
	if cfg.Sessions.Backend != SessionsMemory || cfg.Sessions.ConversationTTL != 24*time.Hour ||
		cfg.Sessions.DraftTTL != 72*time.Hour || cfg.Sessions.SweepInterval != 10*time.Minute {
		t.Fatalf("unexpected session defaults %+v", cfg.Sessions)
	}
	if cfg.Matching.MaxVendorsPerInquiry != 3 {
		t.Fatalf("unexpected fan-out cap %d", cfg.Matching.MaxVendorsPerInquiry)
	}
	if cfg.Web.Listen != ":8080" || cfg.Web.WriteTimeout != 5*time.Second {
		t.Fatalf("unexpected web defaults %+v", cfg.Web)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"storage driver":   func(c *Config) { c.Storage.Driver = "sqlite" },
		"postgres no host": func(c *Config) { c.Storage.Driver = "postgres" },
		"redis no addr":    func(c *Config) { c.Sessions.Backend = "redis" },
		"negative cap":     func(c *Config) { c.Matching.MaxVendorsPerInquiry = -1 },
		"kafka no brokers": func(c *Config) { c.Kafka.Enabled = true },
		"node range":       func(c *Config) { c.IDs.Node = 2048 },
		"token":            func(c *Config) { c.Telegram.Token = "" },
		"negative ttl":     func(c *Config) { c.Sessions.DraftTTL = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := minimal()
			mutate(cfg)
			if err := Normalize(cfg); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestNormalizePostgres(t *testing.T) {
	cfg := minimal()
	cfg.Storage.Driver = " Postgres "
	cfg.Database.Host = "db"
	cfg.Database.Name = "cemtem"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Storage.Driver != StoragePostgres || cfg.Database.Port != "5432" || cfg.Database.MigrationsDir != "migrations" {
		t.Fatalf("unexpected database defaults %+v", cfg.Database)
	}
	if !strings.HasPrefix(cfg.Database.URL(), "postgres://") {
		t.Fatalf("unexpected url %q", cfg.Database.URL())
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
telegram:
  token: "from-file"
storage:
  driver: memory
sessions:
  conversation_ttl: 2h
matching:
  max_vendors_per_inquiry: 5
web:
  allowed_origins: ["example.com"]
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MATCHING_MAX_VENDORS", "4")
	t.Setenv("SESSIONS_DRAFT_TTL", "1h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-file" || cfg.Sessions.ConversationTTL != 2*time.Hour {
		t.Fatalf("yaml values lost: %+v", cfg)
	}
	if cfg.Matching.MaxVendorsPerInquiry != 4 || cfg.Sessions.DraftTTL != time.Hour {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Matching, cfg.Sessions)
	}
	if len(cfg.Web.AllowedOrigins) != 1 || cfg.Web.AllowedOrigins[0] != "example.com" {
		t.Fatalf("unexpected origins %v", cfg.Web.AllowedOrigins)
	}
	if cfg.CoreConfig() != &cfg.Config {
		t.Fatal("core config must point at the embedded section")
	}
}

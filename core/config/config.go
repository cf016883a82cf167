// Package config holds the transport and logging settings every bot process
// needs, independent of the domain sections layered on top.
package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// TelegramConfig is the bot identity and update delivery mode.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// Zero selects the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig is required in webhook mode only.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig drives logger.InitLogger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// KeysOrder is a comma list of keys rendered first.
	KeysOrder string `yaml:"keys_order" envconfig:"LOG_KEYS_ORDER"`
	// DebugSample is "n/d" or "d"; empty keeps 1/50.
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file" envconfig:"LOG_BOT_FILE"`
	ErrorsFile  string `yaml:"errors_file" envconfig:"LOG_ERRORS_FILE"`
	// Profile "debug" implies debug level and kv lines unless set explicitly.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// Config groups the core sections.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Normalize checks the required fields, lowercases the run mode ("polling"
// is accepted for longpoll) and rejects an incomplete webhook section.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	tg := &cfg.Telegram
	if strings.TrimSpace(tg.Token) == "" {
		return errors.New("telegram token is required")
	}

	mode := strings.ToLower(strings.TrimSpace(tg.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		if tg.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
		tg.RunMode = RunModeLongpoll
	case RunModeWebhook:
		if err := checkWebhook(cfg.Webhook); err != nil {
			return err
		}
		tg.RunMode = RunModeWebhook
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", tg.RunMode)
	}

	switch f := strings.ToLower(strings.TrimSpace(cfg.Logging.Format)); f {
	case "", "kv", "text", "pretty", "json":
		cfg.Logging.Format = f
	default:
		return fmt.Errorf("invalid logging.format %q; allowed: kv, json", cfg.Logging.Format)
	}
	return nil
}

func checkWebhook(w WebhookConfig) error {
	var missing []string
	if strings.TrimSpace(w.URL) == "" {
		missing = append(missing, "webhook.url")
	}
	if strings.TrimSpace(w.Listen) == "" {
		missing = append(missing, "webhook.listen")
	}
	if w.Port <= 0 {
		missing = append(missing, "webhook.port")
	}
	if len(missing) > 0 {
		return fmt.Errorf("webhook mode needs %s", strings.Join(missing, ", "))
	}
	return nil
}

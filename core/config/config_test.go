package config

import (
	"strings"
	"testing"
)

func TestNormalizeRunMode(t *testing.T) {
	for in, want := range map[string]string{"": RunModeLongpoll, " Polling ": RunModeLongpoll, "WEBHOOK": RunModeWebhook} {
		cfg := &Config{Telegram: TelegramConfig{Token: "1:x", RunMode: in}}
		cfg.Webhook = WebhookConfig{URL: "https://bot.example.com/hook", Listen: "0.0.0.0", Port: 8443}
		if err := Normalize(cfg); err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if cfg.Telegram.RunMode != want {
			t.Fatalf("%q: run mode = %q, want %q", in, cfg.Telegram.RunMode, want)
		}
	}
}

func TestNormalizeWebhookListsMissing(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "1:x", RunMode: RunModeWebhook}}
	cfg.Webhook.Listen = "0.0.0.0"
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "webhook.url, webhook.port") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]*Config{
		"nil token":  {},
		"bad mode":   {Telegram: TelegramConfig{Token: "1:x", RunMode: "push"}},
		"bad format": {Telegram: TelegramConfig{Token: "1:x"}, Logging: LoggingConfig{Format: "xml"}},
		"timeout":    {Telegram: TelegramConfig{Token: "1:x", LongPollTimeoutSeconds: -1}},
	}
	for name, cfg := range cases {
		if err := Normalize(cfg); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
	if err := Normalize(nil); err == nil {
		t.Fatal("nil config must fail")
	}
}

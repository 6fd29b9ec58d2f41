package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/store")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CAPTCHA_BYPASS", "true")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if cfg.Currency != "IDR" {
		t.Fatalf("unexpected currency %q", cfg.Currency)
	}
	if cfg.CartTTL != 168*time.Hour {
		t.Fatalf("unexpected cart ttl %v", cfg.CartTTL)
	}
	if cfg.IdempotencyTTL != 10*time.Minute {
		t.Fatalf("unexpected idempotency ttl %v", cfg.IdempotencyTTL)
	}
	if len(cfg.TierSchedule) != 3 {
		t.Fatalf("unexpected tier schedule %v", cfg.TierSchedule)
	}
	if cfg.TierSchedule[2].Qty != 3 || cfg.TierSchedule[2].OffBps != 1500 {
		t.Fatalf("unexpected top tier %+v", cfg.TierSchedule[2])
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CAPTCHA_BYPASS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadRequiresCaptchaSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/store")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CAPTCHA_BYPASS", "")
	t.Setenv("RECAPTCHA_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when captcha is neither configured nor bypassed")
	}
}

func TestLoadCustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("TIER_SCHEDULE", "1:0,2:500")
	t.Setenv("WHATSAPP_CONTACTS", "+62 812 1111 2222, +62 812 3333 4444")
	t.Setenv("UPSELL_PRICE", "5350")
	t.Setenv("RATE_LIMIT", "30-M")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.TierSchedule) != 2 {
		t.Fatalf("unexpected schedule %v", cfg.TierSchedule)
	}
	if len(cfg.WhatsAppLines) != 2 {
		t.Fatalf("unexpected contacts %v", cfg.WhatsAppLines)
	}
	if cfg.UpsellPrice != 5350 {
		t.Fatalf("unexpected upsell price %d", cfg.UpsellPrice)
	}
	if cfg.RateLimit != "30-M" {
		t.Fatalf("unexpected rate limit %q", cfg.RateLimit)
	}
}

func TestHTTPAddr(t *testing.T) {
	cfg := &Config{Port: "9090"}
	if cfg.HTTPAddr() != ":9090" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr())
	}
	cfg.Port = ":7070"
	if cfg.HTTPAddr() != ":7070" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr())
	}
}

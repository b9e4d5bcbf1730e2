package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGIN", "DATABASE_URL", "LEDGER_FILE",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"ANALYTICS_CACHE_TTL_SECONDS", "LOW_STOCK_THRESHOLD",
		"AUTH_SECRET", "ACCESS_TOKEN_TTL_MINUTES",
		"SEED_OWNER_PASSWORD", "SEED_STAFF_PASSWORD", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("Address() = %s", cfg.Address())
	}
	if cfg.AnalyticsCacheTTLSeconds != 30 {
		t.Fatalf("AnalyticsCacheTTLSeconds = %d, want 30", cfg.AnalyticsCacheTTLSeconds)
	}
	if cfg.LowStockThreshold != 5 {
		t.Fatalf("LowStockThreshold = %d, want 5", cfg.LowStockThreshold)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("AccessTokenTTLMinutes = %d, want 480", cfg.AccessTokenTTLMinutes)
	}
	if cfg.DatabaseURL != "" || cfg.LedgerFile != "" || cfg.RedisAddr != "" {
		t.Fatalf("persistence settings should default empty: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %s, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_FILE", "/var/lib/savn/ledger.json")
	t.Setenv("ANALYTICS_CACHE_TTL_SECONDS", "120")
	t.Setenv("LOW_STOCK_THRESHOLD", "2")
	t.Setenv("AUTH_SECRET", "  super-secret-value  ")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("Port = %s", cfg.Port)
	}
	if cfg.LedgerFile != "/var/lib/savn/ledger.json" {
		t.Fatalf("LedgerFile = %s", cfg.LedgerFile)
	}
	if cfg.AnalyticsCacheTTLSeconds != 120 {
		t.Fatalf("AnalyticsCacheTTLSeconds = %d", cfg.AnalyticsCacheTTLSeconds)
	}
	if cfg.LowStockThreshold != 2 {
		t.Fatalf("LowStockThreshold = %d", cfg.LowStockThreshold)
	}
	if cfg.AuthSecret != "super-secret-value" {
		t.Fatalf("AuthSecret not trimmed: %q", cfg.AuthSecret)
	}
}

func TestLoadRejectsGarbageNumbers(t *testing.T) {
	t.Setenv("ANALYTICS_CACHE_TTL_SECONDS", "not-a-number")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")

	cfg := Load()

	if cfg.AnalyticsCacheTTLSeconds != 30 {
		t.Fatalf("AnalyticsCacheTTLSeconds = %d, want fallback 30", cfg.AnalyticsCacheTTLSeconds)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("AccessTokenTTLMinutes = %d, want fallback 480", cfg.AccessTokenTTLMinutes)
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "")
	t.Setenv("CATALOG_CACHE_TTL", "")
	t.Setenv("NATS_READINGS_SUBJECT", "")
	t.Setenv("INTAKE_CONCURRENCY", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")

	cfg := Load()
	if cfg.CatalogBackend != CatalogBackendPostgres {
		t.Fatalf("expected default backend postgres, got %q", cfg.CatalogBackend)
	}
	if cfg.CatalogCacheTTL != 10*time.Minute {
		t.Fatalf("expected default cache ttl 10m, got %v", cfg.CatalogCacheTTL)
	}
	if cfg.NATSReadingsSubject != "intake.readings" {
		t.Fatalf("expected default readings subject, got %q", cfg.NATSReadingsSubject)
	}
	if cfg.IntakeConcurrency != 4 {
		t.Fatalf("expected default intake concurrency 4, got %d", cfg.IntakeConcurrency)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected rate limit disabled by default, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "memory")
	t.Setenv("CATALOG_CACHE_TTL", "90s")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	if cfg.CatalogBackend != CatalogBackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.CatalogBackend)
	}
	if cfg.CatalogCacheTTL != 90*time.Second {
		t.Fatalf("expected cache ttl 90s, got %v", cfg.CatalogCacheTTL)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("expected redis db 3, got %d", cfg.RedisDB)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("CATALOG_CACHE_TTL", "ten minutes")
	t.Setenv("INTAKE_CONCURRENCY", "many")
	t.Setenv("RESILIENCE_BREAKER_FAILURE_RATIO", "half")

	cfg := Load()
	if cfg.CatalogCacheTTL != 10*time.Minute {
		t.Fatalf("expected fallback ttl, got %v", cfg.CatalogCacheTTL)
	}
	if cfg.IntakeConcurrency != 4 {
		t.Fatalf("expected fallback concurrency, got %d", cfg.IntakeConcurrency)
	}
	if cfg.BreakerFailureRatio != 0 {
		t.Fatalf("expected unset ratio so the adapter preset applies, got %v", cfg.BreakerFailureRatio)
	}
}

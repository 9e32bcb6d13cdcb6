package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
http:
  cors_origins: ["https://app.example"]
postgres:
  auto_migrate: true
engine:
  likes_per_minute: 99
  snippet_runes: 40
  directory_cache_ttl: 90s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Engine.LikesPerMinute != 99 {
		t.Fatalf("unexpected likes/minute: %d", cfg.Engine.LikesPerMinute)
	}
	if cfg.Engine.SnippetRunes != 40 {
		t.Fatalf("unexpected snippet runes: %d", cfg.Engine.SnippetRunes)
	}
	if cfg.Engine.DirectoryCacheTTL != 90*time.Second {
		t.Fatalf("unexpected directory cache ttl: %s", cfg.Engine.DirectoryCacheTTL)
	}
	if !cfg.Postgres.AutoMigrate {
		t.Fatalf("postgres.auto_migrate override was not applied")
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "https://app.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.HTTP.CORSOrigins)
	}

	if cfg.Engine.LikesPer10Sec != 12 {
		t.Fatalf("likes_per_10sec default should stay 12, got %d", cfg.Engine.LikesPer10Sec)
	}
	if cfg.Engine.MaxMessageRunes != 2000 {
		t.Fatalf("max_message_runes default should stay 2000, got %d", cfg.Engine.MaxMessageRunes)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("http.addr default should stay :8080, got %s", cfg.HTTP.Addr)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Env != "dev" || cfg.IsProduction() {
		t.Fatalf("unexpected env default: %s", cfg.Env)
	}
	if cfg.Engine.DiscoverLimit != 20 || cfg.Engine.NotificationsLimit != 50 || cfg.Engine.MessagesLimit != 100 {
		t.Fatalf("unexpected limit defaults: %+v", cfg.Engine)
	}
	if cfg.Postgres.AutoMigrate {
		t.Fatalf("auto_migrate must default to false")
	}
	if cfg.Engine.NotificationRetention != 0 || cfg.Engine.CleanupInterval != 6*time.Hour {
		t.Fatalf("notification cleanup should default to disabled, got %+v", cfg.Engine)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ENGINE_MESSAGES_PER_MINUTE", "7")
	t.Setenv("POSTGRES_AUTO_MIGRATE", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ENGINE_NOTIFICATION_RETENTION", "720h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Engine.MessagesPerMinute != 7 || !cfg.Postgres.AutoMigrate || cfg.Redis.DB != 3 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Engine.NotificationRetention != 30*24*time.Hour {
		t.Fatalf("unexpected notification retention: %s", cfg.Engine.NotificationRetention)
	}
}

func TestLoadRejectsBadEnvValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("ENGINE_DIRECTORY_CACHE_TTL", "soon")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unparsable duration")
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error when auth.jwt_secret is the default in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := Load(""); err != nil {
		t.Fatalf("load production config with secret: %v", err)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"HTTP_CORS_ORIGINS",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"POSTGRES_AUTO_MIGRATE",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"JWT_ISSUER",
		"JWT_AUDIENCE",
		"ENGINE_LIKES_PER_MINUTE",
		"ENGINE_LIKES_PER_10SEC",
		"ENGINE_MESSAGES_PER_MINUTE",
		"ENGINE_MESSAGE_BURST",
		"ENGINE_MAX_MESSAGE_RUNES",
		"ENGINE_DIRECTORY_CACHE_TTL",
		"ENGINE_NOTIFICATION_RETENTION",
		"ENGINE_CLEANUP_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

package config

import (
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "CORS_ALLOWED_ORIGINS", "DATA_DIR",
		"ADMIN_SESSION_SECRET", "SESSION_TTL_HOURS",
		"LOGIN_RATE_LIMIT", "LOGIN_RATE_WINDOW_MS",
		"SUBMIT_RATE_LIMIT", "SUBMIT_RATE_WINDOW_MS",
		"QUEUE_REDIS_URL", "BACKUP_DIR", "BACKUP_CRON", "BACKUP_KEEP",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.GinMode != "debug" {
		t.Fatalf("GinMode = %q, want debug", cfg.GinMode)
	}
	if cfg.SessionTTLHours != 8 {
		t.Fatalf("SessionTTLHours = %d, want 8", cfg.SessionTTLHours)
	}
	if cfg.LoginRateLimit != 5 {
		t.Fatalf("LoginRateLimit = %d, want 5", cfg.LoginRateLimit)
	}
	if cfg.LoginRateWindowMs != 15*60*1000 {
		t.Fatalf("LoginRateWindowMs = %d, want 900000", cfg.LoginRateWindowMs)
	}
	if cfg.SubmitRateLimit != 10 {
		t.Fatalf("SubmitRateLimit = %d, want 10", cfg.SubmitRateLimit)
	}
	if cfg.BackupKeep != 14 {
		t.Fatalf("BackupKeep = %d, want 14", cfg.BackupKeep)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("LOGIN_RATE_LIMIT", "3")
	t.Setenv("LOGIN_RATE_WINDOW_MS", "30000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.SessionTTLHours != 2 {
		t.Fatalf("SessionTTLHours = %d, want 2", cfg.SessionTTLHours)
	}
	if cfg.LoginRateLimit != 3 || cfg.LoginRateWindowMs != 30000 {
		t.Fatalf("rate limit = %d/%dms", cfg.LoginRateLimit, cfg.LoginRateWindowMs)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL_HOURS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SessionTTLHours != 8 {
		t.Fatalf("SessionTTLHours = %d, want default 8", cfg.SessionTTLHours)
	}
}

func TestValidateReleaseMode(t *testing.T) {
	cfg := &Config{
		GinMode:         "release",
		SessionTTLHours: 8,
		LoginRateLimit:  5,
		QueueRedisURL:   "redis://127.0.0.1:6379/0",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("release mode without ADMIN_SESSION_SECRET must fail validation")
	}

	cfg.SessionSecret = "super-secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	cfg.QueueRedisURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("release mode without QUEUE_REDIS_URL must fail validation")
	}
}

func TestValidateRejectsNonPositiveValues(t *testing.T) {
	cfg := &Config{GinMode: "debug", SessionTTLHours: 0, LoginRateLimit: 5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero SESSION_TTL_HOURS must fail validation")
	}

	cfg = &Config{GinMode: "debug", SessionTTLHours: 8, LoginRateLimit: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero LOGIN_RATE_LIMIT must fail validation")
	}
}

func TestResolvedBackupDir(t *testing.T) {
	cfg := &Config{DataDir: "data"}
	if got := cfg.ResolvedBackupDir(); got != filepath.Join("data", "backups") {
		t.Fatalf("ResolvedBackupDir = %q", got)
	}

	cfg.BackupDir = "/var/backups/order-desk"
	if got := cfg.ResolvedBackupDir(); got != "/var/backups/order-desk" {
		t.Fatalf("ResolvedBackupDir = %q", got)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "data"}
	if got := cfg.DatabasePath(); got != filepath.Join("data", "app.db") {
		t.Fatalf("DatabasePath = %q", got)
	}
}

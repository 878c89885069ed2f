package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("server port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host = %q, want localhost", cfg.Database.Host)
	}
	if cfg.Database.DBName != "receiptwise" {
		t.Errorf("db name = %q, want receiptwise", cfg.Database.DBName)
	}
	if cfg.JWT.Expiration != 24*time.Hour {
		t.Errorf("jwt expiration = %v, want 24h", cfg.JWT.Expiration)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("gemini model = %q, want gemini-2.5-flash", cfg.Gemini.Model)
	}
	if cfg.Upload.MaxSizeBytes != 5242880 {
		t.Errorf("max upload = %d, want 5242880", cfg.Upload.MaxSizeBytes)
	}
	if cfg.Upload.Dir != "uploads" {
		t.Errorf("upload dir = %q, want uploads", cfg.Upload.Dir)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logger.Level)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_TIMEOUT_SECONDS", "30")
	t.Setenv("UPLOAD_MAX_SIZE_BYTES", "1048576")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("server port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("db host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Errorf("gemini api key = %q, want test-key", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Timeout != 30*time.Second {
		t.Errorf("gemini timeout = %v, want 30s", cfg.Gemini.Timeout)
	}
	if cfg.Upload.MaxSizeBytes != 1048576 {
		t.Errorf("max upload = %d, want 1048576", cfg.Upload.MaxSizeBytes)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logger.Level)
	}
}

func TestLoadInvalidUploadSizeFallsBack(t *testing.T) {
	t.Setenv("UPLOAD_MAX_SIZE_BYTES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Upload.MaxSizeBytes != 5<<20 {
		t.Errorf("max upload = %d, want fallback %d", cfg.Upload.MaxSizeBytes, 5<<20)
	}
}

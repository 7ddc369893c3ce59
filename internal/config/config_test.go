package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ROSTER_API_KEY", "PATHSTORE_URL", "WORKER_COUNT", "MAX_UPLOAD_BYTES", "JOB_TTL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("expected 10MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %s", cfg.JobTTL)
	}
	if cfg.PublishEnabled() {
		t.Error("expected publishing disabled without PATHSTORE_URL")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("JOB_TTL", "30m")
	t.Setenv("ROSTER_SHEET", "Rooms")

	cfg := Load()

	if cfg.WorkerCount != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxUploadBytes != 2048 {
		t.Errorf("expected 2048, got %d", cfg.MaxUploadBytes)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("expected 30m, got %s", cfg.JobTTL)
	}
	if cfg.SheetName != "Rooms" {
		t.Errorf("expected sheet Rooms, got %q", cfg.SheetName)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("MAX_QUEUE_SIZE", "lots")

	cfg := Load()

	if cfg.WorkerCount != 4 {
		t.Errorf("expected fallback of 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("expected fallback queue size 100, got %d", cfg.MaxQueueSize)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected error without API key")
	}
	if err := (Config{APIKey: "k", PathstoreURL: "http://ps"}).Validate(); err == nil {
		t.Error("expected error when pathstore key is missing")
	}
	if err := (Config{APIKey: "k"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

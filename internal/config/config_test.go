package config

import (
	"log/slog"
	"testing"

	"github.com/Shivanand-hulikatti/event-checkin/internal/database"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Database.Driver != database.DriverPostgres {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %d, want 587", cfg.SMTP.Port)
	}
	if cfg.SMTP.Configured() {
		t.Error("SMTP should not be configured by default")
	}
	if cfg.Level != slog.LevelInfo {
		t.Errorf("Level = %v, want INFO", cfg.Level)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "3001")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != "3001" || cfg.Database.Driver != "sqlite" || cfg.Database.SQLitePath != "/tmp/x.db" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Level != slog.LevelDebug {
		t.Errorf("Level = %v, want DEBUG", cfg.Level)
	}
	if !cfg.SMTP.Configured() {
		t.Error("SMTP should be configured")
	}
	if cfg.SMTP.Sender() != "bot@example.com" {
		t.Errorf("Sender = %q, want login user", cfg.SMTP.Sender())
	}
}

func TestParseRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := Parse(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	if err != nil || lvl != slog.LevelWarn {
		t.Errorf("ParseLevel(warn) = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

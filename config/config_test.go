package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "APP_PORT=9090\nJWT_SECRET=from-file\nJWT_ACCESS_EXPIRY=30m\nNOTIFY_KAFKA_BROKERS=kafka-1:9092, kafka-2:9092\nDB_DRIVER=SQLite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.App.Port)
	}
	if cfg.JWT.Secret != "from-file" {
		t.Errorf("secret = %q", cfg.JWT.Secret)
	}
	if cfg.JWT.AccessExpiry != 30*time.Minute {
		t.Errorf("access expiry = %v", cfg.JWT.AccessExpiry)
	}
	if cfg.JWT.RefreshExpiry != 7*24*time.Hour {
		t.Errorf("refresh expiry default = %v", cfg.JWT.RefreshExpiry)
	}
	if cfg.DB.Driver != DBDriverSQLite {
		t.Errorf("driver = %q", cfg.DB.Driver)
	}
	if len(cfg.Notification.KafkaBrokers) != 2 || cfg.Notification.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("brokers = %v", cfg.Notification.KafkaBrokers)
	}
	if cfg.Notification.Driver != NotifyDriverLog {
		t.Errorf("notify driver default = %q", cfg.Notification.Driver)
	}
}

func TestLoadWithoutEnvFileUsesEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("APP_TIMEZONE", "America/Argentina/Buenos_Aires")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("secret = %q", cfg.JWT.Secret)
	}
	if cfg.App.Port != "8080" {
		t.Errorf("default port = %q", cfg.App.Port)
	}
	if got := cfg.App.Location().String(); got != "America/Argentina/Buenos_Aires" {
		t.Errorf("location = %q", got)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestUnknownTimezoneFallsBackToUTC(t *testing.T) {
	app := AppConfig{Timezone: "Mars/Olympus_Mons"}
	if app.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", app.Location())
	}
}

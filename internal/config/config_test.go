package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"discipline-bot/internal/config"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv(t *testing.T) {
	t.Run("missing token is a config error", func(t *testing.T) {
		_, err := config.FromEnv(envFrom(map[string]string{"DB_PATH": "x.db"}))

		var cfgErr *config.Error
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected *config.Error, got %v", err)
		}
		if cfgErr.Var != "BOT_TOKEN" {
			t.Errorf("expected BOT_TOKEN, got %s", cfgErr.Var)
		}
	})

	t.Run("whitespace token counts as missing", func(t *testing.T) {
		_, err := config.FromEnv(envFrom(map[string]string{"BOT_TOKEN": "   "}))
		if err == nil {
			t.Fatal("expected error for blank token")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.FromEnv(envFrom(map[string]string{"BOT_TOKEN": "123:abc"}))
		if err != nil {
			t.Fatalf("FromEnv returned an error: %v", err)
		}
		if cfg.DBPath != "data/discipline_bot.sqlite3" {
			t.Errorf("unexpected DBPath %q", cfg.DBPath)
		}
		if cfg.Timezone != "Europe/Moscow" || cfg.Location == nil {
			t.Errorf("unexpected timezone %q (%v)", cfg.Timezone, cfg.Location)
		}
		if cfg.LogLevel != "INFO" {
			t.Errorf("unexpected LogLevel %q", cfg.LogLevel)
		}
		if cfg.MetricsAddr != "" {
			t.Errorf("metrics should be disabled by default, got %q", cfg.MetricsAddr)
		}
	})

	t.Run("overrides and admin ids", func(t *testing.T) {
		cfg, err := config.FromEnv(envFrom(map[string]string{
			"BOT_TOKEN": "123:abc",
			"DB_PATH":   "/var/lib/bot/db.sqlite3",
			"TIMEZONE":  "UTC",
			"LOG_LEVEL": "debug",
			"ADMIN_IDS": "10, 20,,30",
			"BOT_DEBUG": "true",
		}))
		if err != nil {
			t.Fatalf("FromEnv returned an error: %v", err)
		}
		if cfg.LogLevel != "DEBUG" {
			t.Errorf("expected DEBUG, got %q", cfg.LogLevel)
		}
		if len(cfg.AdminIDs) != 3 || !cfg.IsAdmin(20) || cfg.IsAdmin(40) {
			t.Errorf("unexpected admin ids %v", cfg.AdminIDs)
		}
		if !cfg.Debug {
			t.Error("expected Debug to be enabled")
		}
		if cfg.Location.String() != "UTC" {
			t.Errorf("unexpected location %s", cfg.Location)
		}
	})

	invalid := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown timezone", "TIMEZONE", "Mars/Olympus"},
		{"unknown log level", "LOG_LEVEL", "LOUD"},
		{"bad admin id", "ADMIN_IDS", "1,two"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"bad debug flag", "BOT_DEBUG", "maybe"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.FromEnv(envFrom(map[string]string{"BOT_TOKEN": "t", tc.key: tc.val}))
			var cfgErr *config.Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *config.Error, got %v", err)
			}
			if cfgErr.Var != tc.key {
				t.Errorf("expected error for %s, got %s", tc.key, cfgErr.Var)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := "BOT_TOKEN=from-file\nDB_PATH=file.sqlite3\nLOG_LEVEL=ERROR\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for _, key := range []string{"BOT_TOKEN", "DB_PATH"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	for _, key := range []string{"TIMEZONE", "LOG_FORMAT", "ADMIN_IDS", "METRICS_ADDR", "BOT_DEBUG"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "from-file" || cfg.DBPath != "file.sqlite3" {
		t.Errorf(".env values not applied: %+v", cfg)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("environment should win over .env, got %q", cfg.LogLevel)
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath   = "data/discipline_bot.sqlite3"
	defaultTimezone = "Europe/Moscow"
	defaultLogLevel = "INFO"
)

// Config keeps runtime settings for the bot. It is built once by Load and
// passed by value to the components that need it.
type Config struct {
	BotToken    string
	DBPath      string
	Timezone    string
	Location    *time.Location
	LogLevel    string
	LogFormat   string
	AdminIDs    []int64
	MetricsAddr string
	Debug       bool
}

// Error reports an invalid or missing environment variable.
type Error struct {
	Var    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Var, e.Reason)
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		BotToken:    get("BOT_TOKEN", ""),
		DBPath:      get("DB_PATH", defaultDBPath),
		Timezone:    get("TIMEZONE", defaultTimezone),
		LogLevel:    strings.ToUpper(get("LOG_LEVEL", defaultLogLevel)),
		LogFormat:   strings.ToLower(get("LOG_FORMAT", "console")),
		MetricsAddr: get("METRICS_ADDR", ""),
	}

	if cfg.BotToken == "" {
		return cfg, &Error{Var: "BOT_TOKEN", Reason: "is required"}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, &Error{Var: "TIMEZONE", Reason: fmt.Sprintf("unknown timezone %q", cfg.Timezone)}
	}
	cfg.Location = loc

	if !validLogLevel(cfg.LogLevel) {
		return cfg, &Error{Var: "LOG_LEVEL", Reason: fmt.Sprintf("unsupported level %q", cfg.LogLevel)}
	}

	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return cfg, &Error{Var: "LOG_FORMAT", Reason: fmt.Sprintf("expected console or json, got %q", cfg.LogFormat)}
	}

	ids, err := parseAdminIDs(get("ADMIN_IDS", ""))
	if err != nil {
		return cfg, &Error{Var: "ADMIN_IDS", Reason: err.Error()}
	}
	cfg.AdminIDs = ids

	if raw := get("BOT_DEBUG", ""); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, &Error{Var: "BOT_DEBUG", Reason: fmt.Sprintf("expected bool, got %q", raw)}
		}
		cfg.Debug = debug
	}

	return cfg, nil
}

// IsAdmin reports whether the Telegram user id is listed in ADMIN_IDS.
func (c Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func validLogLevel(level string) bool {
	switch level {
	case "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "CRITICAL", "FATAL":
		return true
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

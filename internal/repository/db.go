package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"discipline-bot/internal/model"
)

// sqliteParams makes every committed transaction durable and lets writers
// wait on the file lock instead of failing immediately.
const sqliteParams = "_busy_timeout=5000&_journal_mode=WAL&_synchronous=FULL&_foreign_keys=on"

// NewDB opens the SQLite file at path and runs migrations.
func NewDB(path string, log *zerolog.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, wrap("open db", fmt.Errorf("empty database path"))
	}

	if err := ensureDirForSQLite(path); err != nil {
		return nil, wrap("open db", err)
	}

	dbLogger := logger.New(
		gormWriter{log: log},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:  dbLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, wrap("open db", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.WeightEntry{}, &model.DisciplineEntry{}, &model.ScheduleSlot{}, &model.CalorieEntry{}); err != nil {
		return nil, wrap("migrate db", err)
	}

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return wrap("close db", err)
	}
	return wrap("close db", sqlDB.Close())
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(path string) error {
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(path, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// gormWriter sends gorm's slow query and error lines to zerolog.
type gormWriter struct {
	log *zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	if w.log == nil {
		return
	}
	w.log.Warn().Str("component", "gorm").Msgf(format, args...)
}

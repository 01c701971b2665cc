package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Erio-Harrison/nem-price-bot/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a single SQLite connection shared by the scheduler loops and the
// command handlers. WAL lets readers and the writer coexist; the mutex keeps
// the writer single.
type DB struct {
	mu  sync.Mutex
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS users (
				chat_id    INTEGER PRIMARY KEY,
				region     TEXT NOT NULL,
				high_alert REAL NOT NULL DEFAULT 150,
				low_alert  REAL NOT NULL DEFAULT 0,
				is_active  INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS price_history (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				region        TEXT NOT NULL,
				price_mwh     REAL NOT NULL,
				interval_time TEXT NOT NULL,
				fetched_at    TEXT NOT NULL,
				UNIQUE(region, interval_time)
			);
			CREATE INDEX IF NOT EXISTS idx_price_region_time ON price_history(region, interval_time DESC);
			CREATE INDEX IF NOT EXISTS idx_price_fetched ON price_history(fetched_at);

			CREATE TABLE IF NOT EXISTS forecast (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				region        TEXT NOT NULL,
				forecast_time TEXT NOT NULL,
				price_mwh     REAL NOT NULL,
				published_at  TEXT NOT NULL,
				fetched_at    TEXT NOT NULL,
				UNIQUE(region, forecast_time, published_at)
			);
			CREATE INDEX IF NOT EXISTS idx_forecast_lookup ON forecast(region, forecast_time);
			CREATE INDEX IF NOT EXISTS idx_forecast_fetched ON forecast(fetched_at);

			CREATE TABLE IF NOT EXISTS alert_log (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				chat_id    INTEGER NOT NULL,
				alert_type TEXT NOT NULL,
				price_mwh  REAL NOT NULL,
				region     TEXT NOT NULL,
				sent_at    TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_alert_user ON alert_log(chat_id, alert_type, sent_at);
			CREATE INDEX IF NOT EXISTS idx_alert_sent ON alert_log(sent_at);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	return nil
}

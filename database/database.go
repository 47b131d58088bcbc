package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mager/harmonyhub/config"
)

// Both drivers accept $N placeholders and ON CONFLICT upserts, so the
// statements below are shared.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS http_cache (
		url TEXT PRIMARY KEY,
		status INTEGER NOT NULL,
		content_type TEXT NOT NULL,
		body TEXT NOT NULL,
		expires_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS oauth_tokens (
		id TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		token_type TEXT NOT NULL,
		expiry BIGINT NOT NULL
	)`,
}

// Open connects to driver ("sqlite3" or "postgres") and creates the tables.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: migration %d: %w", i, err)
		}
	}
	return nil
}

// ProvideDatabase provides the sql database backing the response cache and
// the token store.
func ProvideDatabase(lc fx.Lifecycle, logger *zap.SugaredLogger, cfg config.Config) (*sql.DB, error) {
	db, err := Open(context.Background(), cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Errorw("Failed to open database", "driver", cfg.DatabaseDriver, "error", err)
		return nil, err
	}
	logger.Infow("Database ready", "driver", cfg.DatabaseDriver)

	lc.Append(fx.StopHook(db.Close))
	return db, nil
}

var Options = ProvideDatabase

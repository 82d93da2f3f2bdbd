package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/deutschhelfer/config"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps the sql.DB connection pool together with its dialect
type DB struct {
	*sql.DB
	driver string
	logger *zap.Logger
}

// Open creates the connection pool for the configured driver and verifies it
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := cfg.URL
	switch cfg.Driver {
	case config.DriverSQLite:
		var err error
		if dsn, err = prepareSQLite(dsn); err != nil {
			return nil, err
		}
	case config.DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return New(sqlDB, cfg.Driver, logger), nil
}

// New wraps an existing pool
func New(db *sql.DB, driver string, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{
		DB:     db,
		driver: driver,
		logger: logger,
	}
}

// Driver returns the dialect name
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS history (
		id VARCHAR(36) PRIMARY KEY,
		provider VARCHAR(32) NOT NULL,
		prompt TEXT NOT NULL,
		image_ref TEXT NOT NULL DEFAULT '',
		response TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at)`,
	`CREATE TABLE IF NOT EXISTS credentials (
		provider VARCHAR(32) PRIMARY KEY,
		secret TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		name VARCHAR(64) PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// InitSchema creates the tables if they do not exist. The DDL is shared by
// both dialects.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}

// rebind rewrites ? placeholders to $N for postgres
func (db *DB) rebind(query string) string {
	if db.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// prepareSQLite creates the parent directory of a file database and adds
// default connection options when the DSN carries none. _time_format is
// always set since history ordering compares stored timestamps.
func prepareSQLite(dsn string) (string, error) {
	path, query, hasQuery := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == ":memory:" || path == "" {
		return dsn, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	if !hasQuery {
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite", path), nil
	}
	if strings.Contains(query, "_time_format=") {
		return dsn, nil
	}
	if query == "" {
		return dsn + "_time_format=sqlite", nil
	}
	return dsn + "&_time_format=sqlite", nil
}

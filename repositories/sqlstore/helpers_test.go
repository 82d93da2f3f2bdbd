package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/upb/deutschhelfer/config"
	"go.uber.org/zap"
)

// newMockDB returns a postgres-dialect DB backed by sqlmock
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return New(sqlDB, config.DriverPostgres, zap.NewNop()), mock
}

// newSQLiteDB opens a fresh file database with the schema applied
func newSQLiteDB(t *testing.T) *DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:          config.DriverSQLite,
		URL:             "file:" + filepath.Join(t.TempDir(), "nested", "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
	db, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.InitSchema(context.Background()))
	return db
}

package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/deutschhelfer/models"
	"go.uber.org/zap"
)

func TestSettingsRepository_GetAppliesStoredValues(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db, NewTransactionManager(db, zap.NewNop()), zap.NewNop())
	updated := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT name, value, updated_at FROM settings").
		WillReturnRows(sqlmock.NewRows([]string{"name", "value", "updated_at"}).
			AddRow(models.SettingDefaultProvider, "perplexity", updated).
			AddRow("obsolete", "x", updated))

	got, err := repo.Get(context.Background(), models.NewSettings("openai", "tr"))
	require.NoError(t, err)
	assert.Equal(t, "perplexity", got.DefaultProvider)
	assert.Equal(t, "tr", got.Locale)
	assert.Equal(t, updated, got.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_SaveInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db, NewTransactionManager(db, zap.NewNop()), zap.NewNop())
	upsert := regexp.QuoteMeta("INSERT INTO settings (name, value, updated_at) VALUES ($1, $2, $3)")

	mock.ExpectBegin()
	mock.ExpectExec(upsert).WithArgs(models.SettingDefaultProvider, "anthropic", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsert).WithArgs(models.SettingLocale, "de", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := models.NewSettings("anthropic", "de")
	require.NoError(t, repo.Save(context.Background(), s))
	assert.False(t, s.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_SaveRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsRepository(db, NewTransactionManager(db, zap.NewNop()), zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO settings").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), models.NewSettings("openai", "en"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save setting locale")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewSettingsRepository(db, NewTransactionManager(db, zap.NewNop()), zap.NewNop())
	defaults := models.NewSettings("openai", "tr")

	got, err := repo.Get(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, "openai", got.DefaultProvider)
	assert.True(t, got.UpdatedAt.IsZero())

	require.NoError(t, repo.Save(ctx, models.NewSettings("anthropic", "")))
	require.NoError(t, repo.Save(ctx, models.NewSettings("anthropic", "de")))

	got, err = repo.Get(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", got.DefaultProvider)
	assert.Equal(t, "de", got.Locale)
	assert.False(t, got.UpdatedAt.IsZero())

	// defaults are not mutated
	assert.Equal(t, "openai", defaults.DefaultProvider)
}

package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/deutschhelfer/repositories"
	"go.uber.org/zap"
)

func TestCredentialRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCredentialRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT secret FROM credentials WHERE provider = $1")).
		WithArgs("openai").
		WillReturnRows(sqlmock.NewRows([]string{"secret"}).AddRow("sk-stored"))

	secret, found, err := repo.Get(context.Background(), "openai")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sk-stored", secret)

	mock.ExpectQuery("SELECT secret FROM credentials").
		WithArgs("anthropic").
		WillReturnRows(sqlmock.NewRows([]string{"secret"}))

	secret, found, err = repo.Get(context.Background(), "anthropic")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, secret)

	mock.ExpectQuery("SELECT secret FROM credentials").WillReturnError(errors.New("conn closed"))
	_, _, err = repo.Get(context.Background(), "perplexity")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_SetUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCredentialRepository(db, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (provider) DO UPDATE SET secret = EXCLUDED.secret")).
		WithArgs("openai", "sk-new", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Set(context.Background(), "openai", "sk-new"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository(newSQLiteDB(t), zap.NewNop())

	require.NoError(t, repo.Set(ctx, "anthropic", "ak-1"))
	require.NoError(t, repo.Set(ctx, "anthropic", "ak-2"))

	secret, found, err := repo.Get(ctx, "anthropic")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ak-2", secret)

	require.NoError(t, repo.Delete(ctx, "anthropic"))
	_, found, err = repo.Get(ctx, "anthropic")
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, repo.Delete(ctx, "anthropic"), repositories.ErrNotFound)
}

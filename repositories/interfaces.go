package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/deutschhelfer/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// TransactionManager manages database transactions
type TransactionManager interface {
	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// HistoryRepository handles question/answer history
type HistoryRepository interface {
	// Save inserts a new record
	Save(ctx context.Context, rec *models.HistoryRecord) error

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.HistoryRecord, error)

	// List returns records newest first
	List(ctx context.Context, limit, offset int) ([]*models.HistoryRecord, error)

	// Delete removes one record
	Delete(ctx context.Context, id uuid.UUID) error

	// Clear removes every record and returns how many were deleted
	Clear(ctx context.Context) (int64, error)

	// ImageRefs returns the non-empty image references of all records
	ImageRefs(ctx context.Context) ([]string, error)
}

// CredentialRepository stores provider API keys
type CredentialRepository interface {
	// Get returns the stored credential; found is false when none is stored
	Get(ctx context.Context, provider string) (secret string, found bool, err error)

	// Set inserts or replaces the credential
	Set(ctx context.Context, provider, secret string) error

	// Delete removes the credential
	Delete(ctx context.Context, provider string) error
}

// SettingsRepository stores user preferences
type SettingsRepository interface {
	// Get loads settings; fields never stored keep the values in defaults
	Get(ctx context.Context, defaults *models.Settings) (*models.Settings, error)

	// Save upserts every setting in one transaction
	Save(ctx context.Context, settings *models.Settings) error
}

// Repositories holds all repository instances
type Repositories struct {
	History     HistoryRepository
	Credentials CredentialRepository
	Settings    SettingsRepository
}

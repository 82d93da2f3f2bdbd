package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/upb/deutschhelfer/repositories"
	"go.uber.org/zap"
)

// CredentialRepository implements repositories.CredentialRepository
type CredentialRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *DB, logger *zap.Logger) repositories.CredentialRepository {
	return &CredentialRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the stored secret for provider
func (r *CredentialRepository) Get(ctx context.Context, provider string) (string, bool, error) {
	query := r.db.rebind(`SELECT secret FROM credentials WHERE provider = ?`)

	var secret string
	err := executor(ctx, r.db).QueryRowContext(ctx, query, provider).Scan(&secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get credential: %w", err)
	}
	return secret, true, nil
}

// Set inserts or replaces the secret for provider
func (r *CredentialRepository) Set(ctx context.Context, provider, secret string) error {
	query := r.db.rebind(`
		INSERT INTO credentials (provider, secret, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (provider) DO UPDATE SET secret = EXCLUDED.secret, updated_at = EXCLUDED.updated_at
	`)

	if _, err := executor(ctx, r.db).ExecContext(ctx, query, provider, secret, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	// never log the secret itself
	r.logger.Info("credential stored", zap.String("provider", provider))
	return nil
}

// Delete removes the secret for provider
func (r *CredentialRepository) Delete(ctx context.Context, provider string) error {
	query := r.db.rebind(`DELETE FROM credentials WHERE provider = ?`)

	result, err := executor(ctx, r.db).ExecContext(ctx, query, provider)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credential for %s: %w", provider, repositories.ErrNotFound)
	}

	r.logger.Info("credential deleted", zap.String("provider", provider))
	return nil
}

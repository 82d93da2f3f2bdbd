package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/deutschhelfer/models"
	"github.com/upb/deutschhelfer/repositories"
	"go.uber.org/zap"
)

// List bounds
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 500
)

// HistoryRepository implements repositories.HistoryRepository
type HistoryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB, logger *zap.Logger) repositories.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts a new record
func (r *HistoryRepository) Save(ctx context.Context, rec *models.HistoryRecord) error {
	query := r.db.rebind(`
		INSERT INTO history (id, provider, prompt, image_ref, response, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		rec.ID.String(),
		rec.Provider,
		rec.Prompt,
		rec.ImageRef,
		rec.Response,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}

	r.logger.Debug("history record saved", zap.String("id", rec.ID.String()), zap.String("provider", rec.Provider))
	return nil
}

// GetByID retrieves a record by ID
func (r *HistoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.HistoryRecord, error) {
	query := r.db.rebind(`
		SELECT id, provider, prompt, image_ref, response, created_at
		FROM history
		WHERE id = ?
	`)

	rec, err := scanHistory(executor(ctx, r.db).QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("history record %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return rec, nil
}

// List returns records newest first
func (r *HistoryRepository) List(ctx context.Context, limit, offset int) ([]*models.HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.rebind(`
		SELECT id, provider, prompt, image_ref, response, created_at
		FROM history
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`)

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	records := make([]*models.HistoryRecord, 0, limit)
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return records, nil
}

// Delete removes one record
func (r *HistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.db.rebind(`DELETE FROM history WHERE id = ?`)

	result, err := executor(ctx, r.db).ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete history record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("history record %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("history record deleted", zap.String("id", id.String()))
	return nil
}

// Clear removes every record
func (r *HistoryRepository) Clear(ctx context.Context) (int64, error) {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Info("history cleared", zap.Int64("deleted", n))
	return n, nil
}

// ImageRefs returns the image references still pointed at by history
func (r *HistoryRepository) ImageRefs(ctx context.Context) ([]string, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, `SELECT image_ref FROM history WHERE image_ref <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to list image refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan image ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate image refs: %w", err)
	}
	return refs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (*models.HistoryRecord, error) {
	var (
		rec models.HistoryRecord
		id  string
	)
	if err := row.Scan(&id, &rec.Provider, &rec.Prompt, &rec.ImageRef, &rec.Response, &rec.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid history id %q: %w", id, err)
	}
	rec.ID = parsed
	return &rec, nil
}

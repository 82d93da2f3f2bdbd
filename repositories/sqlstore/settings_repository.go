package sqlstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/upb/deutschhelfer/models"
	"github.com/upb/deutschhelfer/repositories"
	"go.uber.org/zap"
)

// SettingsRepository implements repositories.SettingsRepository
type SettingsRepository struct {
	db     *DB
	tx     repositories.TransactionManager
	logger *zap.Logger
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB, tx repositories.TransactionManager, logger *zap.Logger) repositories.SettingsRepository {
	return &SettingsRepository{
		db:     db,
		tx:     tx,
		logger: logger,
	}
}

// Get loads stored settings on top of defaults
func (r *SettingsRepository) Get(ctx context.Context, defaults *models.Settings) (*models.Settings, error) {
	settings := &models.Settings{}
	if defaults != nil {
		*settings = *defaults
	}

	rows, err := executor(ctx, r.db).QueryContext(ctx, `SELECT name, value, updated_at FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, value string
			updatedAt   time.Time
		)
		if err := rows.Scan(&name, &value, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings.Apply(name, value)
		if updatedAt.After(settings.UpdatedAt) {
			settings.UpdatedAt = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return settings, nil
}

// Save upserts every non-empty setting in one transaction
func (r *SettingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	query := r.db.rebind(`
		INSERT INTO settings (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`)

	values := settings.Values()
	names := make([]string, 0, len(values))
	for name, value := range values {
		if value != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	now := time.Now().UTC()
	err := r.tx.InTransaction(ctx, func(ctx context.Context) error {
		for _, name := range names {
			if _, err := executor(ctx, r.db).ExecContext(ctx, query, name, values[name], now); err != nil {
				return fmt.Errorf("failed to save setting %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	settings.UpdatedAt = now
	r.logger.Debug("settings saved", zap.Strings("names", names))
	return nil
}

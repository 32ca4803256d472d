package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
)

type preferencesRepository struct {
	*DB
	logger *logger.Logger
}

// NewPreferencesRepository constructs the SQLite-backed [Preferences].
func NewPreferencesRepository(db *DB, logger *logger.Logger) Preferences {
	return &preferencesRepository{
		DB:     db,
		logger: logger,
	}
}

func (p *preferencesRepository) Get(ctx context.Context, key string) (string, error) {
	log := logger.FromContext(ctx)

	var value string
	if err := p.DB.QueryRowContext(ctx, prefsGet, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrPreferenceNotFound
		}

		log.Err(err).
			Str("func", "preferencesRepository.Get").
			Str("key", key).
			Msg("failed to query preference")
		return "", fmt.Errorf("failed to query preference (key=%s): %w", key, err)
	}

	return value, nil
}

func (p *preferencesRepository) Set(ctx context.Context, key, value string) error {
	log := logger.FromContext(ctx)

	if _, err := p.DB.ExecContext(ctx, prefsSet, key, value); err != nil {
		log.Err(err).
			Str("func", "preferencesRepository.Set").
			Str("key", key).
			Msg("failed to upsert preference")
		return fmt.Errorf("failed to set preference (key=%s): %w", key, err)
	}

	return nil
}

func (p *preferencesRepository) Delete(ctx context.Context, key string) error {
	log := logger.FromContext(ctx)

	if _, err := p.DB.ExecContext(ctx, prefsDelete, key); err != nil {
		log.Err(err).
			Str("func", "preferencesRepository.Delete").
			Str("key", key).
			Msg("failed to delete preference")
		return fmt.Errorf("failed to delete preference (key=%s): %w", key, err)
	}

	return nil
}

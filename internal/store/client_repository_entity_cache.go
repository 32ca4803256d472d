package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/models"
)

type entityCacheRepository struct {
	*DB
	logger *logger.Logger
}

// NewEntityCacheRepository constructs the SQLite-backed [EntityCache].
func NewEntityCacheRepository(db *DB, logger *logger.Logger) EntityCache {
	return &entityCacheRepository{
		DB:     db,
		logger: logger,
	}
}

func (c *entityCacheRepository) Get(ctx context.Context, id models.EntityID) (models.Entity, error) {
	log := logger.FromContext(ctx)

	row := c.DB.QueryRowContext(ctx, cacheGetEntity, id)

	entity, err := scanEntityRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entity{}, ErrEntityNotFound
		}

		log.Err(err).
			Str("func", "entityCacheRepository.Get").
			Str("id", id.String()).
			Msg("failed to query cached entity")
		return models.Entity{}, fmt.Errorf("failed to query cached entity: %w", err)
	}

	return entity, nil
}

func (c *entityCacheRepository) GetAll(ctx context.Context) ([]models.Entity, error) {
	return c.queryEntities(ctx, "entityCacheRepository.GetAll", cacheGetAllEntities)
}

func (c *entityCacheRepository) GetAllByKind(ctx context.Context, kind models.ResourceKind) ([]models.Entity, error) {
	return c.queryEntities(ctx, "entityCacheRepository.GetAllByKind", cacheGetEntitiesByKind, string(kind))
}

func (c *entityCacheRepository) GetAllByParent(ctx context.Context, parentID models.EntityID) ([]models.Entity, error) {
	return c.queryEntities(ctx, "entityCacheRepository.GetAllByParent", cacheGetEntitiesByParent, parentID)
}

func (c *entityCacheRepository) queryEntities(ctx context.Context, funcName, query string, args ...any) ([]models.Entity, error) {
	log := logger.FromContext(ctx)

	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", funcName).
			Msg("failed to execute query for cached entities")
		return nil, fmt.Errorf("failed to query cached entities: %w", err)
	}
	defer rows.Close()

	var items []models.Entity

	for rows.Next() {
		entity, scanErr := scanEntityRow(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", funcName).
				Msg("failed to scan cached entity row")
			return nil, fmt.Errorf("failed to scan cached entity row: %w", scanErr)
		}

		items = append(items, entity)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", funcName).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating cached entity rows: %w", rowsErr)
	}

	return items, nil
}

// Put upserts the entity into the cache. The version guard in
// [cacheUpsertEntity] keeps the cached version monotonic: a stale echo (a
// server snapshot older than what a later drain already stored) is dropped
// silently instead of rolling the row back.
func (c *entityCacheRepository) Put(ctx context.Context, entity models.Entity) error {
	log := logger.FromContext(ctx)

	_, err := c.DB.ExecContext(ctx, cacheUpsertEntity,
		entity.ID,
		entity.Kind,
		entity.ParentID,
		entity.Name,
		entity.Description,
		entity.Completed,
		entity.Quantity,
		entity.Position,
		entity.Color,
		entity.Icon,
		entity.Archived,
		entity.Version,
		entity.CreatedAt,
		entity.UpdatedAt,
		entity.UpdatedBy,
	)
	if err != nil {
		log.Err(err).
			Str("func", "entityCacheRepository.Put").
			Str("id", entity.ID.String()).
			Msg("failed to execute upsert for cached entity")
		return fmt.Errorf("failed to cache entity (id=%s): %w", entity.ID, err)
	}

	return nil
}

func (c *entityCacheRepository) PutMany(ctx context.Context, entities ...models.Entity) error {
	for _, entity := range entities {
		if err := c.Put(ctx, entity); err != nil {
			return err
		}
	}

	return nil
}

func (c *entityCacheRepository) Remove(ctx context.Context, id models.EntityID) error {
	log := logger.FromContext(ctx)

	_, err := c.DB.ExecContext(ctx, cacheRemoveEntity, id)
	if err != nil {
		log.Err(err).
			Str("func", "entityCacheRepository.Remove").
			Str("id", id.String()).
			Msg("failed to execute delete for cached entity")
		return fmt.Errorf("failed to remove cached entity (id=%s): %w", id, err)
	}

	return nil
}

// Rekey runs both id substitutions in one transaction so a crash cannot
// leave children pointing at a parent id that no longer exists.
func (c *entityCacheRepository) Rekey(ctx context.Context, oldID, newID models.EntityID) error {
	log := logger.FromContext(ctx)

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "entityCacheRepository.Rekey").
			Str("old_id", oldID.String()).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, cacheRekeyEntity, oldID, newID); err != nil {
		log.Err(err).
			Str("func", "entityCacheRepository.Rekey").
			Str("old_id", oldID.String()).
			Str("new_id", newID.String()).
			Msg("failed to rekey cached entity")
		return fmt.Errorf("failed to rekey cached entity: %w", err)
	}

	if _, err := tx.ExecContext(ctx, cacheRekeyChildren, oldID, newID); err != nil {
		log.Err(err).
			Str("func", "entityCacheRepository.Rekey").
			Str("old_id", oldID.String()).
			Str("new_id", newID.String()).
			Msg("failed to rekey children of cached entity")
		return fmt.Errorf("failed to rekey children: %w", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "entityCacheRepository.Rekey").
			Str("old_id", oldID.String()).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	log.Debug().
		Str("func", "entityCacheRepository.Rekey").
		Str("old_id", oldID.String()).
		Str("new_id", newID.String()).
		Msg("cached entity rekeyed")

	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/jackc/pgerrcode"
)

// entityRepository is the PostgreSQL-backed implementation of
// [EntityRepository]. It executes all list/item CRUD operations directly
// against the "entities" table using the embedded [*DB] connection, and is
// the single place where the version compare-and-swap is performed.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that all database interactions are traced with
// structured fields (user_id, entity id, provided version, etc.).
type entityRepository struct {
	*DB
	logger *logger.Logger
}

// NewEntityRepository constructs an [EntityRepository] backed by the
// provided database connection and logger.
func NewEntityRepository(db *DB, logger *logger.Logger) EntityRepository {
	return &entityRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateEntity inserts a new entity with version 1 and returns the row the
// database actually stored.
//
// Idempotent replays: when idempotencyKey is non-empty and the INSERT hits
// the unique index on (user_id, idempotency_key), the row written by the
// first attempt is fetched and returned instead of an error. A retried
// CREATE from a mutation queue therefore converges on one record.
func (r *entityRepository) CreateEntity(ctx context.Context, userID int64, entity models.Entity, idempotencyKey string) (models.Entity, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, createEntity,
		entity.ID,
		userID,
		entity.Kind,
		entity.ParentID,
		entity.Name,
		entity.Description,
		entity.Completed,
		entity.Quantity,
		entity.Position,
		entity.Color,
		entity.Icon,
		entity.UpdatedBy,
		idempotencyKey,
	)

	saved, err := scanEntityRow(row)
	if err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation && idempotencyKey != "" {
			log.Debug().
				Str("func", "entityRepository.CreateEntity").
				Int64("user_id", userID).
				Str("idempotency_key", idempotencyKey).
				Msg("duplicate idempotency key, returning previously stored entity")
			return r.getByIdempotencyKey(ctx, userID, idempotencyKey)
		}

		log.Err(err).
			Str("func", "entityRepository.CreateEntity").
			Int64("user_id", userID).
			Str("id", entity.ID.String()).
			Msg("failed to insert entity")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "entityRepository.CreateEntity").
		Int64("user_id", userID).
		Str("id", saved.ID.String()).
		Str("kind", string(saved.Kind)).
		Msg("entity created")

	return saved, nil
}

// getByIdempotencyKey fetches the entity stored by an earlier CREATE with
// the same idempotency key.
func (r *entityRepository) getByIdempotencyKey(ctx context.Context, userID int64, idempotencyKey string) (models.Entity, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, getEntityByIdempotencyKey, userID, idempotencyKey)

	stored, err := scanEntityRow(row)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.getByIdempotencyKey").
			Int64("user_id", userID).
			Str("idempotency_key", idempotencyKey).
			Msg("failed to fetch entity by idempotency key")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return stored, nil
}

// GetEntity retrieves a single entity owned by the given user, archived
// records included.
//
// Returns [ErrEntityNotFound] when no row matches.
func (r *entityRepository) GetEntity(ctx context.Context, userID int64, id models.EntityID) (models.Entity, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, getEntity, id, userID)

	entity, err := scanEntityRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().
				Str("func", "entityRepository.GetEntity").
				Int64("user_id", userID).
				Str("id", id.String()).
				Msg("entity not found")
			return models.Entity{}, ErrEntityNotFound
		}

		log.Err(err).
			Str("func", "entityRepository.GetEntity").
			Int64("user_id", userID).
			Str("id", id.String()).
			Msg("failed to fetch entity")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return entity, nil
}

// ListEntities retrieves entities matching the filter, ordered by kind,
// position and creation time.
//
// Returns an empty slice when nothing matches.
func (r *entityRepository) ListEntities(ctx context.Context, userID int64, filter EntityFilter) ([]models.Entity, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListEntitiesQuery(ctx, userID, filter)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.ListEntities").
			Int64("user_id", userID).
			Msg("failed to build query")
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.ListEntities").
			Int64("user_id", userID).
			Msg("failed to execute query for listing entities")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.Entity, 0, 50)

	for rows.Next() {
		entity, scanErr := scanEntityRow(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "entityRepository.ListEntities").
				Int64("user_id", userID).
				Msg("failed to scan entity row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		results = append(results, entity)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "entityRepository.ListEntities").
			Int64("user_id", userID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// UpdateEntity applies the full mutable field set under the optimistic
// version guard and returns the fresh row on success.
//
// The CTE-based [updateEntity] query returns both the updated row id and
// the current database version, enabling the caller to distinguish between
// "not found" (both NULL) and "version conflict" (updatedID NULL,
// currentDBVersion non-NULL).
func (r *entityRepository) UpdateEntity(ctx context.Context, userID int64, id models.EntityID, update models.UpdateRequest, updatedBy string) (models.Entity, error) {
	log := logger.FromContext(ctx)

	var updatedID *string
	var currentDBVersion *int64

	queryRowErr := r.DB.QueryRowContext(ctx, updateEntity,
		id,
		userID,
		update.Name,
		update.Description,
		update.Completed,
		update.Quantity,
		update.Position,
		update.Color,
		update.Icon,
		updatedBy,
		update.Version,
	).Scan(&updatedID, &currentDBVersion)
	if queryRowErr != nil {
		log.Err(queryRowErr).
			Str("func", "entityRepository.UpdateEntity").
			Str("id", id.String()).
			Msg("failed to execute update query")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrExecutingQuery, queryRowErr)
	}

	// not found: target_record empty -> both NULL
	if currentDBVersion == nil {
		log.Warn().
			Str("func", "entityRepository.UpdateEntity").
			Int64("user_id", userID).
			Str("id", id.String()).
			Msg("entity not found")
		return models.Entity{}, ErrEntityNotFound
	}

	// found but not updated -> version mismatch
	if updatedID == nil {
		log.Warn().
			Str("func", "entityRepository.UpdateEntity").
			Str("id", id.String()).
			Int64("db_version", *currentDBVersion).
			Int64("provided_version", update.Version).
			Msg("optimistic lock failed: version mismatch")
		return models.Entity{}, ErrVersionConflict
	}

	return r.GetEntity(ctx, userID, id)
}

// DeleteEntity performs a soft-delete (archive) of the entity under the
// same version guard as [entityRepository.UpdateEntity].
//
// The record survives as an archived row with a bumped version so clients
// can detect the deletion during sync.
func (r *entityRepository) DeleteEntity(ctx context.Context, userID int64, id models.EntityID, expectedVersion int64, updatedBy string) error {
	log := logger.FromContext(ctx)

	var deletedID *string
	var currentDBVersion *int64

	queryRowErr := r.DB.QueryRowContext(ctx, deleteEntity, id, userID, updatedBy, expectedVersion).
		Scan(&deletedID, &currentDBVersion)
	if queryRowErr != nil {
		log.Err(queryRowErr).
			Str("func", "entityRepository.DeleteEntity").
			Str("id", id.String()).
			Msg("failed to execute soft delete query")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, queryRowErr)
	}

	// not found: target_record empty -> both NULL
	if currentDBVersion == nil {
		log.Warn().
			Str("func", "entityRepository.DeleteEntity").
			Int64("user_id", userID).
			Str("id", id.String()).
			Msg("entity not found")
		return ErrEntityNotFound
	}

	// found but not updated -> version mismatch
	if deletedID == nil {
		log.Warn().
			Str("func", "entityRepository.DeleteEntity").
			Str("id", id.String()).
			Int64("db_version", *currentDBVersion).
			Int64("provided_version", expectedVersion).
			Msg("optimistic lock failed: version mismatch on delete")
		return ErrVersionConflict
	}

	log.Info().
		Str("func", "entityRepository.DeleteEntity").
		Int64("user_id", userID).
		Str("id", id.String()).
		Msg("entity soft-deleted")

	return nil
}

// SetCompleted flips the completion flag under the version guard and
// returns the fresh row on success. One conditional write per call; the
// bulk-complete operation invokes this once per target.
func (r *entityRepository) SetCompleted(ctx context.Context, userID int64, id models.EntityID, completed bool, expectedVersion int64, updatedBy string) (models.Entity, error) {
	log := logger.FromContext(ctx)

	var updatedID *string
	var currentDBVersion *int64

	queryRowErr := r.DB.QueryRowContext(ctx, setEntityCompleted, id, userID, completed, updatedBy, expectedVersion).
		Scan(&updatedID, &currentDBVersion)
	if queryRowErr != nil {
		log.Err(queryRowErr).
			Str("func", "entityRepository.SetCompleted").
			Str("id", id.String()).
			Msg("failed to execute set-completed query")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrExecutingQuery, queryRowErr)
	}

	// not found: target_record empty -> both NULL
	if currentDBVersion == nil {
		log.Warn().
			Str("func", "entityRepository.SetCompleted").
			Int64("user_id", userID).
			Str("id", id.String()).
			Msg("entity not found")
		return models.Entity{}, ErrEntityNotFound
	}

	// found but not updated -> version mismatch
	if updatedID == nil {
		log.Warn().
			Str("func", "entityRepository.SetCompleted").
			Str("id", id.String()).
			Int64("db_version", *currentDBVersion).
			Int64("provided_version", expectedVersion).
			Msg("optimistic lock failed: version mismatch")
		return models.Entity{}, ErrVersionConflict
	}

	return r.GetEntity(ctx, userID, id)
}

// Reorder rewrites item positions inside a single database transaction
// using a prepared statement, last-write-wins.
//
// There is NO version guard here: a concurrent reorder can silently
// overwrite this one, and positions never bump the version counter.
// Rows that do not exist are skipped silently.
func (r *entityRepository) Reorder(ctx context.Context, userID int64, positions []models.ReorderPosition) error {
	log := logger.FromContext(ctx)

	if len(positions) == 0 {
		log.Warn().
			Str("func", "entityRepository.Reorder").
			Msg("no positions provided")
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.Reorder").
			Int("positions_count", len(positions)).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, reorderEntity)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.Reorder").
			Int("positions_count", len(positions)).
			Msg("failed to prepare statement")
		return fmt.Errorf("%w: %w", ErrPreparingStatement, err)
	}
	defer stmt.Close()

	for idx, pos := range positions {
		log.Debug().
			Str("func", "entityRepository.Reorder").
			Int("iteration", idx+1).
			Int("total", len(positions)).
			Str("id", pos.ID.String()).
			Int64("position", pos.Position).
			Msg("repositioning entity in transaction")

		if _, execErr := stmt.ExecContext(ctx, pos.ID, userID, pos.Position); execErr != nil {
			log.Err(execErr).
				Str("func", "entityRepository.Reorder").
				Int("iteration", idx+1).
				Str("id", pos.ID.String()).
				Msg("failed to execute prepared statement")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "entityRepository.Reorder").
			Int("positions_count", len(positions)).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	log.Info().
		Str("func", "entityRepository.Reorder").
		Int64("user_id", userID).
		Int("positions_count", len(positions)).
		Msg("successfully repositioned entities")

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntityRow reads one entity row in [entityColumns] order. The nullable
// parent_id column is converted into a *models.EntityID.
func scanEntityRow(row rowScanner) (models.Entity, error) {
	var entity models.Entity
	var parentID sql.NullString

	err := row.Scan(
		&entity.ID,
		&entity.Kind,
		&parentID,
		&entity.Name,
		&entity.Description,
		&entity.Completed,
		&entity.Quantity,
		&entity.Position,
		&entity.Color,
		&entity.Icon,
		&entity.Archived,
		&entity.Version,
		&entity.CreatedAt,
		&entity.UpdatedAt,
		&entity.UpdatedBy,
	)
	if err != nil {
		return models.Entity{}, err
	}

	if parentID.Valid {
		pid := models.ParseEntityID(parentID.String)
		entity.ParentID = &pid
	}

	return entity, nil
}

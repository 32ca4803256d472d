package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/utils"
	"github.com/MKhiriev/go-list-keeper/models"
)

type mutationQueueRepository struct {
	*DB
	logger *logger.Logger
	uuid   *utils.UUIDGenerator
}

// NewMutationQueueRepository constructs the SQLite-backed [MutationQueue].
func NewMutationQueueRepository(db *DB, logger *logger.Logger) MutationQueue {
	return &mutationQueueRepository{
		DB:     db,
		logger: logger,
		uuid:   utils.NewUUIDGenerator(),
	}
}

// Enqueue persists the entry at the current tail. A zero ID is minted here
// (UUIDv7, time-ordered) and becomes the idempotency token the sync driver
// sends to the server; a zero Timestamp is set to now.
func (q *mutationQueueRepository) Enqueue(ctx context.Context, entry models.QueueEntry) (models.QueueEntry, error) {
	log := logger.FromContext(ctx)

	if entry.ID == "" {
		entry.ID = q.uuid.Generate()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Status == "" {
		entry.Status = models.EntryPending
	}

	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.Enqueue").
			Str("entry_id", entry.ID).
			Msg("failed to marshal entry payload")
		return models.QueueEntry{}, fmt.Errorf("failed to marshal queue entry payload: %w", err)
	}

	_, err = q.DB.ExecContext(ctx, queueInsertEntry,
		entry.ID,
		entry.Timestamp,
		entry.Operation,
		entry.Kind,
		entry.ResourceID,
		entry.ParentID,
		string(payload),
		entry.ExpectedVersion,
		entry.RetryCount,
		entry.Status,
		entry.LastError,
		entry.LastAttempt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.Enqueue").
			Str("entry_id", entry.ID).
			Str("resource_id", entry.ResourceID.String()).
			Msg("failed to insert queue entry")
		return models.QueueEntry{}, fmt.Errorf("failed to enqueue mutation (id=%s): %w", entry.ID, err)
	}

	log.Debug().
		Str("func", "mutationQueueRepository.Enqueue").
		Str("entry_id", entry.ID).
		Str("operation", string(entry.Operation)).
		Str("resource_id", entry.ResourceID.String()).
		Msg("mutation enqueued")

	return entry, nil
}

func (q *mutationQueueRepository) Get(ctx context.Context, id string) (models.QueueEntry, error) {
	log := logger.FromContext(ctx)

	row := q.DB.QueryRowContext(ctx, queueGetEntry, id)

	entry, err := scanQueueEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.QueueEntry{}, ErrQueueEntryNotFound
		}

		log.Err(err).
			Str("func", "mutationQueueRepository.Get").
			Str("entry_id", id).
			Msg("failed to query queue entry")
		return models.QueueEntry{}, fmt.Errorf("failed to query queue entry: %w", err)
	}

	return entry, nil
}

func (q *mutationQueueRepository) ListPending(ctx context.Context) ([]models.QueueEntry, error) {
	return q.listEntries(ctx, "mutationQueueRepository.ListPending", queueListPending)
}

func (q *mutationQueueRepository) ListFailed(ctx context.Context) ([]models.QueueEntry, error) {
	return q.listEntries(ctx, "mutationQueueRepository.ListFailed", queueListFailed)
}

func (q *mutationQueueRepository) listEntries(ctx context.Context, funcName, query string) ([]models.QueueEntry, error) {
	log := logger.FromContext(ctx)

	rows, err := q.DB.QueryContext(ctx, query)
	if err != nil {
		log.Err(err).
			Str("func", funcName).
			Msg("failed to execute query for queue entries")
		return nil, fmt.Errorf("failed to query queue entries: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry

	for rows.Next() {
		entry, scanErr := scanQueueEntry(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", funcName).
				Msg("failed to scan queue entry row")
			return nil, fmt.Errorf("failed to scan queue entry row: %w", scanErr)
		}

		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", funcName).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating queue entry rows: %w", rowsErr)
	}

	return entries, nil
}

func (q *mutationQueueRepository) MarkSyncing(ctx context.Context, id string) error {
	return q.execOnEntry(ctx, "mutationQueueRepository.MarkSyncing", queueMarkSyncing, id, time.Now().UTC())
}

// MarkSynced removes the confirmed entry. SYNCED is a transient status; a
// confirmed mutation has no further use and its row is dropped outright.
func (q *mutationQueueRepository) MarkSynced(ctx context.Context, id string) error {
	return q.execOnEntry(ctx, "mutationQueueRepository.MarkSynced", queueDeleteEntry, id)
}

func (q *mutationQueueRepository) MarkFailed(ctx context.Context, id string, cause string) error {
	return q.execOnEntry(ctx, "mutationQueueRepository.MarkFailed", queueMarkFailed, id, cause, time.Now().UTC())
}

// RequeueFailed resets a FAILED entry to PENDING in place, keeping its
// original timestamp and queue position.
func (q *mutationQueueRepository) RequeueFailed(ctx context.Context, id string) error {
	return q.execOnEntry(ctx, "mutationQueueRepository.RequeueFailed", queueRequeueEntry, id)
}

func (q *mutationQueueRepository) HasPendingDelete(ctx context.Context, resourceID models.EntityID) (bool, error) {
	log := logger.FromContext(ctx)

	var count int
	if err := q.DB.QueryRowContext(ctx, queueHasPendingDelete, resourceID).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.HasPendingDelete").
			Str("resource_id", resourceID.String()).
			Msg("failed to count pending deletes")
		return false, fmt.Errorf("failed to count pending deletes: %w", err)
	}

	return count > 0, nil
}

// Remove drops the entry unconditionally; removing an absent id is a no-op.
func (q *mutationQueueRepository) Remove(ctx context.Context, id string) error {
	return q.execOnEntry(ctx, "mutationQueueRepository.Remove", queueDeleteEntry, id)
}

func (q *mutationQueueRepository) CountByStatus(ctx context.Context) (map[models.EntryStatus]int, error) {
	log := logger.FromContext(ctx)

	rows, err := q.DB.QueryContext(ctx, queueCountByStatus)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.CountByStatus").
			Msg("failed to execute count query")
		return nil, fmt.Errorf("failed to count queue entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.EntryStatus]int, 3)

	for rows.Next() {
		var status models.EntryStatus
		var count int

		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			log.Err(scanErr).
				Str("func", "mutationQueueRepository.CountByStatus").
				Msg("failed to scan count row")
			return nil, fmt.Errorf("failed to scan count row: %w", scanErr)
		}

		counts[status] = count
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "mutationQueueRepository.CountByStatus").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating count rows: %w", rowsErr)
	}

	return counts, nil
}

// RewriteResource substitutes a temporary id with the server-assigned one
// across resource_id and parent_id columns and inside every serialized
// payload, all in one transaction.
func (q *mutationQueueRepository) RewriteResource(ctx context.Context, oldID, newID models.EntityID) error {
	log := logger.FromContext(ctx)

	tx, err := q.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.RewriteResource").
			Str("old_id", oldID.String()).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queueRewriteResourceID, oldID, newID); err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.RewriteResource").
			Str("old_id", oldID.String()).
			Msg("failed to rewrite resource_id")
		return fmt.Errorf("failed to rewrite resource_id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, queueRewriteParentID, oldID, newID); err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.RewriteResource").
			Str("old_id", oldID.String()).
			Msg("failed to rewrite parent_id")
		return fmt.Errorf("failed to rewrite parent_id: %w", err)
	}

	if err := q.rewritePayloads(ctx, tx, oldID, newID); err != nil {
		return err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "mutationQueueRepository.RewriteResource").
			Str("old_id", oldID.String()).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

// rewritePayloads re-serializes every payload that references the old id.
// Payloads are opaque JSON to SQLite, so the substitution happens in Go.
func (q *mutationQueueRepository) rewritePayloads(ctx context.Context, tx *sql.Tx, oldID, newID models.EntityID) error {
	log := logger.FromContext(ctx)

	rows, err := tx.QueryContext(ctx, `SELECT id, payload FROM mutation_queue;`)
	if err != nil {
		log.Err(err).
			Str("func", "mutationQueueRepository.rewritePayloads").
			Msg("failed to query payloads")
		return fmt.Errorf("failed to query payloads: %w", err)
	}
	defer rows.Close()

	type patch struct {
		entryID string
		payload string
	}
	var patches []patch

	for rows.Next() {
		var entryID, raw string
		if scanErr := rows.Scan(&entryID, &raw); scanErr != nil {
			return fmt.Errorf("failed to scan payload row: %w", scanErr)
		}

		var payload models.Entity
		if unmarshalErr := json.Unmarshal([]byte(raw), &payload); unmarshalErr != nil {
			return fmt.Errorf("failed to unmarshal payload (entry_id=%s): %w", entryID, unmarshalErr)
		}

		changed := false
		if payload.ID.Equal(oldID) {
			payload.ID = newID
			changed = true
		}
		if payload.ParentID != nil && payload.ParentID.Equal(oldID) {
			pid := newID
			payload.ParentID = &pid
			changed = true
		}
		if !changed {
			continue
		}

		rewritten, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal payload (entry_id=%s): %w", entryID, marshalErr)
		}

		patches = append(patches, patch{entryID: entryID, payload: string(rewritten)})
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("error iterating payload rows: %w", rowsErr)
	}
	rows.Close()

	for _, p := range patches {
		if _, execErr := tx.ExecContext(ctx, `UPDATE mutation_queue SET payload = $2 WHERE id = $1;`, p.entryID, p.payload); execErr != nil {
			log.Err(execErr).
				Str("func", "mutationQueueRepository.rewritePayloads").
				Str("entry_id", p.entryID).
				Msg("failed to rewrite payload")
			return fmt.Errorf("failed to rewrite payload (entry_id=%s): %w", p.entryID, execErr)
		}
	}

	return nil
}

func (q *mutationQueueRepository) execOnEntry(ctx context.Context, funcName, query string, id string, args ...any) error {
	log := logger.FromContext(ctx)

	allArgs := append([]any{id}, args...)
	if _, err := q.DB.ExecContext(ctx, query, allArgs...); err != nil {
		log.Err(err).
			Str("func", funcName).
			Str("entry_id", id).
			Msg("failed to execute queue entry update")
		return fmt.Errorf("failed to update queue entry (id=%s): %w", id, err)
	}

	return nil
}

// scanQueueEntry reads one queue row in [queueEntryColumns] order and
// deserializes the JSON payload.
func scanQueueEntry(row rowScanner) (models.QueueEntry, error) {
	var entry models.QueueEntry
	var parentID sql.NullString
	var payload string
	var lastAttempt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.Timestamp,
		&entry.Operation,
		&entry.Kind,
		&entry.ResourceID,
		&parentID,
		&payload,
		&entry.ExpectedVersion,
		&entry.RetryCount,
		&entry.Status,
		&entry.LastError,
		&lastAttempt,
	)
	if err != nil {
		return models.QueueEntry{}, err
	}

	if parentID.Valid {
		pid := models.ParseEntityID(parentID.String)
		entry.ParentID = &pid
	}
	if lastAttempt.Valid {
		t := lastAttempt.Time
		entry.LastAttempt = &t
	}

	if payload != "" {
		if unmarshalErr := json.Unmarshal([]byte(payload), &entry.Payload); unmarshalErr != nil {
			return models.QueueEntry{}, fmt.Errorf("failed to unmarshal queue entry payload: %w", unmarshalErr)
		}
	}

	return entry, nil
}

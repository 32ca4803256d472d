package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/internal/utils"
	"github.com/MKhiriev/go-list-keeper/models"
)

type conflictResolver struct {
	cache store.EntityCache
	queue store.MutationQueue
	uuid  *utils.UUIDGenerator

	mu      sync.RWMutex
	records map[string]models.ConflictRecord

	// changes coalesces registry-change notifications for the sync driver's
	// status broadcast.
	changes chan struct{}

	logger *logger.Logger
}

// NewConflictResolver constructs the resolver over the entity cache and the
// mutation queue. The registry starts empty; it is in-memory only, because a
// conflict is always re-derivable by replaying the rejected entry.
func NewConflictResolver(localStore *store.ClientStorages, logger *logger.Logger) ConflictResolver {
	return &conflictResolver{
		cache:   localStore.EntityCache,
		queue:   localStore.MutationQueue,
		uuid:    utils.NewUUIDGenerator(),
		records: make(map[string]models.ConflictRecord),
		changes: make(chan struct{}, 1),
		logger:  logger,
	}
}

// Classify decides the conflict type. A missing server snapshot means the
// resource was deleted remotely. When both snapshots exist and their
// comparable fields match, only the version counters diverged and the
// mutation can be rebased mechanically.
func (r *conflictResolver) Classify(entry models.QueueEntry, local, server *models.Entity) models.ConflictType {
	if server == nil {
		return models.ConflictDeleted
	}

	intended := entry.Payload
	if intended.ID.IsZero() && local != nil {
		intended = *local
	}

	if intended.ComparableFieldsEqual(*server) {
		return models.ConflictVersionMismatch
	}

	return models.ConflictModified
}

// AutoStrategy returns the automatic rule: version mismatches merge, remote
// deletions adopt the server. A modified conflict always needs a decision.
func (r *conflictResolver) AutoStrategy(conflictType models.ConflictType) (models.ResolutionStrategy, bool) {
	switch conflictType {
	case models.ConflictVersionMismatch:
		return models.ResolveMerge, true
	case models.ConflictDeleted:
		return models.ResolveUseServer, true
	default:
		return "", false
	}
}

func (r *conflictResolver) Record(ctx context.Context, entry models.QueueEntry, local, server *models.Entity, cause string) (models.ConflictRecord, error) {
	log := logger.FromContext(ctx)

	record := models.ConflictRecord{
		ID:        r.uuid.Generate(),
		Entry:     entry,
		Local:     local,
		Server:    server,
		Type:      r.Classify(entry, local, server),
		Cause:     cause,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.records[record.ID] = record
	r.mu.Unlock()
	r.notify()

	log.Info().
		Str("conflict_id", record.ID).
		Str("entry_id", entry.ID).
		Str("resource_id", entry.ResourceID.String()).
		Str("type", string(record.Type)).
		Msg("conflict recorded")

	return record, nil
}

func (r *conflictResolver) Resolve(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) error {
	r.mu.RLock()
	record, ok := r.records[conflictID]
	r.mu.RUnlock()
	if !ok {
		return ErrConflictNotFound
	}

	if err := r.Apply(ctx, record, strategy); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.records, conflictID)
	r.mu.Unlock()
	r.notify()

	return nil
}

// Apply settles one conflict with the chosen strategy. It mutates the cache
// and the queue; the registry is untouched so that automatic resolutions can
// use the same path without ever registering.
func (r *conflictResolver) Apply(ctx context.Context, record models.ConflictRecord, strategy models.ResolutionStrategy) error {
	log := logger.FromContext(ctx)

	log.Debug().
		Str("entry_id", record.Entry.ID).
		Str("resource_id", record.Entry.ResourceID.String()).
		Str("type", string(record.Type)).
		Str("strategy", string(strategy)).
		Msg("applying conflict resolution")

	switch strategy {
	case models.ResolveUseServer:
		return r.applyUseServer(ctx, record)
	case models.ResolveUseLocal:
		return r.applyUseLocal(ctx, record)
	case models.ResolveMerge:
		return r.applyMerge(ctx, record)
	case models.ResolveCancel:
		return r.applyCancel(ctx, record)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// applyUseServer adopts the server state: the cache takes the server
// snapshot (or drops the row when the resource is gone remotely) and the
// rejected entry is discarded.
func (r *conflictResolver) applyUseServer(ctx context.Context, record models.ConflictRecord) error {
	if record.Server != nil {
		if err := r.cache.Put(ctx, *record.Server); err != nil {
			return fmt.Errorf("failed to adopt server entity: %w", err)
		}
	} else {
		if err := r.cache.Remove(ctx, record.Entry.ResourceID); err != nil {
			return fmt.Errorf("failed to drop deleted entity: %w", err)
		}
	}

	if err := r.queue.Remove(ctx, record.Entry.ID); err != nil {
		return fmt.Errorf("failed to drop rejected entry: %w", err)
	}

	return nil
}

// applyUseLocal rebases the rejected mutation onto the server's current
// version. An UPDATE whose target was deleted remotely becomes a CREATE; a
// DELETE whose target is already gone has nothing left to do.
func (r *conflictResolver) applyUseLocal(ctx context.Context, record models.ConflictRecord) error {
	entry := record.Entry

	local := entry.Payload
	if record.Local != nil {
		local = *record.Local
	}

	if err := r.queue.Remove(ctx, entry.ID); err != nil {
		return fmt.Errorf("failed to drop rejected entry: %w", err)
	}

	if record.Server == nil {
		switch entry.Operation {
		case models.OpDelete:
			// already gone remotely
			return nil
		default:
			rebased := models.QueueEntry{
				Operation:  models.OpCreate,
				Kind:       entry.Kind,
				ResourceID: entry.ResourceID,
				ParentID:   entry.ParentID,
				Payload:    local,
			}
			if _, err := r.queue.Enqueue(ctx, rebased); err != nil {
				return fmt.Errorf("failed to requeue rebased create: %w", err)
			}
			return nil
		}
	}

	rebased := models.QueueEntry{
		Operation:       entry.Operation,
		Kind:            entry.Kind,
		ResourceID:      entry.ResourceID,
		ParentID:        entry.ParentID,
		Payload:         local,
		ExpectedVersion: record.Server.Version,
	}
	if _, err := r.queue.Enqueue(ctx, rebased); err != nil {
		return fmt.Errorf("failed to requeue rebased entry: %w", err)
	}

	return nil
}

// applyMerge folds both sides into one entity and queues it as an UPDATE
// against the server's current version. Degenerate cases fall back: no server
// snapshot behaves like use_local, no local state like use_server.
func (r *conflictResolver) applyMerge(ctx context.Context, record models.ConflictRecord) error {
	if record.Server == nil {
		return r.applyUseLocal(ctx, record)
	}

	local := record.Entry.Payload
	if local.ID.IsZero() {
		if record.Local == nil {
			return r.applyUseServer(ctx, record)
		}
		local = *record.Local
	}

	merged := mergeEntities(local, *record.Server)

	if err := r.cache.Put(ctx, merged); err != nil {
		return fmt.Errorf("failed to cache merged entity: %w", err)
	}

	if err := r.queue.Remove(ctx, record.Entry.ID); err != nil {
		return fmt.Errorf("failed to drop rejected entry: %w", err)
	}

	rebased := models.QueueEntry{
		Operation:       models.OpUpdate,
		Kind:            record.Entry.Kind,
		ResourceID:      record.Entry.ResourceID,
		ParentID:        merged.ParentID,
		Payload:         merged,
		ExpectedVersion: record.Server.Version,
	}
	if _, err := r.queue.Enqueue(ctx, rebased); err != nil {
		return fmt.Errorf("failed to requeue merged entry: %w", err)
	}

	return nil
}

// applyCancel drops the rejected entry; the cache keeps its last-known value.
func (r *conflictResolver) applyCancel(ctx context.Context, record models.ConflictRecord) error {
	if err := r.queue.Remove(ctx, record.Entry.ID); err != nil {
		return fmt.Errorf("failed to drop rejected entry: %w", err)
	}

	return nil
}

func (r *conflictResolver) List(_ context.Context) []models.ConflictRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]models.ConflictRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}

	return records
}

func (r *conflictResolver) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}

func (r *conflictResolver) HasConflictFor(entryID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.records {
		if record.Entry.ID == entryID {
			return true
		}
	}

	return false
}

// Changes signals registry mutations, coalesced to one pending notification.
func (r *conflictResolver) Changes() <-chan struct{} {
	return r.changes
}

func (r *conflictResolver) notify() {
	select {
	case r.changes <- struct{}{}:
	default:
	}
}

// mergeEntities keeps the side with the later UpdatedAt for the mutable field
// set. The server's version, updatedAt and updatedBy stay the baseline either
// way; the rebased UPDATE stamps fresh audit values when it lands.
func mergeEntities(local, server models.Entity) models.Entity {
	merged := server

	if local.UpdatedAt.After(server.UpdatedAt) {
		merged.Name = local.Name
		merged.Description = local.Description
		merged.Completed = local.Completed
		merged.Quantity = local.Quantity
		merged.Position = local.Position
		merged.Color = local.Color
		merged.Icon = local.Icon
	}

	return merged
}

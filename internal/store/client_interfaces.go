package store

import (
	"context"

	"github.com/MKhiriev/go-list-keeper/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// EntityCache is the client's local replica of lists and items. Reads are
// served from here regardless of connectivity; optimistic local writes land
// here first and are confirmed (or corrected) later by the sync driver.
//
// The cache is per-device and single-account, so no user scoping appears in
// the method set.
type EntityCache interface {
	Get(ctx context.Context, id models.EntityID) (models.Entity, error)
	GetAll(ctx context.Context) ([]models.Entity, error)
	GetAllByKind(ctx context.Context, kind models.ResourceKind) ([]models.Entity, error)
	GetAllByParent(ctx context.Context, parentID models.EntityID) ([]models.Entity, error)

	// Put upserts an entity. The upsert carries a version guard: a write whose
	// version is lower than the cached one is silently dropped, so the cached
	// version never moves backwards when server echoes race local writes.
	Put(ctx context.Context, entity models.Entity) error
	PutMany(ctx context.Context, entities ...models.Entity) error

	// Remove deletes the cached row. Removing an absent id is not an error.
	Remove(ctx context.Context, id models.EntityID) error

	// Rekey substitutes a temporary id with the server-assigned one, on the
	// entity row itself and on the parent_id of any cached children.
	Rekey(ctx context.Context, oldID, newID models.EntityID) error
}

// MutationQueue is the durable record of local mutations awaiting server
// confirmation. Entries drain strictly in timestamp order; the queue itself
// never reorders or coalesces.
type MutationQueue interface {
	// Enqueue persists the entry. A zero ID is minted (UUIDv7, which doubles
	// as the idempotency token) and a zero Timestamp is set to now, placing
	// the entry at the current tail.
	Enqueue(ctx context.Context, entry models.QueueEntry) (models.QueueEntry, error)

	Get(ctx context.Context, id string) (models.QueueEntry, error)

	// ListPending returns entries eligible for the next drain pass, ascending
	// by timestamp. SYNCING entries abandoned by an aborted drain are included
	// and treated exactly like pending ones.
	ListPending(ctx context.Context) ([]models.QueueEntry, error)

	// ListFailed returns FAILED entries ascending by timestamp, for the retry
	// scan that decides which ones are due for a requeue.
	ListFailed(ctx context.Context) ([]models.QueueEntry, error)

	MarkSyncing(ctx context.Context, id string) error

	// MarkSynced removes the confirmed entry; SYNCED is never stored.
	MarkSynced(ctx context.Context, id string) error

	// MarkFailed records a transient failure: status FAILED, retry counter
	// incremented, cause and attempt time retained for inspection.
	MarkFailed(ctx context.Context, id string, cause string) error

	// RequeueFailed resets a FAILED entry to PENDING in place: the entry
	// keeps its original timestamp and therefore its queue position.
	RequeueFailed(ctx context.Context, id string) error

	// HasPendingDelete reports whether a DELETE for the resource is already
	// queued. DELETE is terminal: further mutations for that id are rejected
	// at enqueue time by the service layer.
	HasPendingDelete(ctx context.Context, resourceID models.EntityID) (bool, error)

	// Remove drops the entry unconditionally. Removing an absent id is not an
	// error.
	Remove(ctx context.Context, id string) error

	CountByStatus(ctx context.Context) (map[models.EntryStatus]int, error)

	// RewriteResource substitutes a temporary resource id with the assigned
	// one across all queued entries (resource_id and parent_id columns, plus
	// the serialized payload).
	RewriteResource(ctx context.Context, oldID, newID models.EntityID) error
}

// Preferences is a small durable key/value store for client-side state that
// must survive restarts: the auth token, the last successful drain time, and
// similar bookkeeping.
type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

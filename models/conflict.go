package models

import "time"

// ConflictType classifies why the remote concurrency gate rejected a queued
// mutation.
type ConflictType string

const (
	// ConflictDeleted — the resource no longer exists remotely.
	ConflictDeleted ConflictType = "deleted"
	// ConflictModified — the remote content diverged in at least one
	// comparable field.
	ConflictModified ConflictType = "modified"
	// ConflictVersionMismatch — versions differ but comparable fields are
	// identical; safe to merge mechanically.
	ConflictVersionMismatch ConflictType = "version_mismatch"
)

// ResolutionStrategy selects how a conflict is settled, either automatically
// or by explicit caller choice.
type ResolutionStrategy string

const (
	// ResolveUseLocal rebases the queued mutation onto the server's current
	// version. If the resource was deleted remotely, a pending UPDATE is
	// converted into a CREATE.
	ResolveUseLocal ResolutionStrategy = "use_local"
	// ResolveUseServer discards the local change, adopts the server entity
	// into the cache and drops the queue entry.
	ResolveUseServer ResolutionStrategy = "use_server"
	// ResolveMerge merges field by field, preferring the side with the later
	// UpdatedAt per mutable field, and always adopts the server's version and
	// audit fields as the new baseline.
	ResolveMerge ResolutionStrategy = "merge"
	// ResolveCancel drops the queue entry and leaves the cache at its
	// last-known value.
	ResolveCancel ResolutionStrategy = "cancel"
)

// ConflictRecord captures one rejected mutation awaiting resolution. Created
// when the gate rejects a queued entry; destroyed when resolved or canceled.
type ConflictRecord struct {
	ID string `json:"id"`

	// Entry is the rejected queue entry.
	Entry QueueEntry `json:"entry"`

	// Local is the pre-mutation local snapshot, nil if the cache had none.
	Local *Entity `json:"local,omitempty"`

	// Server is the server's current snapshot, nil if the resource was
	// deleted remotely.
	Server *Entity `json:"server,omitempty"`

	Type ConflictType `json:"type"`

	// Cause is the triggering error, kept as text for durability.
	Cause string `json:"cause,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

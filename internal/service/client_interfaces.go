// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-list-keeper/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_service_mock.go -package=mock

// ClientAuthService handles registration and login against the remote server
// and keeps the session token in durable client storage so that a restart
// does not force a re-login.
type ClientAuthService interface {
	// Register creates an account on the server and stores the returned
	// bearer token.
	Register(ctx context.Context, user models.User) error

	// Login authenticates against the server, stores the bearer token, and
	// hydrates the local cache with the account's current entities.
	Login(ctx context.Context, user models.User) error

	// Restore loads a previously stored session token into the adapter.
	// Returns ErrNotAuthenticated if no token is stored.
	Restore(ctx context.Context) error

	// Logout drops the stored session token.
	Logout(ctx context.Context) error
}

// MutationService is the client-facing write API. Every mutation lands in the
// local cache immediately (optimistic write) and is recorded in the durable
// mutation queue for the sync driver to drain.
//
// Reads are served from the cache alone and never touch the network.
type MutationService interface {
	Get(ctx context.Context, id models.EntityID) (models.Entity, error)
	Lists(ctx context.Context) ([]models.Entity, error)
	Items(ctx context.Context, listID models.EntityID) ([]models.Entity, error)

	// Create validates the request, mints a temporary id, writes the entity
	// to the cache and queues a CREATE. The returned entity carries the
	// temporary id until the sync driver substitutes the server-assigned one.
	Create(ctx context.Context, req models.CreateRequest) (models.Entity, error)

	// Update applies the full mutable field set to the cached entity and
	// queues an UPDATE guarded by the cached version. Rejected with
	// ErrResourceDeleteQueued if a DELETE for the resource is already queued.
	Update(ctx context.Context, id models.EntityID, req models.UpdateRequest) (models.Entity, error)

	// Delete removes the entity from the cache and queues a DELETE. A queued
	// DELETE is terminal for its resource.
	Delete(ctx context.Context, id models.EntityID) error

	// Reorder rewrites item positions in the cache and queues one UPDATE per
	// moved item.
	Reorder(ctx context.Context, req models.ReorderRequest) error
}

// SyncDriver owns the drain state machine. It listens for drain triggers
// (connectivity regained, explicit request, periodic tick), replays the
// mutation queue against the server in timestamp order, and hands rejected
// entries to the ConflictResolver.
type SyncDriver interface {
	// Start launches the background drain loop. Stops any previous loop.
	Start(ctx context.Context)

	// Stop terminates the drain loop and blocks until it has exited.
	Stop()

	// TriggerDrain requests a drain pass. Triggers are coalesced: requesting
	// while a pass is queued or running schedules at most one more pass.
	TriggerDrain()

	// Drain runs one synchronous drain pass. A no-op while offline.
	Drain(ctx context.Context) error

	// Status reports the current queue and resolver summary.
	Status(ctx context.Context) (models.SyncStatus, error)

	// SubscribeStatus returns a channel receiving a status snapshot after
	// every drain pass and every conflict-registry change.
	SubscribeStatus() <-chan models.SyncStatus
	UnsubscribeStatus(ch <-chan models.SyncStatus)
}

// ConflictResolver classifies gate rejections, applies resolution strategies,
// and holds the registry of conflicts awaiting a manual decision.
type ConflictResolver interface {
	// Classify decides the conflict type from the rejected entry and the two
	// snapshots. Either snapshot may be nil.
	Classify(entry models.QueueEntry, local, server *models.Entity) models.ConflictType

	// AutoStrategy returns the automatic resolution rule for a conflict type,
	// or ok=false when the conflict needs a manual decision.
	AutoStrategy(conflictType models.ConflictType) (models.ResolutionStrategy, bool)

	// Record registers a conflict awaiting resolution and returns it.
	Record(ctx context.Context, entry models.QueueEntry, local, server *models.Entity, cause string) (models.ConflictRecord, error)

	// Resolve applies the strategy to the recorded conflict and removes it
	// from the registry. Returns ErrConflictNotFound for an unknown id and
	// ErrUnknownStrategy for a strategy the resolver does not implement.
	Resolve(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) error

	// Apply settles a conflict that never enters the registry (automatic
	// rules fire during the drain pass itself).
	Apply(ctx context.Context, record models.ConflictRecord, strategy models.ResolutionStrategy) error

	List(ctx context.Context) []models.ConflictRecord
	Count() int

	// HasConflictFor reports whether a registered conflict references the
	// queue entry. The retry scan skips such entries; replaying them would
	// only re-produce the same rejection.
	HasConflictFor(entryID string) bool

	// Changes signals registry mutations. Notifications are coalesced; a
	// receive means "the registry changed at least once since the last read".
	Changes() <-chan struct{}
}

// ClientSyncJob periodically nudges the sync driver so that entries failed on
// transient errors are retried even without local write activity.
type ClientSyncJob interface {
	// Start launches the background tick goroutine. It triggers a drain every
	// interval, defaulting to 5 minutes if interval is zero or negative. Any
	// previously running job is stopped before the new one begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-list-keeper/internal/adapter"
	"github.com/MKhiriev/go-list-keeper/internal/config"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/netmon"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/sethvargo/go-retry"
)

// inCallRetries bounds the immediate in-call retries of one remote operation
// inside a drain pass. Failures beyond that are recorded as FAILED and picked
// up by the slower requeue backoff.
const inCallRetries = 2

type syncDriver struct {
	cache    store.EntityCache
	queue    store.MutationQueue
	adapter  adapter.ServerAdapter
	monitor  netmon.Monitor
	resolver ConflictResolver

	retryCap    int
	backoffBase time.Duration
	backoffCap  time.Duration

	// trigger coalesces drain requests: at most one is ever queued.
	trigger chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	draining atomic.Bool

	subMu sync.Mutex
	subs  map[<-chan models.SyncStatus]chan models.SyncStatus

	logger *logger.Logger
}

// NewSyncDriver constructs the drain state machine over the local stores, the
// server adapter, the network monitor, and the conflict resolver.
func NewSyncDriver(localStore *store.ClientStorages, serverAdapter adapter.ServerAdapter, monitor netmon.Monitor, resolver ConflictResolver, cfg config.ClientSync, logger *logger.Logger) SyncDriver {
	return &syncDriver{
		cache:       localStore.EntityCache,
		queue:       localStore.MutationQueue,
		adapter:     serverAdapter,
		monitor:     monitor,
		resolver:    resolver,
		retryCap:    cfg.RetryCap,
		backoffBase: cfg.BackoffBase,
		backoffCap:  cfg.BackoffCap,
		trigger:     make(chan struct{}, 1),
		subs:        make(map[<-chan models.SyncStatus]chan models.SyncStatus),
		logger:      logger,
	}
}

// Start implements SyncDriver. It stops any previously running loop, then
// launches a goroutine that drains on every trigger, on every offline-to-
// online transition, and on conflict-registry changes (status broadcast
// only). The goroutine exits when ctx is cancelled or Stop is called.
func (s *syncDriver) Start(ctx context.Context) {
	s.Stop()

	s.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	netCh := s.monitor.Subscribe()

	go func() {
		defer s.wg.Done()
		defer s.monitor.Unsubscribe(netCh)

		for {
			select {
			case <-loopCtx.Done():
				return

			case <-s.trigger:
				if err := s.Drain(loopCtx); err != nil {
					s.logger.Err(err).Msg("drain pass failed")
				}

			case online, ok := <-netCh:
				if !ok {
					return
				}
				if online {
					s.logger.Debug().Msg("connectivity regained, draining")
					if err := s.Drain(loopCtx); err != nil {
						s.logger.Err(err).Msg("drain pass failed")
					}
				} else {
					s.broadcast(loopCtx)
				}

			case <-s.resolver.Changes():
				s.broadcast(loopCtx)
			}
		}
	}()
}

// Stop implements SyncDriver. Safe to call when the loop is not running.
func (s *syncDriver) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// TriggerDrain requests a drain pass without blocking. Requests arriving
// while one is already queued collapse into it.
func (s *syncDriver) TriggerDrain() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Drain runs one pass over the queue in timestamp order. Entries whose
// resource has an earlier unconfirmed mutation, whether it failed in this
// pass or stayed parked from a previous one, are skipped so that no mutation
// overtakes an unresolved one for the same resource.
func (s *syncDriver) Drain(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if !s.monitor.Online() {
		log.Debug().Msg("offline, drain skipped")
		return nil
	}

	s.draining.Store(true)
	s.broadcast(ctx)
	defer func() {
		s.draining.Store(false)
		s.broadcast(ctx)
	}()

	parked, err := s.requeueDue(ctx)
	if err != nil {
		return err
	}

	entries, err := s.queue.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending entries: %w", err)
	}

	// blocked holds resources whose earlier entry did not confirm;
	// confirmed holds the fresh server version per resource so later entries
	// of the same resource drain against it instead of their stale belief;
	// renamed maps temporary ids to their server-assigned replacements so
	// entries listed before the substitution still reference the right rows.
	blocked := make(map[string]struct{})
	confirmed := make(map[string]int64)
	renamed := make(map[string]models.EntityID)

	// Entries still parked as FAILED are earlier mutations awaiting a retry
	// or a conflict decision. Their resources block from pass to pass, not
	// only within the pass that parked them.
	for _, entry := range parked {
		blocked[entry.ResourceID.String()] = struct{}{}
	}

	for _, entry := range entries {
		if !s.monitor.Online() {
			log.Info().Msg("offline mid-drain, aborting remaining issuance")
			return nil
		}

		entry = applyRenames(renamed, entry)

		if s.isBlocked(blocked, entry) {
			log.Debug().
				Str("entry_id", entry.ID).
				Str("resource_id", entry.ResourceID.String()).
				Msg("entry blocked behind unresolved same-resource entry")
			continue
		}

		if markErr := s.queue.MarkSyncing(ctx, entry.ID); markErr != nil {
			return fmt.Errorf("failed to mark entry syncing: %w", markErr)
		}

		// An entry queued behind an already confirmed mutation of the same
		// resource still believes the pre-drain version. Rebase it onto the
		// version the server just reported, otherwise the gate rejects a
		// change that raced nobody. This also covers updates queued behind an
		// offline create, whose believed version is still zero.
		if version, ok := confirmed[entry.ResourceID.String()]; ok {
			entry.ExpectedVersion = version
		}

		applyErr := s.apply(ctx, entry, confirmed, renamed)
		if applyErr == nil {
			continue
		}

		if errors.Is(applyErr, adapter.ErrUnauthorized) {
			log.Warn().Str("entry_id", entry.ID).Msg("session rejected, aborting drain pass")
			if failErr := s.queue.MarkFailed(ctx, entry.ID, applyErr.Error()); failErr != nil {
				return failErr
			}
			return nil
		}

		if s.isGateRejection(applyErr) {
			if conflictErr := s.handleRejection(ctx, entry, applyErr); conflictErr != nil {
				return conflictErr
			}
			blocked[entry.ResourceID.String()] = struct{}{}
			continue
		}

		log.Err(applyErr).
			Str("entry_id", entry.ID).
			Str("resource_id", entry.ResourceID.String()).
			Msg("entry failed on transient error")
		if failErr := s.queue.MarkFailed(ctx, entry.ID, applyErr.Error()); failErr != nil {
			return failErr
		}
		blocked[entry.ResourceID.String()] = struct{}{}

		// The failure may mean connectivity is gone. Let the monitor re-check
		// now so the next iteration observes the flip.
		s.monitor.Probe(ctx)
	}

	return nil
}

func (s *syncDriver) Status(ctx context.Context) (models.SyncStatus, error) {
	counts, err := s.queue.CountByStatus(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("failed to count queue entries: %w", err)
	}

	return models.SyncStatus{
		Online:    s.monitor.Online(),
		Draining:  s.draining.Load(),
		Pending:   counts[models.EntryPending] + counts[models.EntrySyncing],
		Failed:    counts[models.EntryFailed],
		Conflicts: s.resolver.Count(),
	}, nil
}

// SubscribeStatus registers a status listener. The channel is buffered with
// one slot; a slow consumer always observes the latest snapshot.
func (s *syncDriver) SubscribeStatus() <-chan models.SyncStatus {
	ch := make(chan models.SyncStatus, 1)

	s.subMu.Lock()
	s.subs[ch] = ch
	s.subMu.Unlock()

	return ch
}

func (s *syncDriver) UnsubscribeStatus(ch <-chan models.SyncStatus) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if sub, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(sub)
	}
}

// apply replays one entry against the server and settles the cache on
// success. The confirmed map records the fresh version per resource; the
// renamed map records temporary-to-assigned id substitutions.
func (s *syncDriver) apply(ctx context.Context, entry models.QueueEntry, confirmed map[string]int64, renamed map[string]models.EntityID) error {
	log := logger.FromContext(ctx)

	switch entry.Operation {
	case models.OpCreate:
		req := createRequestFromEntity(entry.Payload)

		var created models.Entity
		err := s.withCallRetry(ctx, func(ctx context.Context) error {
			var callErr error
			created, callErr = s.adapter.CreateEntity(ctx, req, entry.ID)
			return callErr
		})
		if err != nil {
			return err
		}

		if !entry.ResourceID.Equal(created.ID) {
			if err = s.substituteID(ctx, entry.ResourceID, created.ID); err != nil {
				return err
			}
			renamed[entry.ResourceID.String()] = created.ID
		}
		if err = s.cache.Put(ctx, created); err != nil {
			return fmt.Errorf("failed to cache created entity: %w", err)
		}
		confirmed[created.ID.String()] = created.Version

		log.Debug().
			Str("entry_id", entry.ID).
			Str("temp_id", entry.ResourceID.String()).
			Str("assigned_id", created.ID.String()).
			Msg("create confirmed")

		return s.queue.MarkSynced(ctx, entry.ID)

	case models.OpUpdate:
		req := updateRequestFromEntity(entry.Payload, entry.ExpectedVersion)

		var updated models.Entity
		err := s.withCallRetry(ctx, func(ctx context.Context) error {
			var callErr error
			updated, callErr = s.adapter.UpdateEntity(ctx, entry.ResourceID, req, entry.ID)
			return callErr
		})
		if err != nil {
			return err
		}

		if err = s.cache.Put(ctx, updated); err != nil {
			return fmt.Errorf("failed to cache updated entity: %w", err)
		}
		confirmed[entry.ResourceID.String()] = updated.Version

		return s.queue.MarkSynced(ctx, entry.ID)

	case models.OpDelete:
		err := s.withCallRetry(ctx, func(ctx context.Context) error {
			return s.adapter.DeleteEntity(ctx, entry.ResourceID, entry.ExpectedVersion, entry.ID)
		})
		if err != nil {
			return err
		}

		if err = s.cache.Remove(ctx, entry.ResourceID); err != nil {
			return fmt.Errorf("failed to drop deleted entity from cache: %w", err)
		}
		delete(confirmed, entry.ResourceID.String())

		return s.queue.MarkSynced(ctx, entry.ID)

	default:
		return fmt.Errorf("unknown queue operation %q (entry_id=%s)", entry.Operation, entry.ID)
	}
}

// substituteID swaps a temporary id for the server-assigned one in the cache
// and across every remaining queue entry. Children created offline under the
// temporary id follow through the parent_id rewrite.
func (s *syncDriver) substituteID(ctx context.Context, oldID, newID models.EntityID) error {
	if err := s.cache.Rekey(ctx, oldID, newID); err != nil {
		return fmt.Errorf("failed to rekey cached entity: %w", err)
	}
	if err := s.queue.RewriteResource(ctx, oldID, newID); err != nil {
		return fmt.Errorf("failed to rewrite queued references: %w", err)
	}

	return nil
}

// handleRejection settles a gate rejection: automatic rules fire in place,
// anything else lands in the resolver's registry and the entry is parked as
// FAILED until a decision arrives.
func (s *syncDriver) handleRejection(ctx context.Context, entry models.QueueEntry, cause error) error {
	log := logger.FromContext(ctx)

	var server *models.Entity
	var conflictErr *adapter.ConflictError
	if errors.As(cause, &conflictErr) {
		server = conflictErr.Current
	}

	var local *models.Entity
	if cached, err := s.cache.Get(ctx, entry.ResourceID); err == nil {
		entity := cached
		local = &entity
	}

	conflictType := s.resolver.Classify(entry, local, server)

	if strategy, ok := s.resolver.AutoStrategy(conflictType); ok {
		record := models.ConflictRecord{
			Entry:     entry,
			Local:     local,
			Server:    server,
			Type:      conflictType,
			Cause:     cause.Error(),
			CreatedAt: time.Now().UTC(),
		}

		log.Info().
			Str("entry_id", entry.ID).
			Str("resource_id", entry.ResourceID.String()).
			Str("type", string(conflictType)).
			Str("strategy", string(strategy)).
			Msg("auto-resolving conflict")

		if err := s.resolver.Apply(ctx, record, strategy); err != nil {
			return fmt.Errorf("failed to auto-resolve conflict: %w", err)
		}

		return nil
	}

	if _, err := s.resolver.Record(ctx, entry, local, server, cause.Error()); err != nil {
		return fmt.Errorf("failed to record conflict: %w", err)
	}

	return s.queue.MarkFailed(ctx, entry.ID, cause.Error())
}

// requeueDue moves FAILED entries whose backoff has elapsed back to PENDING
// and returns the ones that stay parked: entries with an open conflict
// record, entries past the retry cap, and entries whose backoff has not
// elapsed yet.
func (s *syncDriver) requeueDue(ctx context.Context) ([]models.QueueEntry, error) {
	log := logger.FromContext(ctx)

	failed, err := s.queue.ListFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed entries: %w", err)
	}

	now := time.Now().UTC()
	var parked []models.QueueEntry
	for _, entry := range failed {
		if s.resolver.HasConflictFor(entry.ID) {
			parked = append(parked, entry)
			continue
		}
		if entry.RetryCount > s.retryCap {
			parked = append(parked, entry)
			continue
		}
		if entry.LastAttempt != nil && now.Before(entry.LastAttempt.Add(s.backoffFor(entry.RetryCount))) {
			parked = append(parked, entry)
			continue
		}

		log.Debug().
			Str("entry_id", entry.ID).
			Int("retry_count", entry.RetryCount).
			Msg("requeueing failed entry")

		if requeueErr := s.queue.RequeueFailed(ctx, entry.ID); requeueErr != nil {
			return nil, fmt.Errorf("failed to requeue entry (id=%s): %w", entry.ID, requeueErr)
		}
	}

	return parked, nil
}

// backoffFor computes the exponential requeue delay for the given attempt
// count, bounded by the configured cap.
func (s *syncDriver) backoffFor(retryCount int) time.Duration {
	delay := s.backoffBase
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= s.backoffCap {
			return s.backoffCap
		}
	}
	if delay > s.backoffCap {
		return s.backoffCap
	}

	return delay
}

// withCallRetry retries one remote call on transient failures with a short
// exponential backoff. Gate rejections and client errors pass through
// untouched.
func (s *syncDriver) withCallRetry(ctx context.Context, call func(context.Context) error) error {
	backoff := retry.WithMaxRetries(inCallRetries, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := call(ctx)
		if err == nil {
			return nil
		}
		if s.isRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// isRetryable treats everything except the well-known client-side rejections
// as transient: gateway failures, 5xx responses, and raw network errors.
func (s *syncDriver) isRetryable(err error) bool {
	switch {
	case errors.Is(err, adapter.ErrBadRequest),
		errors.Is(err, adapter.ErrUnauthorized),
		errors.Is(err, adapter.ErrForbidden),
		errors.Is(err, adapter.ErrNotFound),
		errors.Is(err, adapter.ErrVersionConflict):
		return false
	default:
		return true
	}
}

// isGateRejection reports whether the error is a concurrency-gate outcome
// that must flow into conflict handling rather than the retry path.
func (s *syncDriver) isGateRejection(err error) bool {
	return errors.Is(err, adapter.ErrVersionConflict) || errors.Is(err, adapter.ErrNotFound)
}

// isBlocked reports whether the entry must wait: its own resource, or the
// parent it references, has an earlier entry still unresolved.
func (s *syncDriver) isBlocked(blocked map[string]struct{}, entry models.QueueEntry) bool {
	if _, ok := blocked[entry.ResourceID.String()]; ok {
		return true
	}
	if entry.ParentID != nil {
		if _, ok := blocked[entry.ParentID.String()]; ok {
			return true
		}
	}

	return false
}

// applyRenames rewrites an entry's resource and parent references through the
// substitutions confirmed earlier in the same pass. The queue rows were
// already rewritten by substituteID; this covers the snapshot listed before
// the substitution happened.
func applyRenames(renamed map[string]models.EntityID, entry models.QueueEntry) models.QueueEntry {
	if newID, ok := renamed[entry.ResourceID.String()]; ok {
		entry.ResourceID = newID
		entry.Payload.ID = newID
	}
	if entry.ParentID != nil {
		if newID, ok := renamed[entry.ParentID.String()]; ok {
			parent := newID
			entry.ParentID = &parent
			entry.Payload.ParentID = &parent
		}
	}

	return entry
}

// broadcast pushes a fresh status snapshot to every subscriber, replacing an
// unread older snapshot.
func (s *syncDriver) broadcast(ctx context.Context) {
	status, err := s.Status(ctx)
	if err != nil {
		s.logger.Err(err).Msg("failed to assemble sync status")
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subs {
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- status:
		default:
		}
	}
}

func createRequestFromEntity(entity models.Entity) models.CreateRequest {
	return models.CreateRequest{
		Kind:        entity.Kind,
		ParentID:    entity.ParentID,
		Name:        entity.Name,
		Description: entity.Description,
		Completed:   entity.Completed,
		Quantity:    entity.Quantity,
		Position:    entity.Position,
		Color:       entity.Color,
		Icon:        entity.Icon,
	}
}

func updateRequestFromEntity(entity models.Entity, expectedVersion int64) models.UpdateRequest {
	return models.UpdateRequest{
		Name:        entity.Name,
		Description: entity.Description,
		Completed:   entity.Completed,
		Quantity:    entity.Quantity,
		Position:    entity.Position,
		Color:       entity.Color,
		Icon:        entity.Icon,
		Version:     expectedVersion,
	}
}

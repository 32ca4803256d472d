// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"testing"
	"time"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/mock"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestResolver(t *testing.T, ctrl *gomock.Controller) (ConflictResolver, *mock.MockEntityCache, *mock.MockMutationQueue) {
	t.Helper()

	mockCache := mock.NewMockEntityCache(ctrl)
	mockQueue := mock.NewMockMutationQueue(ctrl)
	localStore := &store.ClientStorages{
		EntityCache:   mockCache,
		MutationQueue: mockQueue,
	}

	return NewConflictResolver(localStore, logger.Nop()), mockCache, mockQueue
}

func TestConflictResolver_Classify(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, _ := newTestResolver(t, ctrl)

	id := models.AssignedID("list-1")
	base := models.Entity{ID: id, Kind: models.KindList, Name: "Groceries", Version: 3}

	t.Run("server gone means deleted", func(t *testing.T) {
		entry := models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpUpdate, Payload: base}
		assert.Equal(t, models.ConflictDeleted, resolver.Classify(entry, &base, nil))
	})

	t.Run("equal comparable fields means version mismatch", func(t *testing.T) {
		server := base
		server.Version = 7
		server.UpdatedBy = "laptop"
		entry := models.QueueEntry{ID: "e2", ResourceID: id, Operation: models.OpUpdate, Payload: base}
		assert.Equal(t, models.ConflictVersionMismatch, resolver.Classify(entry, &base, &server))
	})

	t.Run("diverged content means modified", func(t *testing.T) {
		server := base
		server.Name = "Weekend groceries"
		server.Version = 7
		entry := models.QueueEntry{ID: "e3", ResourceID: id, Operation: models.OpUpdate, Payload: base}
		assert.Equal(t, models.ConflictModified, resolver.Classify(entry, &base, &server))
	})

	t.Run("delete entry falls back to local snapshot", func(t *testing.T) {
		server := base
		server.Version = 7
		entry := models.QueueEntry{ID: "e4", ResourceID: id, Operation: models.OpDelete}
		assert.Equal(t, models.ConflictVersionMismatch, resolver.Classify(entry, &base, &server))
	})
}

func TestConflictResolver_AutoStrategy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, _ := newTestResolver(t, ctrl)

	strategy, ok := resolver.AutoStrategy(models.ConflictVersionMismatch)
	assert.True(t, ok)
	assert.Equal(t, models.ResolveMerge, strategy)

	strategy, ok = resolver.AutoStrategy(models.ConflictDeleted)
	assert.True(t, ok)
	assert.Equal(t, models.ResolveUseServer, strategy)

	_, ok = resolver.AutoStrategy(models.ConflictModified)
	assert.False(t, ok, "content divergence always needs an explicit decision")
}

func TestConflictResolver_RecordAndResolve_UseServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, mockCache, mockQueue := newTestResolver(t, ctrl)
	ctx := context.Background()

	id := models.AssignedID("list-1")
	local := models.Entity{ID: id, Name: "Groceries", Version: 3}
	server := models.Entity{ID: id, Name: "Weekend groceries", Version: 7}
	entry := models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpUpdate, Payload: local, ExpectedVersion: 3}

	record, err := resolver.Record(ctx, entry, &local, &server, "version conflict")
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.ConflictModified, record.Type)
	assert.Equal(t, 1, resolver.Count())
	assert.True(t, resolver.HasConflictFor("e1"))

	select {
	case <-resolver.Changes():
	default:
		t.Fatal("record must signal a registry change")
	}

	mockCache.EXPECT().Put(ctx, server).Return(nil)
	mockQueue.EXPECT().Remove(ctx, "e1").Return(nil)

	require.NoError(t, resolver.Resolve(ctx, record.ID, models.ResolveUseServer))
	assert.Equal(t, 0, resolver.Count())
	assert.False(t, resolver.HasConflictFor("e1"))
}

func TestConflictResolver_Resolve_UnknownConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, _ := newTestResolver(t, ctrl)

	err := resolver.Resolve(context.Background(), "no-such-conflict", models.ResolveCancel)
	assert.ErrorIs(t, err, ErrConflictNotFound)
}

func TestConflictResolver_Apply_UnknownStrategy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, _ := newTestResolver(t, ctrl)

	err := resolver.Apply(context.Background(), models.ConflictRecord{}, "flip-a-coin")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestConflictResolver_Apply_UseServer_DeletedRemotely(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, mockCache, mockQueue := newTestResolver(t, ctrl)
	ctx := context.Background()

	id := models.AssignedID("list-1")
	record := models.ConflictRecord{
		Entry: models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpUpdate},
		Type:  models.ConflictDeleted,
	}

	mockCache.EXPECT().Remove(ctx, id).Return(nil)
	mockQueue.EXPECT().Remove(ctx, "e1").Return(nil)

	assert.NoError(t, resolver.Apply(ctx, record, models.ResolveUseServer))
}

func TestConflictResolver_Apply_UseLocal_Rebases(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, mockQueue := newTestResolver(t, ctrl)
	ctx := context.Background()

	id := models.AssignedID("list-1")
	local := models.Entity{ID: id, Name: "Groceries", Version: 3}
	server := models.Entity{ID: id, Name: "Weekend groceries", Version: 7}
	record := models.ConflictRecord{
		Entry:  models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpUpdate, Payload: local, ExpectedVersion: 3},
		Local:  &local,
		Server: &server,
		Type:   models.ConflictModified,
	}

	mockQueue.EXPECT().Remove(ctx, "e1").Return(nil)
	mockQueue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry models.QueueEntry) (models.QueueEntry, error) {
			assert.Equal(t, models.OpUpdate, entry.Operation)
			assert.Equal(t, int64(7), entry.ExpectedVersion, "rebased entry targets the server's current version")
			assert.Equal(t, "Groceries", entry.Payload.Name)
			return entry, nil
		},
	)

	assert.NoError(t, resolver.Apply(ctx, record, models.ResolveUseLocal))
}

func TestConflictResolver_Apply_UseLocal_UpdateBecomesCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, mockQueue := newTestResolver(t, ctrl)
	ctx := context.Background()

	id := models.AssignedID("list-1")
	local := models.Entity{ID: id, Name: "Groceries", Version: 3}
	record := models.ConflictRecord{
		Entry: models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpUpdate, Payload: local, ExpectedVersion: 3},
		Local: &local,
		Type:  models.ConflictDeleted,
	}

	mockQueue.EXPECT().Remove(ctx, "e1").Return(nil)
	mockQueue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry models.QueueEntry) (models.QueueEntry, error) {
			assert.Equal(t, models.OpCreate, entry.Operation, "update of a remotely deleted resource rebases to a create")
			assert.Equal(t, int64(0), entry.ExpectedVersion)
			return entry, nil
		},
	)

	assert.NoError(t, resolver.Apply(ctx, record, models.ResolveUseLocal))
}

func TestConflictResolver_Apply_UseLocal_DeleteOfDeleted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, mockQueue := newTestResolver(t, ctrl)
	ctx := context.Background()

	id := models.AssignedID("list-1")
	record := models.ConflictRecord{
		Entry: models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpDelete, ExpectedVersion: 3},
		Type:  models.ConflictDeleted,
	}

	// nothing to requeue: the delete already happened remotely
	mockQueue.EXPECT().Remove(ctx, "e1").Return(nil)

	assert.NoError(t, resolver.Apply(ctx, record, models.ResolveUseLocal))
}

func TestConflictResolver_Apply_Merge_LocalNewerWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, mockCache, mockQueue := newTestResolver(t, ctrl)
	ctx := context.Background()

	id := models.AssignedID("item-1")
	older := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	local := models.Entity{ID: id, Name: "Milk 2L", Quantity: 2, Version: 3, UpdatedAt: newer, UpdatedBy: "phone"}
	server := models.Entity{ID: id, Name: "Milk", Quantity: 1, Version: 7, UpdatedAt: older, UpdatedBy: "laptop"}
	record := models.ConflictRecord{
		Entry:  models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpUpdate, Payload: local, ExpectedVersion: 3},
		Local:  &local,
		Server: &server,
		Type:   models.ConflictVersionMismatch,
	}

	mockCache.EXPECT().Put(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, merged models.Entity) error {
			assert.Equal(t, "Milk 2L", merged.Name, "later UpdatedAt wins the mutable fields")
			assert.Equal(t, int64(2), merged.Quantity)
			assert.Equal(t, int64(7), merged.Version, "server version is the new baseline")
			assert.Equal(t, "laptop", merged.UpdatedBy, "server audit fields are the new baseline even when local fields win")
			assert.Equal(t, older, merged.UpdatedAt)
			return nil
		},
	)
	mockQueue.EXPECT().Remove(ctx, "e1").Return(nil)
	mockQueue.EXPECT().Enqueue(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, entry models.QueueEntry) (models.QueueEntry, error) {
			assert.Equal(t, models.OpUpdate, entry.Operation)
			assert.Equal(t, int64(7), entry.ExpectedVersion)
			return entry, nil
		},
	)

	assert.NoError(t, resolver.Apply(ctx, record, models.ResolveMerge))
}

func TestConflictResolver_Apply_Merge_ServerNewerWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, mockCache, mockQueue := newTestResolver(t, ctrl)
	ctx := context.Background()

	id := models.AssignedID("item-1")
	older := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	local := models.Entity{ID: id, Name: "Milk 2L", Version: 3, UpdatedAt: older, UpdatedBy: "phone"}
	server := models.Entity{ID: id, Name: "Oat milk", Version: 7, UpdatedAt: newer, UpdatedBy: "laptop"}
	record := models.ConflictRecord{
		Entry:  models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpUpdate, Payload: local, ExpectedVersion: 3},
		Local:  &local,
		Server: &server,
		Type:   models.ConflictVersionMismatch,
	}

	mockCache.EXPECT().Put(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, merged models.Entity) error {
			assert.Equal(t, "Oat milk", merged.Name)
			assert.Equal(t, "laptop", merged.UpdatedBy)
			return nil
		},
	)
	mockQueue.EXPECT().Remove(ctx, "e1").Return(nil)
	mockQueue.EXPECT().Enqueue(ctx, gomock.Any()).Return(models.QueueEntry{}, nil)

	assert.NoError(t, resolver.Apply(ctx, record, models.ResolveMerge))
}

func TestConflictResolver_Apply_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, mockQueue := newTestResolver(t, ctrl)
	ctx := context.Background()

	record := models.ConflictRecord{
		Entry: models.QueueEntry{ID: "e1", ResourceID: models.AssignedID("list-1"), Operation: models.OpUpdate},
	}

	mockQueue.EXPECT().Remove(ctx, "e1").Return(nil)

	assert.NoError(t, resolver.Apply(ctx, record, models.ResolveCancel))
}

func TestConflictResolver_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver, _, _ := newTestResolver(t, ctrl)
	ctx := context.Background()

	id := models.AssignedID("list-1")
	entry := models.QueueEntry{ID: "e1", ResourceID: id, Operation: models.OpUpdate, Payload: models.Entity{ID: id, Name: "Groceries"}}
	server := models.Entity{ID: id, Name: "Weekend groceries", Version: 7}

	_, err := resolver.Record(ctx, entry, nil, &server, "version conflict")
	require.NoError(t, err)

	records := resolver.List(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, "e1", records[0].Entry.ID)
}

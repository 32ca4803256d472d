// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-list-keeper/internal/config"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/internal/validators"
	"github.com/MKhiriev/go-list-keeper/models"
)

type mutationService struct {
	cache     store.EntityCache
	queue     store.MutationQueue
	validator validators.Validator

	// deviceName is stamped into UpdatedBy of every local mutation.
	deviceName string

	logger *logger.Logger
}

// NewMutationService constructs the client write API over the entity cache
// and the durable mutation queue.
func NewMutationService(localStore *store.ClientStorages, validator validators.Validator, cfg config.ClientApp, logger *logger.Logger) MutationService {
	return &mutationService{
		cache:      localStore.EntityCache,
		queue:      localStore.MutationQueue,
		validator:  validator,
		deviceName: cfg.DeviceName,
		logger:     logger,
	}
}

func (s *mutationService) Get(ctx context.Context, id models.EntityID) (models.Entity, error) {
	return s.cache.Get(ctx, id)
}

func (s *mutationService) Lists(ctx context.Context) ([]models.Entity, error) {
	return s.cache.GetAllByKind(ctx, models.KindList)
}

func (s *mutationService) Items(ctx context.Context, listID models.EntityID) ([]models.Entity, error) {
	return s.cache.GetAllByParent(ctx, listID)
}

// Create writes the entity to the cache under a freshly minted temporary id
// and queues a CREATE. The version stays 0 until the server confirms: the
// authoritative counter starts at 1 on the server side.
func (s *mutationService) Create(ctx context.Context, req models.CreateRequest) (models.Entity, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Err(err).Msg("create request failed validation")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	now := time.Now().UTC()
	entity := models.Entity{
		ID:          models.NewTemporaryID(),
		Kind:        req.Kind,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		Completed:   req.Completed,
		Quantity:    req.Quantity,
		Position:    req.Position,
		Color:       req.Color,
		Icon:        req.Icon,
		CreatedAt:   now,
		UpdatedAt:   now,
		UpdatedBy:   s.deviceName,
	}

	if err := s.cache.Put(ctx, entity); err != nil {
		log.Err(err).Str("id", entity.ID.String()).Msg("optimistic create write failed")
		return models.Entity{}, fmt.Errorf("optimistic create write failed: %w", err)
	}

	entry := models.QueueEntry{
		Operation:  models.OpCreate,
		Kind:       entity.Kind,
		ResourceID: entity.ID,
		ParentID:   entity.ParentID,
		Payload:    entity,
	}
	if _, err := s.queue.Enqueue(ctx, entry); err != nil {
		log.Err(err).Str("id", entity.ID.String()).Msg("failed to queue create")
		return models.Entity{}, fmt.Errorf("failed to queue create: %w", err)
	}

	log.Debug().
		Str("id", entity.ID.String()).
		Str("kind", string(entity.Kind)).
		Msg("create recorded")

	return entity, nil
}

func (s *mutationService) Update(ctx context.Context, id models.EntityID, req models.UpdateRequest) (models.Entity, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Err(err).Str("id", id.String()).Msg("update request failed validation")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	if err := s.guardPendingDelete(ctx, id); err != nil {
		return models.Entity{}, err
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		log.Err(err).Str("id", id.String()).Msg("update target not cached")
		return models.Entity{}, fmt.Errorf("update target not cached: %w", err)
	}

	entity := cached
	entity.Name = req.Name
	entity.Description = req.Description
	entity.Completed = req.Completed
	entity.Quantity = req.Quantity
	entity.Position = req.Position
	entity.Color = req.Color
	entity.Icon = req.Icon
	entity.UpdatedAt = time.Now().UTC()
	entity.UpdatedBy = s.deviceName

	if err = s.cache.Put(ctx, entity); err != nil {
		log.Err(err).Str("id", id.String()).Msg("optimistic update write failed")
		return models.Entity{}, fmt.Errorf("optimistic update write failed: %w", err)
	}

	entry := models.QueueEntry{
		Operation:       models.OpUpdate,
		Kind:            entity.Kind,
		ResourceID:      entity.ID,
		ParentID:        entity.ParentID,
		Payload:         entity,
		ExpectedVersion: cached.Version,
	}
	if _, err = s.queue.Enqueue(ctx, entry); err != nil {
		log.Err(err).Str("id", id.String()).Msg("failed to queue update")
		return models.Entity{}, fmt.Errorf("failed to queue update: %w", err)
	}

	return entity, nil
}

// Delete drops the entity from the cache and queues a DELETE guarded by the
// last cached version. DELETE is terminal: once queued, further mutations for
// the id are rejected until the queue drains.
func (s *mutationService) Delete(ctx context.Context, id models.EntityID) error {
	log := logger.FromContext(ctx)

	if err := s.guardPendingDelete(ctx, id); err != nil {
		return err
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		log.Err(err).Str("id", id.String()).Msg("delete target not cached")
		return fmt.Errorf("delete target not cached: %w", err)
	}

	if err = s.cache.Remove(ctx, id); err != nil {
		log.Err(err).Str("id", id.String()).Msg("optimistic delete write failed")
		return fmt.Errorf("optimistic delete write failed: %w", err)
	}

	entry := models.QueueEntry{
		Operation:       models.OpDelete,
		Kind:            cached.Kind,
		ResourceID:      id,
		ParentID:        cached.ParentID,
		ExpectedVersion: cached.Version,
	}
	if _, err = s.queue.Enqueue(ctx, entry); err != nil {
		log.Err(err).Str("id", id.String()).Msg("failed to queue delete")
		return fmt.Errorf("failed to queue delete: %w", err)
	}

	log.Debug().Str("id", id.String()).Msg("delete recorded")

	return nil
}

// Reorder applies the new positions to the cache and queues one UPDATE per
// moved item. Positions travel through the regular update path, so the queue
// stays a flat CREATE/UPDATE/DELETE log.
func (s *mutationService) Reorder(ctx context.Context, req models.ReorderRequest) error {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Err(err).Msg("reorder request failed validation")
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	for _, pos := range req.Positions {
		cached, err := s.cache.Get(ctx, pos.ID)
		if err != nil {
			log.Err(err).Str("id", pos.ID.String()).Msg("reorder target not cached")
			return fmt.Errorf("reorder target not cached: %w", err)
		}

		if cached.Position == pos.Position {
			continue
		}

		entity := cached
		entity.Position = pos.Position
		entity.UpdatedAt = time.Now().UTC()
		entity.UpdatedBy = s.deviceName

		if err = s.cache.Put(ctx, entity); err != nil {
			log.Err(err).Str("id", pos.ID.String()).Msg("optimistic reorder write failed")
			return fmt.Errorf("optimistic reorder write failed: %w", err)
		}

		entry := models.QueueEntry{
			Operation:       models.OpUpdate,
			Kind:            entity.Kind,
			ResourceID:      entity.ID,
			ParentID:        entity.ParentID,
			Payload:         entity,
			ExpectedVersion: cached.Version,
		}
		if _, err = s.queue.Enqueue(ctx, entry); err != nil {
			log.Err(err).Str("id", pos.ID.String()).Msg("failed to queue reorder update")
			return fmt.Errorf("failed to queue reorder update: %w", err)
		}
	}

	return nil
}

func (s *mutationService) guardPendingDelete(ctx context.Context, id models.EntityID) error {
	pendingDelete, err := s.queue.HasPendingDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check pending deletes: %w", err)
	}
	if pendingDelete {
		return fmt.Errorf("%w (id=%s)", ErrResourceDeleteQueued, id.String())
	}

	return nil
}

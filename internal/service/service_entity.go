// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/internal/utils"
	"github.com/MKhiriev/go-list-keeper/internal/validators"
	"github.com/MKhiriev/go-list-keeper/models"
)

// Bulk outcome statuses reported per target.
const (
	BulkOutcomeOK       = "ok"
	BulkOutcomeConflict = "conflict"
	BulkOutcomeNotFound = "not_found"
)

// defaultIcons is the static catalog served to onboarding clients. The set is
// fixed per release; clients treat unknown icon names as the generic glyph.
var defaultIcons = []string{
	"list", "cart", "checkbox", "star", "heart", "home", "work",
	"gift", "book", "travel", "food", "health", "money", "tools",
}

type entityService struct {
	entityRepository store.EntityRepository
	validator        validators.Validator
	uuid             *utils.UUIDGenerator

	logger *logger.Logger
}

// NewEntityService constructs the server-side entity business layer.
func NewEntityService(entityRepository store.EntityRepository, validator validators.Validator, logger *logger.Logger) EntityService {
	return &entityService{
		entityRepository: entityRepository,
		validator:        validator,
		uuid:             utils.NewUUIDGenerator(),
		logger:           logger,
	}
}

func (s *entityService) CreateEntity(ctx context.Context, userID int64, req models.CreateRequest, idempotencyKey, updatedBy string) (models.Entity, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Err(err).Msg("create request failed validation")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	entity := models.Entity{
		ID:          models.AssignedID(s.uuid.Generate()),
		Kind:        req.Kind,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		Completed:   req.Completed,
		Quantity:    req.Quantity,
		Position:    req.Position,
		Color:       req.Color,
		Icon:        req.Icon,
		UpdatedBy:   updatedBy,
	}

	created, err := s.entityRepository.CreateEntity(ctx, userID, entity, idempotencyKey)
	if err != nil {
		log.Err(err).
			Int64("userID", userID).
			Str("kind", string(req.Kind)).
			Msg("entity creation ended with error")
		return models.Entity{}, fmt.Errorf("entity creation ended with error: %w", err)
	}

	return created, nil
}

func (s *entityService) GetEntity(ctx context.Context, userID int64, id models.EntityID) (models.Entity, error) {
	entity, err := s.entityRepository.GetEntity(ctx, userID, id)
	if err != nil {
		return models.Entity{}, fmt.Errorf("entity lookup ended with error: %w", err)
	}

	return entity, nil
}

func (s *entityService) ListEntities(ctx context.Context, userID int64, filter store.EntityFilter) ([]models.Entity, error) {
	entities, err := s.entityRepository.ListEntities(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("entity listing ended with error: %w", err)
	}

	return entities, nil
}

func (s *entityService) UpdateEntity(ctx context.Context, userID int64, id models.EntityID, req models.UpdateRequest, updatedBy string) (models.Entity, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Err(err).Str("id", id.String()).Msg("update request failed validation")
		return models.Entity{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	updated, err := s.entityRepository.UpdateEntity(ctx, userID, id, req, updatedBy)
	if err != nil {
		log.Err(err).
			Int64("userID", userID).
			Str("id", id.String()).
			Int64("version", req.Version).
			Msg("entity update ended with error")
		return models.Entity{}, fmt.Errorf("entity update ended with error: %w", err)
	}

	return updated, nil
}

// DeleteEntity archives the entity under the version guard. A target that is
// already absent reports success so that a replayed DELETE never wedges the
// issuing client's queue.
func (s *entityService) DeleteEntity(ctx context.Context, userID int64, id models.EntityID, version int64, updatedBy string) error {
	log := logger.FromContext(ctx)

	if version < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, validators.ErrInvalidVersion)
	}

	err := s.entityRepository.DeleteEntity(ctx, userID, id, version, updatedBy)
	if errors.Is(err, store.ErrEntityNotFound) {
		log.Debug().Str("id", id.String()).Msg("delete target already absent")
		return nil
	}
	if err != nil {
		log.Err(err).
			Int64("userID", userID).
			Str("id", id.String()).
			Int64("version", version).
			Msg("entity delete ended with error")
		return fmt.Errorf("entity delete ended with error: %w", err)
	}

	return nil
}

func (s *entityService) BulkComplete(ctx context.Context, userID int64, req models.BulkCompleteRequest, updatedBy string) (models.BulkResponse, error) {
	if err := s.validator.Validate(ctx, req); err != nil {
		return models.BulkResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	return s.applyBulk(ctx, userID, req.Targets, func(target models.BulkTarget) (models.Entity, error) {
		return s.entityRepository.SetCompleted(ctx, userID, target.ID, req.Completed, target.Version, updatedBy)
	})
}

func (s *entityService) BulkDelete(ctx context.Context, userID int64, req models.BulkDeleteRequest, updatedBy string) (models.BulkResponse, error) {
	if err := s.validator.Validate(ctx, req); err != nil {
		return models.BulkResponse{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	return s.applyBulk(ctx, userID, req.Targets, func(target models.BulkTarget) (models.Entity, error) {
		err := s.entityRepository.DeleteEntity(ctx, userID, target.ID, target.Version, updatedBy)
		return models.Entity{}, err
	})
}

// applyBulk runs one version-guarded write per target and folds the results
// into per-target outcomes. Version conflicts and missing targets are
// outcomes, not errors; anything else aborts the batch.
func (s *entityService) applyBulk(ctx context.Context, userID int64, targets []models.BulkTarget, apply func(models.BulkTarget) (models.Entity, error)) (models.BulkResponse, error) {
	log := logger.FromContext(ctx)

	outcomes := make([]models.BulkOutcome, 0, len(targets))
	for _, target := range targets {
		applied, err := apply(target)
		switch {
		case err == nil:
			outcome := models.BulkOutcome{ID: target.ID, Status: BulkOutcomeOK}
			if !applied.ID.IsZero() {
				entity := applied
				outcome.Current = &entity
			}
			outcomes = append(outcomes, outcome)

		case errors.Is(err, store.ErrEntityNotFound):
			log.Debug().Str("id", target.ID.String()).Msg("bulk target not found")
			outcomes = append(outcomes, models.BulkOutcome{ID: target.ID, Status: BulkOutcomeNotFound})

		case errors.Is(err, store.ErrVersionConflict):
			log.Debug().
				Str("id", target.ID.String()).
				Int64("version", target.Version).
				Msg("bulk target version conflict")
			outcome := models.BulkOutcome{ID: target.ID, Status: BulkOutcomeConflict}
			if current, getErr := s.entityRepository.GetEntity(ctx, userID, target.ID); getErr == nil {
				outcome.Current = &current
			}
			outcomes = append(outcomes, outcome)

		default:
			log.Err(err).Str("id", target.ID.String()).Msg("bulk operation ended with error")
			return models.BulkResponse{}, fmt.Errorf("bulk operation ended with error: %w", err)
		}
	}

	return models.BulkResponse{Outcomes: outcomes, Length: len(outcomes)}, nil
}

func (s *entityService) Reorder(ctx context.Context, userID int64, req models.ReorderRequest) error {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Err(err).Msg("reorder request failed validation")
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	if err := s.entityRepository.Reorder(ctx, userID, req.Positions); err != nil {
		log.Err(err).Int64("userID", userID).Msg("reorder ended with error")
		return fmt.Errorf("reorder ended with error: %w", err)
	}

	return nil
}

func (s *entityService) Icons(_ context.Context) models.IconsResponse {
	icons := make([]string, len(defaultIcons))
	copy(icons, defaultIcons)

	return models.IconsResponse{Icons: icons, Length: len(icons)}
}

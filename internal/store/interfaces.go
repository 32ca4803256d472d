package store

import (
	"context"

	"github.com/MKhiriev/go-list-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// ErrorClassificator decides whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// UserRepository persists user accounts on the server.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// EntityFilter narrows [EntityRepository.ListEntities] results. Nil pointer
// fields are not applied.
type EntityFilter struct {
	Kind            *models.ResourceKind
	ParentID        *models.EntityID
	Completed       *bool
	IncludeArchived bool
}

// EntityRepository is the server-side store of lists and items. It is the
// sole enforcement point of the optimistic-concurrency contract: every
// version-guarded method performs an atomic conditional write keyed on
// (id, version) and distinguishes "resource absent" ([ErrEntityNotFound])
// from "resource present with a different version" ([ErrVersionConflict]).
type EntityRepository interface {
	// CreateEntity inserts a new entity with version 1. The idempotencyKey,
	// when non-empty, guards against duplicate replays of the same queued
	// CREATE: a second insert with the same key returns the entity stored by
	// the first one.
	CreateEntity(ctx context.Context, userID int64, entity models.Entity, idempotencyKey string) (models.Entity, error)

	GetEntity(ctx context.Context, userID int64, id models.EntityID) (models.Entity, error)
	ListEntities(ctx context.Context, userID int64, filter EntityFilter) ([]models.Entity, error)

	// UpdateEntity applies the full mutable field set if and only if the
	// stored version equals expectedVersion. On success the stored version is
	// incremented by exactly 1 and the fresh entity is returned.
	UpdateEntity(ctx context.Context, userID int64, id models.EntityID, update models.UpdateRequest, updatedBy string) (models.Entity, error)

	// DeleteEntity soft-deletes (archives) the entity under the same
	// version guard as UpdateEntity.
	DeleteEntity(ctx context.Context, userID int64, id models.EntityID, expectedVersion int64, updatedBy string) error

	// SetCompleted flips the completion flag under the version guard; used by
	// the bulk-complete operation, one conditional write per target.
	SetCompleted(ctx context.Context, userID int64, id models.EntityID, completed bool, expectedVersion int64, updatedBy string) (models.Entity, error)

	// Reorder rewrites item positions last-write-wins, with NO version
	// guard. A concurrent reorder can silently clobber this one; the gap is
	// inherited behaviour, kept deliberately (see DESIGN.md).
	Reorder(ctx context.Context, userID int64, positions []models.ReorderPosition) error
}

package service

import (
	"context"

	"github.com/MKhiriev/go-list-keeper/internal/store"
	"github.com/MKhiriev/go-list-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthService handles user registration, credential verification, and JWT
// token lifecycle on the server.
type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// EntityService is the server-side business layer over the entity store. All
// version-guarded semantics live in the repository; this layer adds input
// validation, id assignment, and the per-target fan-out of bulk operations.
type EntityService interface {
	// CreateEntity validates the request, assigns a definitive id, and
	// persists the entity at version 1. The idempotencyKey, when non-empty,
	// makes replays of the same queued CREATE return the original row.
	CreateEntity(ctx context.Context, userID int64, req models.CreateRequest, idempotencyKey, updatedBy string) (models.Entity, error)

	GetEntity(ctx context.Context, userID int64, id models.EntityID) (models.Entity, error)
	ListEntities(ctx context.Context, userID int64, filter store.EntityFilter) ([]models.Entity, error)

	UpdateEntity(ctx context.Context, userID int64, id models.EntityID, req models.UpdateRequest, updatedBy string) (models.Entity, error)

	// DeleteEntity archives the entity under the version guard. Deleting a
	// resource that is already absent reports success: the queued DELETE that
	// raced a server-side removal must not wedge a client's queue.
	DeleteEntity(ctx context.Context, userID int64, id models.EntityID, version int64, updatedBy string) error

	// BulkComplete flips the completion flag on each target under its own
	// version guard and reports a per-target outcome. A single rejected
	// target never aborts the rest of the batch.
	BulkComplete(ctx context.Context, userID int64, req models.BulkCompleteRequest, updatedBy string) (models.BulkResponse, error)

	// BulkDelete archives each target under its own version guard with the
	// same per-target outcome reporting as BulkComplete.
	BulkDelete(ctx context.Context, userID int64, req models.BulkDeleteRequest, updatedBy string) (models.BulkResponse, error)

	// Reorder rewrites item positions last-write-wins, without a version
	// guard.
	Reorder(ctx context.Context, userID int64, req models.ReorderRequest) error

	// Icons returns the static icon catalog served to onboarding clients.
	Icons(ctx context.Context) models.IconsResponse
}

// AppInfoService exposes build metadata of the running application.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating
// with the go-list-keeper server.
//
// The primary abstraction is [ServerAdapter], which decouples the sync driver
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPServerAdapter]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrVersionConflict] for 409, [ErrUnauthorized] for
// 401). A 409 additionally carries the server's current entity snapshot via
// [ConflictError].
package adapter

import (
	"context"

	"github.com/MKhiriev/go-list-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the
// go-list-keeper server. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors to the
// sentinel values defined in this package.
//
// The idempotencyKey parameter of the mutating methods is the queue-entry id
// of the operation being drained; the server uses it to de-duplicate replays
// of the same mutation.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all subsequent
	// authenticated requests. It should be called immediately after a
	// successful Register or Login.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Register sends a registration request with the provided credentials. On
	// success it stores the returned bearer token via SetToken and returns the
	// created account.
	Register(ctx context.Context, user models.User) (models.User, error)

	// Login authenticates the user. On success it stores the returned bearer
	// token via SetToken and returns the server-side account record.
	Login(ctx context.Context, user models.User) (models.User, error)

	// Ping probes the health endpoint. A nil return means the service
	// answered; any error means it is unreachable or unhealthy. Used by the
	// network monitor, never for data.
	Ping(ctx context.Context) error

	// CreateEntity submits a new entity. The server assigns the definitive id
	// and returns the stored row with version 1. A replay carrying the same
	// idempotencyKey returns the row stored by the first attempt.
	CreateEntity(ctx context.Context, req models.CreateRequest, idempotencyKey string) (models.Entity, error)

	// UpdateEntity submits the full mutable field set guarded by
	// req.Version. Returns the fresh entity on success, or a [ConflictError]
	// carrying the server's current snapshot when the guard rejects.
	UpdateEntity(ctx context.Context, id models.EntityID, req models.UpdateRequest, idempotencyKey string) (models.Entity, error)

	// DeleteEntity soft-deletes the entity guarded by version. Deleting an
	// already-absent resource succeeds.
	DeleteEntity(ctx context.Context, id models.EntityID, version int64, idempotencyKey string) error

	// GetEntity fetches the server's current snapshot of one entity.
	GetEntity(ctx context.Context, id models.EntityID) (models.Entity, error)

	// ListEntities fetches every live entity of the account, used to hydrate
	// the local cache after login.
	ListEntities(ctx context.Context) ([]models.Entity, error)
}

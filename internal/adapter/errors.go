package adapter

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-list-keeper/models"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("resource not found")
	ErrVersionConflict     = errors.New("version conflict")
	ErrBadGateway          = errors.New("bad gateway")
	ErrInternalServerError = errors.New("internal server error")
)

// ConflictError is returned on HTTP 409. Besides signalling the rejection it
// carries the server's current snapshot of the entity, which the conflict
// classifier needs to decide between "modified" and "version mismatch"
// without an extra round trip.
//
// Current is nil when the response body carried no snapshot (the resource
// was archived between the conditional write and the snapshot read).
type ConflictError struct {
	Message string
	Current *models.Entity
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return ErrVersionConflict.Error()
	}
	return fmt.Sprintf("%v: %s", ErrVersionConflict, e.Message)
}

// Unwrap makes errors.Is(err, ErrVersionConflict) hold for every conflict.
func (e *ConflictError) Unwrap() error {
	return ErrVersionConflict
}

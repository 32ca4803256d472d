package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrWrongPassword       = errors.New("wrong password")

	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")

	ErrVersionIsNotSpecified = errors.New("app version is not specified")
)

// Client-side sentinels. They surface queue and resolver states the
// presentation layer must distinguish from transport failures.
var (
	// ErrResourceDeleteQueued rejects a mutation for a resource that already
	// has a DELETE waiting in the queue. A queued DELETE is terminal.
	ErrResourceDeleteQueued = errors.New("a delete for this resource is already queued")

	// ErrNotAuthenticated is returned when an operation requires a stored
	// session token and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConflictNotFound is returned when a resolution targets a conflict id
	// the resolver does not hold.
	ErrConflictNotFound = errors.New("conflict record was not found")

	// ErrUnknownStrategy is returned when a resolution names a strategy the
	// resolver does not implement.
	ErrUnknownStrategy = errors.New("unknown resolution strategy")
)

package models

// ConflictResponse is the 409 body returned by the remote concurrency gate
// when a mutation's believed version no longer matches.
type ConflictResponse struct {
	// Error is always "version_conflict".
	Error string `json:"error"`

	// Current is the server's current entity, omitted when the rejection was
	// produced for a resource the server no longer holds.
	Current *Entity `json:"current,omitempty"`
}

// ErrorResponse is the generic error body for non-conflict failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EntityListResponse wraps a collection of entities.
type EntityListResponse struct {
	Entities []Entity `json:"entities"`
	Length   int      `json:"length"`
}

// BulkOutcome reports the per-target result of a bulk operation.
type BulkOutcome struct {
	ID EntityID `json:"id"`

	// Status is "ok", "conflict" or "not_found".
	Status string `json:"status"`

	// Current carries the server entity on success and on conflict.
	Current *Entity `json:"current,omitempty"`
}

// BulkResponse is the body of bulk-complete and bulk-delete responses.
type BulkResponse struct {
	Outcomes []BulkOutcome `json:"outcomes"`
	Length   int           `json:"length"`
}

// IconsResponse lists the icon catalog served to onboarding clients.
type IconsResponse struct {
	Icons  []string `json:"icons"`
	Length int      `json:"length"`
}

// SyncStatus is the queue/resolver summary the presentation layer renders.
// It is derived state: pending and failed counts come from the mutation
// queue, the conflict count from the resolver's registry.
type SyncStatus struct {
	Online    bool `json:"online"`
	Draining  bool `json:"draining"`
	Pending   int  `json:"pending"`
	Failed    int  `json:"failed"`
	Conflicts int  `json:"conflicts"`
}

package models

import "time"

// OperationType names the three mutations a client can record against an
// entity while offline.
type OperationType string

const (
	OpCreate OperationType = "CREATE"
	OpUpdate OperationType = "UPDATE"
	OpDelete OperationType = "DELETE"
)

// EntryStatus is the lifecycle state of a queued mutation.
type EntryStatus string

const (
	// EntryPending — recorded, not yet attempted (or reset for another attempt).
	EntryPending EntryStatus = "PENDING"
	// EntrySyncing — picked up by the current drain pass. Entries left in this
	// state by an aborted drain are treated as pending on the next pass; the
	// entry id doubles as the idempotency token, so a duplicate issuance is
	// detectable server-side.
	EntrySyncing EntryStatus = "SYNCING"
	// EntryFailed — last attempt hit a transient error; eligible for requeue.
	EntryFailed EntryStatus = "FAILED"
	// EntrySynced — confirmed by the server. Synced entries are removed from
	// the queue, so this status is only ever observed transiently.
	EntrySynced EntryStatus = "SYNCED"
)

// QueueEntry is a durable record of one not-yet-confirmed local mutation.
//
// Entries for the same resource preserve relative insertion order; the queue
// never reorders. A DELETE entry is terminal for its resource — once it
// drains, no further entries for that id are meaningful.
type QueueEntry struct {
	// ID is unique per entry and is sent to the server as the idempotency
	// token for the operation.
	ID string `json:"id"`

	// Timestamp is the insertion-order key. ListPending sorts ascending on it.
	Timestamp time.Time `json:"timestamp"`

	Operation  OperationType `json:"operation"`
	Kind       ResourceKind  `json:"kind"`
	ResourceID EntityID      `json:"resource_id"`
	ParentID   *EntityID     `json:"parent_id,omitempty"`

	// Payload is the mutation body: the full entity state the client intends.
	// Empty for DELETE entries.
	Payload Entity `json:"payload"`

	// ExpectedVersion is the server version this mutation believes it is
	// applying against. Zero for CREATE.
	ExpectedVersion int64 `json:"expected_version"`

	RetryCount  int         `json:"retry_count"`
	Status      EntryStatus `json:"status"`
	LastError   string      `json:"last_error,omitempty"`
	LastAttempt *time.Time  `json:"last_attempt,omitempty"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// tempIDPrefix marks the serialized form of a temporary identifier.
// It exists only at the persistence/wire boundary; code must branch on
// [EntityID.IsTemporary], never on the prefix.
const tempIDPrefix = "temp-"

// EntityID identifies a list or item. An id is either assigned (issued by the
// server, stable forever) or temporary (minted on the client for a resource
// created offline, replaced by the server-assigned id once the CREATE drains).
//
// Modelling the distinction as a type instead of a string convention makes the
// sync driver's id-substitution step checkable: an assigned id can never be
// accidentally built from a temporary one.
type EntityID struct {
	value     string
	temporary bool
}

// NewTemporaryID mints a temporary identifier for an offline-created resource.
// UUIDv7 keeps temporary ids time-ordered, which makes debugging queue dumps
// easier; the fallback to v4 only fires if the system clock source fails.
func NewTemporaryID() EntityID {
	v7, err := uuid.NewV7()
	if err != nil {
		return EntityID{value: uuid.NewString(), temporary: true}
	}
	return EntityID{value: v7.String(), temporary: true}
}

// AssignedID wraps a server-issued identifier.
func AssignedID(value string) EntityID {
	return EntityID{value: value}
}

// ParseEntityID restores an EntityID from its serialized form, recognising the
// temporary prefix written by [EntityID.String].
func ParseEntityID(raw string) EntityID {
	if rest, ok := strings.CutPrefix(raw, tempIDPrefix); ok {
		return EntityID{value: rest, temporary: true}
	}
	return EntityID{value: raw}
}

// IsTemporary reports whether the id was minted locally and is still awaiting
// a server-assigned replacement.
func (id EntityID) IsTemporary() bool { return id.temporary }

// IsZero reports whether the id is the empty value.
func (id EntityID) IsZero() bool { return id.value == "" }

// String returns the serialized form used on the wire and in local storage.
// Temporary ids carry the "temp-" prefix so they survive a round trip through
// JSON payloads and the mutation queue.
func (id EntityID) String() string {
	if id.temporary {
		return tempIDPrefix + id.value
	}
	return id.value
}

// Equal compares both the value and the temporary flag.
func (id EntityID) Equal(other EntityID) bool {
	return id.value == other.value && id.temporary == other.temporary
}

// MarshalJSON implements [json.Marshaler].
func (id EntityID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON implements [json.Unmarshaler].
func (id *EntityID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("entity id must be a string: %w", err)
	}
	*id = ParseEntityID(raw)
	return nil
}

// Value implements [driver.Valuer] so ids can be bound directly as SQL
// parameters.
func (id EntityID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements [sql.Scanner].
func (id *EntityID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*id = ParseEntityID(v)
	case []byte:
		*id = ParseEntityID(string(v))
	case nil:
		*id = EntityID{}
	default:
		return fmt.Errorf("cannot scan %T into EntityID", src)
	}
	return nil
}

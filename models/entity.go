package models

import "time"

// ResourceKind discriminates the two entity variants that share the Entity
// shape. Code switches on the kind instead of type-asserting.
type ResourceKind string

const (
	KindList ResourceKind = "LIST"
	KindItem ResourceKind = "ITEM"
)

// Entity is a list or an item, polymorphic over one record shape. Items carry
// a ParentID referencing their owning list; lists never do.
//
// Version is maintained by the server: it starts at 1 on creation and is
// incremented by exactly 1 per successful remote mutation. Clients only ever
// hold a belief about the current version; the authoritative counter lives
// behind the remote concurrency gate.
type Entity struct {
	ID       EntityID     `json:"id"`
	Kind     ResourceKind `json:"kind" validate:"required,oneof=LIST ITEM"`
	ParentID *EntityID    `json:"parent_id,omitempty"`

	// Mutable fields. Updates replace the whole set.
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=4000"`
	Completed   bool   `json:"completed"`
	Quantity    int64  `json:"quantity" validate:"gte=0"`
	Position    int64  `json:"position"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Icon        string `json:"icon" validate:"max=64"`

	// Archived is the soft-delete flag. Deleted entities are retained for a
	// recovery window instead of being physically removed.
	Archived bool `json:"archived"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// ComparableFieldsEqual reports whether the user-editable fields of two
// entities are identical. Version and audit fields are deliberately excluded:
// two replicas that diverge only in version are safe to reconcile
// mechanically, and this predicate is what the conflict classifier uses to
// tell that case apart from a real content conflict.
func (e Entity) ComparableFieldsEqual(other Entity) bool {
	return e.Name == other.Name &&
		e.Description == other.Description &&
		e.Completed == other.Completed &&
		e.Quantity == other.Quantity &&
		e.Position == other.Position &&
		e.Color == other.Color &&
		e.Icon == other.Icon &&
		e.Archived == other.Archived
}

// TableName returns the name of the database table associated with Entity.
func (e Entity) TableName() string {
	return "entities"
}

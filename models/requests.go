package models

// CreateRequest carries the fields of a new entity. The server assigns the
// definitive id and sets version to 1; any temporary client id stays on the
// client side and never appears in this request.
type CreateRequest struct {
	Kind        ResourceKind `json:"kind" validate:"required,oneof=LIST ITEM"`
	ParentID    *EntityID    `json:"parent_id,omitempty"`
	Name        string       `json:"name" validate:"required,max=255"`
	Description string       `json:"description" validate:"max=4000"`
	Completed   bool         `json:"completed"`
	Quantity    int64        `json:"quantity" validate:"gte=0"`
	Position    int64        `json:"position"`
	Color       string       `json:"color" validate:"omitempty,hexcolor"`
	Icon        string       `json:"icon" validate:"max=64"`
}

// UpdateRequest carries the full mutable field set plus the version the
// client believes is current. The gate applies the update only if the version
// still matches.
type UpdateRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=4000"`
	Completed   bool   `json:"completed"`
	Quantity    int64  `json:"quantity" validate:"gte=0"`
	Position    int64  `json:"position"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Icon        string `json:"icon" validate:"max=64"`
	Version     int64  `json:"version" validate:"gte=1"`
}

// DeleteRequest carries the version the client believes is current.
type DeleteRequest struct {
	Version int64 `json:"version" validate:"gte=1"`
}

// BulkCompleteRequest flips the completion flag on several items of one list.
// Each target carries its own believed version; the gate checks them
// individually.
type BulkCompleteRequest struct {
	Completed bool         `json:"completed"`
	Targets   []BulkTarget `json:"targets" validate:"required,min=1,dive"`
}

// BulkDeleteRequest soft-deletes several entities, each guarded by its own
// believed version.
type BulkDeleteRequest struct {
	Targets []BulkTarget `json:"targets" validate:"required,min=1,dive"`
}

// BulkTarget addresses one entity within a bulk operation.
type BulkTarget struct {
	ID      EntityID `json:"id" validate:"required"`
	Version int64    `json:"version" validate:"gte=1"`
}

// ReorderRequest rewrites the positions of the items in a list. Positions are
// applied last-write-wins with no version guard; see the handler documentation
// for the consequences.
type ReorderRequest struct {
	Positions []ReorderPosition `json:"positions" validate:"required,min=1,dive"`
}

// ReorderPosition assigns one item its new ordering position.
type ReorderPosition struct {
	ID       EntityID `json:"id" validate:"required"`
	Position int64    `json:"position"`
}

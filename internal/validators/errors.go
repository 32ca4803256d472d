package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")

	ErrInvalidEntity    = errors.New("invalid entity")
	ErrMissingParent    = errors.New("items require a parent list")
	ErrUnexpectedParent = errors.New("lists cannot have a parent")
	ErrInvalidVersion   = errors.New("invalid Version")
	ErrEmptyTargets     = errors.New("targets list cannot be empty")
	ErrEmptyPositions   = errors.New("positions list cannot be empty")
)

package validators

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-list-keeper/models"
	"github.com/go-playground/validator/v10"
)

// EntityValidator implements the Validator interface for all entity-related
// domain models: Entity, CreateRequest, UpdateRequest, DeleteRequest,
// BulkCompleteRequest, BulkDeleteRequest, and ReorderRequest.
//
// Structural checks (required fields, length limits, value sets) are driven
// by the `validate` struct tags on the models; the cross-field rules that
// tags cannot express — kind/parent consistency — are enforced here.
type EntityValidator struct {
	validate *validator.Validate
}

// NewEntityValidator constructs a new EntityValidator and returns it as the
// Validator interface.
func NewEntityValidator() Validator {
	return &EntityValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate dispatches validation to the appropriate type-specific method
// based on the dynamic type of obj. Both value and pointer forms of each
// supported model are accepted. The fields parameter is unused for
// tag-driven models and retained for interface compatibility.
//
// Returns ErrUnsupportedType if obj does not match any known model.
func (v *EntityValidator) Validate(ctx context.Context, obj any, _ ...string) error {
	switch value := obj.(type) {
	case models.Entity:
		return v.validateEntity(ctx, value)
	case *models.Entity:
		return v.validateEntity(ctx, *value)

	case models.CreateRequest:
		return v.validateCreateRequest(ctx, value)
	case *models.CreateRequest:
		return v.validateCreateRequest(ctx, *value)

	case models.UpdateRequest:
		return v.validateUpdateRequest(ctx, value)
	case *models.UpdateRequest:
		return v.validateUpdateRequest(ctx, *value)

	case models.DeleteRequest:
		return v.validateDeleteRequest(ctx, value)
	case *models.DeleteRequest:
		return v.validateDeleteRequest(ctx, *value)

	case models.BulkCompleteRequest:
		return v.validateBulkTargets(value.Targets)
	case *models.BulkCompleteRequest:
		return v.validateBulkTargets(value.Targets)

	case models.BulkDeleteRequest:
		return v.validateBulkTargets(value.Targets)
	case *models.BulkDeleteRequest:
		return v.validateBulkTargets(value.Targets)

	case models.ReorderRequest:
		return v.validateReorderRequest(ctx, value)
	case *models.ReorderRequest:
		return v.validateReorderRequest(ctx, *value)

	default:
		return ErrUnsupportedType
	}
}

// validateKindParent enforces the one rule tags cannot express: items carry
// a parent list, lists never do.
func validateKindParent(kind models.ResourceKind, parentID *models.EntityID) error {
	switch kind {
	case models.KindItem:
		if parentID == nil || parentID.IsZero() {
			return ErrMissingParent
		}
	case models.KindList:
		if parentID != nil {
			return ErrUnexpectedParent
		}
	}

	return nil
}

func (v *EntityValidator) validateEntity(_ context.Context, entity models.Entity) error {
	if err := v.validate.Struct(entity); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	return validateKindParent(entity.Kind, entity.ParentID)
}

func (v *EntityValidator) validateCreateRequest(_ context.Context, req models.CreateRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	return validateKindParent(req.Kind, req.ParentID)
}

func (v *EntityValidator) validateUpdateRequest(_ context.Context, req models.UpdateRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	if req.Version < 1 {
		return ErrInvalidVersion
	}

	return nil
}

func (v *EntityValidator) validateDeleteRequest(_ context.Context, req models.DeleteRequest) error {
	if req.Version < 1 {
		return ErrInvalidVersion
	}

	return nil
}

func (v *EntityValidator) validateBulkTargets(targets []models.BulkTarget) error {
	if len(targets) == 0 {
		return ErrEmptyTargets
	}

	for i, target := range targets {
		if target.ID.IsZero() {
			return fmt.Errorf("validation error at index %d: %w", i, ErrInvalidEntity)
		}
		if target.Version < 1 {
			return fmt.Errorf("validation error at index %d: %w", i, ErrInvalidVersion)
		}
	}

	return nil
}

func (v *EntityValidator) validateReorderRequest(_ context.Context, req models.ReorderRequest) error {
	if len(req.Positions) == 0 {
		return ErrEmptyPositions
	}

	for i, pos := range req.Positions {
		if pos.ID.IsZero() {
			return fmt.Errorf("validation error at index %d: %w", i, ErrInvalidEntity)
		}
	}

	return nil
}

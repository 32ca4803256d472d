package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// buildListEntitiesQuery assembles the filtered SELECT used by
// [entityRepository.ListEntities].
//
// Filtering is always applied by user_id; archived records are excluded
// unless filter.IncludeArchived is set. Nil pointer fields of the filter
// are not applied. The result is ordered by kind, position and creation
// time so lists come out in their display order.
func buildListEntitiesQuery(_ context.Context, userID int64, filter EntityFilter) (string, []any, error) {
	builder := sq.Select(
		"id", "kind", "parent_id", "name", "description", "completed",
		"quantity", "position", "color", "icon", "archived",
		"version", "created_at", "updated_at", "updated_by",
	).
		From("entities").
		Where(sq.Eq{"user_id": userID}).
		PlaceholderFormat(sq.Dollar)

	if !filter.IncludeArchived {
		builder = builder.Where(sq.Eq{"archived": false})
	}

	if filter.Kind != nil {
		builder = builder.Where(sq.Eq{"kind": string(*filter.Kind)})
	}

	if filter.ParentID != nil {
		builder = builder.Where(sq.Eq{"parent_id": filter.ParentID.String()})
	}

	if filter.Completed != nil {
		builder = builder.Where(sq.Eq{"completed": *filter.Completed})
	}

	builder = builder.OrderBy("kind", "position", "created_at")

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

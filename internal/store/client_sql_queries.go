// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	cacheEntityColumns = `
		id,
		kind,
		parent_id,
		name,
		description,
		completed,
		quantity,
		position,
		color,
		icon,
		archived,
		version,
		created_at,
		updated_at,
		updated_by`

	// cacheUpsertEntity keeps the cached version monotonic: an incoming row
	// with a lower version than the stored one is dropped by the WHERE clause
	// of the conflict arm.
	cacheUpsertEntity = `
		INSERT INTO entities (` + cacheEntityColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT(id) DO UPDATE SET
			kind        = excluded.kind,
			parent_id   = excluded.parent_id,
			name        = excluded.name,
			description = excluded.description,
			completed   = excluded.completed,
			quantity    = excluded.quantity,
			position    = excluded.position,
			color       = excluded.color,
			icon        = excluded.icon,
			archived    = excluded.archived,
			version     = excluded.version,
			created_at  = excluded.created_at,
			updated_at  = excluded.updated_at,
			updated_by  = excluded.updated_by
		WHERE excluded.version >= entities.version;`

	cacheGetEntity = `
		SELECT ` + cacheEntityColumns + `
		FROM entities
		WHERE id = $1;`

	cacheGetAllEntities = `
		SELECT ` + cacheEntityColumns + `
		FROM entities
		WHERE archived = false
		ORDER BY kind, position, created_at;`

	cacheGetEntitiesByKind = `
		SELECT ` + cacheEntityColumns + `
		FROM entities
		WHERE kind = $1 AND archived = false
		ORDER BY position, created_at;`

	cacheGetEntitiesByParent = `
		SELECT ` + cacheEntityColumns + `
		FROM entities
		WHERE parent_id = $1 AND archived = false
		ORDER BY position, created_at;`

	cacheRemoveEntity = `
		DELETE FROM entities
		WHERE id = $1;`

	cacheRekeyEntity = `
		UPDATE entities
		SET id = $2
		WHERE id = $1;`

	cacheRekeyChildren = `
		UPDATE entities
		SET parent_id = $2
		WHERE parent_id = $1;`

	queueEntryColumns = `
		id,
		ts,
		operation,
		kind,
		resource_id,
		parent_id,
		payload,
		expected_version,
		retry_count,
		status,
		last_error,
		last_attempt`

	queueInsertEntry = `
		INSERT INTO mutation_queue (` + queueEntryColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	queueGetEntry = `
		SELECT ` + queueEntryColumns + `
		FROM mutation_queue
		WHERE id = $1;`

	// queueListPending picks up SYNCING leftovers of an aborted drain along
	// with PENDING entries; the entry id doubles as the idempotency token so
	// a re-issued operation is safe.
	queueListPending = `
		SELECT ` + queueEntryColumns + `
		FROM mutation_queue
		WHERE status IN ('PENDING', 'SYNCING')
		ORDER BY ts ASC;`

	queueListFailed = `
		SELECT ` + queueEntryColumns + `
		FROM mutation_queue
		WHERE status = 'FAILED'
		ORDER BY ts ASC;`

	queueMarkSyncing = `
		UPDATE mutation_queue
		SET status = 'SYNCING',
		    last_attempt = $2
		WHERE id = $1;`

	queueMarkFailed = `
		UPDATE mutation_queue
		SET status = 'FAILED',
		    retry_count = retry_count + 1,
		    last_error = $2,
		    last_attempt = $3
		WHERE id = $1;`

	// queueRequeueEntry keeps ts untouched: a requeued entry replays from its
	// original queue position, never from the tail.
	queueRequeueEntry = `
		UPDATE mutation_queue
		SET status = 'PENDING',
		    last_error = ''
		WHERE id = $1 AND status = 'FAILED';`

	queueDeleteEntry = `
		DELETE FROM mutation_queue
		WHERE id = $1;`

	queueCountByStatus = `
		SELECT status, COUNT(*)
		FROM mutation_queue
		GROUP BY status;`

	queueHasPendingDelete = `
		SELECT COUNT(*)
		FROM mutation_queue
		WHERE resource_id = $1 AND operation = 'DELETE';`

	queueRewriteResourceID = `
		UPDATE mutation_queue
		SET resource_id = $2
		WHERE resource_id = $1;`

	queueRewriteParentID = `
		UPDATE mutation_queue
		SET parent_id = $2
		WHERE parent_id = $1;`

	prefsGet = `
		SELECT value
		FROM preferences
		WHERE key = $1;`

	prefsSet = `
		INSERT INTO preferences (key, value)
		VALUES ($1, $2)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;`

	prefsDelete = `
		DELETE FROM preferences
		WHERE key = $1;`
)

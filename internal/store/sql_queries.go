// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	createUser = `INSERT INTO users (login, password_hash, name)
    VALUES ($1, $2, $3)
    RETURNING user_id, login, password_hash, name, created_at;`

	findUserByLogin = `SELECT user_id, login, password_hash, name, created_at
    FROM users
    WHERE login = $1;`

	entityColumns = `id, kind, parent_id, name, description, completed, quantity,
		position, color, icon, archived, version, created_at, updated_at, updated_by`

	createEntity = `INSERT INTO entities (
			id,
			user_id,
			kind,
			parent_id,
			name,
			description,
			completed,
			quantity,
			position,
			color,
			icon,
			updated_by,
			idempotency_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))
		RETURNING ` + entityColumns + `;`

	getEntityByIdempotencyKey = `SELECT ` + entityColumns + `
		FROM entities
		WHERE user_id = $1 AND idempotency_key = $2;`

	getEntity = `SELECT ` + entityColumns + `
		FROM entities
		WHERE id = $1 AND user_id = $2;`

	// updateEntity is the compare-and-swap at the heart of the concurrency
	// gate. The CTE makes one round trip answer three questions at once:
	//   - updated_id NULL, current_db_version NULL  → record absent
	//   - updated_id NULL, current_db_version set   → version mismatch
	//   - updated_id set                            → swap applied
	updateEntity = `
       WITH target_record AS (
          SELECT id, version
          FROM entities
          WHERE id = $1 AND user_id = $2 AND archived = false
       ),
       updated_record AS (
          UPDATE entities
          SET name = $3,
              description = $4,
              completed = $5,
              quantity = $6,
              position = $7,
              color = $8,
              icon = $9,
              updated_by = $10,
              updated_at = NOW(),
              version = version + 1
          WHERE id = $1
            AND user_id = $2
            AND version = $11
            AND archived = false
          RETURNING id
       )
       SELECT
          (SELECT id FROM updated_record)       AS updated_id,
          (SELECT version FROM target_record)   AS current_db_version;`

	// deleteEntity archives under the same guard. The record survives as an
	// archived row so clients can still detect the deletion during sync.
	deleteEntity = `
       WITH target_record AS (
          SELECT id, version
          FROM entities
          WHERE id = $1 AND user_id = $2 AND archived = false
       ),
       deleted_record AS (
          UPDATE entities
          SET archived = true,
              updated_by = $3,
              updated_at = NOW(),
              version = version + 1
          WHERE id = $1
            AND user_id = $2
            AND version = $4
            AND archived = false
          RETURNING id
       )
       SELECT
          (SELECT id FROM deleted_record)       AS deleted_id,
          (SELECT version FROM target_record)   AS current_db_version;`

	setEntityCompleted = `
       WITH target_record AS (
          SELECT id, version
          FROM entities
          WHERE id = $1 AND user_id = $2 AND archived = false
       ),
       updated_record AS (
          UPDATE entities
          SET completed = $3,
              updated_by = $4,
              updated_at = NOW(),
              version = version + 1
          WHERE id = $1
            AND user_id = $2
            AND version = $5
            AND archived = false
          RETURNING id
       )
       SELECT
          (SELECT id FROM updated_record)       AS updated_id,
          (SELECT version FROM target_record)   AS current_db_version;`

	// reorderEntity carries no version guard: positions are applied
	// last-write-wins and a concurrent reorder can silently overwrite this
	// one. Inherited behaviour, kept deliberately.
	reorderEntity = `
       UPDATE entities
       SET position = $3,
           updated_at = NOW()
       WHERE id = $1 AND user_id = $2 AND archived = false;`
)

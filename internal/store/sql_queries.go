// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	maxFolderChangeID = `SELECT COALESCE(MAX(id), 0)
		FROM changes
		WHERE parent_sourcekey = $1;`

	insertChange = `INSERT INTO changes (sourcekey, parent_sourcekey, change_type, flags, origin_client)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;`

	insertSyntheticChange = `INSERT INTO changes (sourcekey, parent_sourcekey, change_type, flags, origin_client)
		VALUES ('\x00'::bytea, $1, 0, 0, $2)
		RETURNING id;`

	// One row per snapshot entry, merged with every newer change log row
	// for the same message so the legacy processor sees all change kinds
	// that happened since the snapshot was taken. Log order matters: the
	// flag value kept per message is the one from the newest flag change.
	getSyncedMessages = `SELECT m.sourcekey, m.parent_sourcekey, c.change_type, c.flags
		FROM synced_messages AS m
		LEFT JOIN changes AS c
			ON c.sourcekey = m.sourcekey
			AND c.parent_sourcekey = m.parent_sourcekey
			AND c.id > $2
			AND c.origin_client != $1
		WHERE m.client_id = $1 AND m.change_id = $2
		ORDER BY c.id;`

	getSnapshotGenerations = `SELECT DISTINCT change_id
		FROM synced_messages
		WHERE client_id = $1
		ORDER BY change_id;`

	deleteSnapshotsAfter = `DELETE FROM synced_messages
		WHERE client_id = $1 AND change_id > $2;`

	deleteSnapshotGenerations = `DELETE FROM synced_messages
		WHERE client_id = $1 AND change_id = ANY($2);`

	insertSnapshotEntry = `INSERT INTO synced_messages (client_id, change_id, sourcekey, parent_sourcekey)
		VALUES ($1, $2, $3, $4);`

	upsertMessage = `INSERT INTO messages (sourcekey, parent_sourcekey, flags, category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sourcekey) DO UPDATE
		SET parent_sourcekey = EXCLUDED.parent_sourcekey,
			flags            = EXCLUDED.flags,
			category         = EXCLUDED.category;`

	setMessageFlags = `UPDATE messages
		SET flags = $2
		WHERE sourcekey = $1;`

	deleteMessage = `DELETE FROM messages
		WHERE sourcekey = $1;`

	getMessage = `SELECT sourcekey, parent_sourcekey, flags, category
		FROM messages
		WHERE sourcekey = $1;`

	reserveSourceKeyRange = `UPDATE settings
		SET value = value + $1
		WHERE name = 'source_key_auto_increment'
		RETURNING value;`
)

package store

const (
	getSyncState = `SELECT device_id, collection_id, current_key, previous_key, since_seq, prev_since_seq,
		filter_type, ghosted, conflict_policy, updated_at
	FROM sync_states
	WHERE device_id = $1 AND collection_id = $2;`

	upsertSyncState = `INSERT INTO sync_states (
			device_id, collection_id, current_key, previous_key, since_seq, prev_since_seq,
			filter_type, ghosted, conflict_policy, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (device_id, collection_id) DO UPDATE SET
			current_key = EXCLUDED.current_key,
			previous_key = EXCLUDED.previous_key,
			since_seq = EXCLUDED.since_seq,
			prev_since_seq = EXCLUDED.prev_since_seq,
			filter_type = EXCLUDED.filter_type,
			ghosted = EXCLUDED.ghosted,
			conflict_policy = EXCLUDED.conflict_policy,
			updated_at = EXCLUDED.updated_at;`

	// The WHERE clause on current_key is the optimistic check: a
	// concurrent commit that already advanced the key leaves zero rows
	// affected and the caller maps that onto ErrKeyMismatch.
	casSyncState = `UPDATE sync_states SET
			current_key = $1,
			previous_key = $2,
			since_seq = $3,
			prev_since_seq = $4,
			filter_type = $5,
			ghosted = $6,
			conflict_policy = $7,
			updated_at = $8
		WHERE device_id = $9 AND collection_id = $10 AND current_key = $11;`

	deleteIdleSyncStates = `DELETE FROM sync_states WHERE updated_at < $1;`

	getNotifySet = `SELECT collections FROM notify_sets WHERE device_id = $1;`

	upsertNotifySet = `INSERT INTO notify_sets (device_id, collections, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id) DO UPDATE SET
			collections = EXCLUDED.collections,
			updated_at = EXCLUDED.updated_at;`

	createDevice = `INSERT INTO devices (device_id, login, password)
		VALUES ($1, $2, $3)
		RETURNING id, device_id, login, password, created_at;`

	findDeviceByLogin = `SELECT id, device_id, login, password, created_at
		FROM devices
		WHERE login = $1;`
)

package service

import "github.com/airsyncd/airsyncd/models"

// changedSince reports whether the server object was mutated after the
// client's checkpoint, i.e. whether a client Change collides with a
// server-side edit the client has not seen yet.
func changedSince(item models.Item, checkpoint int64) bool {
	return item.Version > checkpoint
}

// resolveConflict arbitrates a detected collision. Under PreferServer the
// client's change is discarded and the command answered with
// StatusConflict; the kept server object reaches the client as a regular
// Change during enumeration. Under PreferClient the client's change is
// applied as if no collision happened.
func resolveConflict(policy models.ConflictPolicy) models.Status {
	if policy == models.ConflictPreferClient {
		return models.StatusSuccess
	}
	return models.StatusConflict
}

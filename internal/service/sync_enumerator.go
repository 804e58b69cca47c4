package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/store"
	"github.com/airsyncd/airsyncd/models"
)

// enumeration is the folded net delta of one collection since a
// checkpoint: tagged entries in ascending first-touch sequence order plus
// the highest log sequence that was folded in.
type enumeration struct {
	entries []models.ChangeEntry
	ceiling int64
}

// foldedChange accumulates every log record of one item inside the
// enumeration window into its net effect.
type foldedChange struct {
	serverID string
	firstSeq int64
	added    bool
	deleted  bool
}

// enumerate folds the collection's change log since sinceSeq into net
// deltas and classifies each against the active filter.
//
// Folding rules: an item both created and deleted inside the window
// produces nothing; any trail ending in a delete produces one Delete; a
// trail starting with the item's creation produces one Add; everything
// else produces one Change. A surviving item the filter does not admit is
// delivered as SoftDelete instead, so the admitted and soft-deleted
// entries together always cover exactly the unfiltered delta.
//
// suppress names items mutated by the same request's own client commands;
// their entries are dropped so the device does not get its edits echoed
// back.
func (s *syncService) enumerate(
	ctx context.Context,
	state models.SyncState,
	sinceSeq int64,
	classes []models.Class,
	conversationMode bool,
	suppress map[string]struct{},
) (enumeration, error) {
	log := logger.FromContext(ctx)

	records, err := s.items.ChangesSince(ctx, state.CollectionID, sinceSeq)
	if err != nil {
		return enumeration{}, fmt.Errorf("enumerating collection %s: %w", state.CollectionID, err)
	}

	var result enumeration
	folded := make(map[string]*foldedChange, len(records))
	order := make([]string, 0, len(records))

	for _, rec := range records {
		fc, ok := folded[rec.ServerID]
		if !ok {
			fc = &foldedChange{serverID: rec.ServerID, firstSeq: rec.Seq}
			folded[rec.ServerID] = fc
			order = append(order, rec.ServerID)
		}
		switch rec.Op {
		case models.OpAdd:
			fc.added = true
			fc.deleted = false
		case models.OpChange:
			fc.deleted = false
		case models.OpDelete:
			fc.deleted = true
		}
		if rec.Seq > result.ceiling {
			result.ceiling = rec.Seq
		}
	}

	now := time.Now()

	var admittedConversations map[string]struct{}
	if conversationMode {
		admittedConversations, err = s.admittedConversations(ctx, state, now)
		if err != nil {
			return enumeration{}, err
		}
	}

	for _, serverID := range order {
		fc := folded[serverID]

		if _, own := suppress[serverID]; own {
			continue
		}

		if fc.deleted {
			// Created and removed inside the window: the device never saw
			// the item, nothing to deliver.
			if fc.added {
				continue
			}
			result.entries = append(result.entries, models.ChangeEntry{
				Op:       models.OpDelete,
				ServerID: serverID,
				Seq:      fc.firstSeq,
			})
			continue
		}

		item, err := s.items.Item(ctx, state.CollectionID, serverID)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				log.Warn().
					Str("func", "syncService.enumerate").
					Str("collection_id", state.CollectionID).
					Str("server_id", serverID).
					Msg("live log trail references missing item, skipping")
				continue
			}
			return enumeration{}, fmt.Errorf("loading item %s: %w", serverID, err)
		}

		if !classAdmitted(item.Class, classes) {
			continue
		}

		admitted := admit(item, state.Filter, now)
		if !admitted && conversationMode && item.ConversationID != "" {
			_, admitted = admittedConversations[item.ConversationID]
		}

		if !admitted {
			result.entries = append(result.entries, models.ChangeEntry{
				Op:       models.OpSoftDelete,
				ServerID: serverID,
				Seq:      fc.firstSeq,
			})
			continue
		}

		entry := models.ChangeEntry{
			ServerID: serverID,
			Seq:      fc.firstSeq,
		}
		if fc.added {
			entry.Op = models.OpAdd
			payload := item.Clone()
			entry.Item = &payload
		} else {
			entry.Op = models.OpChange
			payload := ghostReduced(item, state.Ghosted)
			entry.Item = &payload
		}
		result.entries = append(result.entries, entry)
	}

	return result, nil
}

// admittedConversations returns the IDs of conversations with at least one
// live member inside the filter window. ConversationMode widens Add and
// Change admission to whole threads.
func (s *syncService) admittedConversations(ctx context.Context, state models.SyncState, now time.Time) (map[string]struct{}, error) {
	items, err := s.items.Items(ctx, state.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("scanning collection %s for conversations: %w", state.CollectionID, err)
	}

	admitted := make(map[string]struct{})
	for _, item := range items {
		if item.ConversationID == "" {
			continue
		}
		if admit(item, state.Filter, now) {
			admitted[item.ConversationID] = struct{}{}
		}
	}
	return admitted, nil
}

// reconcileView produces the extra entries a filter change requires:
// SoftDelete for checkpointed items the narrowed filter excludes, Add for
// items the widened filter re-admits. Only items the device could have
// seen (created at or before the checkpoint) participate; newer items are
// covered by regular enumeration.
func (s *syncService) reconcileView(
	ctx context.Context,
	state models.SyncState,
	checkpoint int64,
	newFilter models.FilterType,
	classes []models.Class,
) ([]models.ChangeEntry, error) {
	items, err := s.items.Items(ctx, state.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("reconciling collection %s: %w", state.CollectionID, err)
	}

	now := time.Now()
	var entries []models.ChangeEntry

	for _, item := range items {
		if item.CreatedSeq > checkpoint {
			continue
		}
		if !classAdmitted(item.Class, classes) {
			continue
		}

		wasAdmitted := admit(item, state.Filter, now)
		nowAdmitted := admit(item, newFilter, now)

		switch {
		case wasAdmitted && !nowAdmitted:
			entries = append(entries, models.ChangeEntry{
				Op:       models.OpSoftDelete,
				ServerID: item.ServerID,
				Seq:      item.Version,
			})
		case !wasAdmitted && nowAdmitted:
			payload := item.Clone()
			entries = append(entries, models.ChangeEntry{
				Op:       models.OpAdd,
				ServerID: item.ServerID,
				Seq:      item.Version,
				Item:     &payload,
			})
		}
	}

	return entries, nil
}

// ghostReduced clones the item with its ghosted properties stripped from
// the Change payload. A property absent from the payload and absent from
// the ghost set is an explicit deletion on the receiving side, which is
// exactly the omission semantics the ghost set was declared for.
func ghostReduced(item models.Item, ghosted []string) models.Item {
	payload := item.Clone()
	for _, prop := range ghosted {
		delete(payload.Props, prop)
	}
	return payload
}

func classAdmitted(class models.Class, classes []models.Class) bool {
	if len(classes) == 0 {
		return true
	}
	for _, c := range classes {
		if c == class {
			return true
		}
	}
	return false
}

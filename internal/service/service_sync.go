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

// syncService is the concrete implementation of SyncService. All request
// processing is funneled through per-(device, collection) locks; the
// persisted ledger row is only ever advanced through a compare-and-swap on
// its current key, so a retransmitted or racing request can never fork the
// key chain.
type syncService struct {
	items       store.ItemStore
	states      store.SyncStateRepository
	coordinator *ChangeCoordinator
	monitor     *Monitor

	locks  collectionLocks
	logger *logger.Logger
}

// NewSyncService constructs a SyncService over the given stores. The
// coordinator wakes held long-poll requests; monitor may be nil to disable
// stats collection.
func NewSyncService(
	items store.ItemStore,
	states store.SyncStateRepository,
	coordinator *ChangeCoordinator,
	monitor *Monitor,
	logger *logger.Logger,
) SyncService {
	return &syncService{
		items:       items,
		states:      states,
		coordinator: coordinator,
		monitor:     monitor,
		logger:      logger,
	}
}

// Sync implements SyncService.
func (s *syncService) Sync(ctx context.Context, deviceID string, request models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)
	started := time.Now()

	if deviceID == "" {
		return models.SyncResponse{}, ErrInvalidDataProvided
	}

	holdFor, limit, status := longPollWindow(request.Wait, request.HeartbeatInterval)
	if status != models.StatusSuccess {
		log.Debug().
			Str("func", "syncService.Sync").
			Int("wait", request.Wait).
			Int("heartbeat_interval", request.HeartbeatInterval).
			Int("status", int(status)).
			Msg("long-poll interval rejected")
		return models.SyncResponse{Status: status, Limit: limit}, nil
	}

	collections, status, err := s.resolveCollections(ctx, deviceID, request)
	if err != nil {
		return models.SyncResponse{}, err
	}
	if status != models.StatusSuccess {
		return models.SyncResponse{Status: status}, nil
	}

	// Subscribing before the first enumeration pass closes the window in
	// which a change could slip between "nothing to deliver" and "start
	// waiting".
	var wakeups <-chan models.ChangeEvent
	if holdFor > 0 {
		ids := make([]string, 0, len(collections))
		for _, c := range collections {
			ids = append(ids, c.CollectionID)
		}
		events, cancel := s.coordinator.Subscribe(ids)
		defer cancel()
		wakeups = events
	}

	deadline := time.Now().Add(holdFor)

	for {
		response, delivered, quiet, err := s.syncPass(ctx, deviceID, request, collections)
		if err != nil {
			return models.SyncResponse{}, err
		}

		if !quiet || holdFor == 0 {
			if quiet {
				response = models.SyncResponse{Status: models.StatusSuccess, Empty: true}
			}
			s.finishRequest(ctx, deviceID, request, collections, started, delivered)
			return response, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			s.finishRequest(ctx, deviceID, request, collections, started, 0)
			return models.SyncResponse{Status: models.StatusSuccess, Empty: true}, nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return models.SyncResponse{}, ctx.Err()
		case <-timer.C:
			s.finishRequest(ctx, deviceID, request, collections, started, 0)
			return models.SyncResponse{Status: models.StatusSuccess, Empty: true}, nil
		case <-wakeups:
			timer.Stop()
			log.Debug().
				Str("func", "syncService.Sync").
				Str("device_id", deviceID).
				Msg("long poll woken by change event")
		}
	}
}

// resolveCollections expands the request into the final per-collection
// list. An empty request re-uses the device's cached notify-able set; a
// partial request merges the cached set into the explicitly named
// collections. The cached entries sync incrementally with their ledger's
// current key.
func (s *syncService) resolveCollections(ctx context.Context, deviceID string, request models.SyncRequest) ([]models.SyncCollectionRequest, models.Status, error) {
	collections := request.Collections

	if len(collections) > 0 && !request.Partial {
		return collections, models.StatusSuccess, nil
	}

	cached, err := s.states.NotifySet(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotifySetNotFound) {
			if len(collections) == 0 {
				return nil, models.StatusNoNotifySet, nil
			}
			return collections, models.StatusSuccess, nil
		}
		return nil, 0, fmt.Errorf("loading notify set for device %s: %w", deviceID, err)
	}

	explicit := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		explicit[c.CollectionID] = struct{}{}
	}

	for _, collectionID := range cached {
		if _, ok := explicit[collectionID]; ok {
			continue
		}
		state, err := s.states.Get(ctx, deviceID, collectionID)
		if err != nil {
			if errors.Is(err, store.ErrSyncStateNotFound) {
				continue
			}
			return nil, 0, fmt.Errorf("loading sync state for collection %s: %w", collectionID, err)
		}
		collections = append(collections, models.SyncCollectionRequest{
			CollectionID: collectionID,
			SyncKey:      state.CurrentKey,
		})
	}

	if len(collections) == 0 {
		return nil, models.StatusNoNotifySet, nil
	}

	return collections, models.StatusSuccess, nil
}

// syncPass runs one full processing pass over all collections, sharing the
// request's window budget between them in request order.
func (s *syncService) syncPass(ctx context.Context, deviceID string, request models.SyncRequest, collections []models.SyncCollectionRequest) (models.SyncResponse, int, bool, error) {
	budget := clampWindow(request.WindowSize)
	delivered := 0
	quiet := true

	response := models.SyncResponse{Status: models.StatusSuccess}

	for _, creq := range collections {
		colResp, colDelivered, colQuiet, err := s.syncCollection(ctx, deviceID, creq, &budget)
		if err != nil {
			return models.SyncResponse{}, 0, false, err
		}

		delivered += colDelivered
		if !colQuiet {
			quiet = false
			response.Collections = append(response.Collections, colResp)
		}
	}

	return response, delivered, quiet, nil
}

// finishRequest caches the notify-able collection set of a full request
// and records monitor stats. Failures here are logged, not surfaced: the
// synchronization itself already succeeded.
func (s *syncService) finishRequest(ctx context.Context, deviceID string, request models.SyncRequest, collections []models.SyncCollectionRequest, started time.Time, delivered int) {
	log := logger.FromContext(ctx)

	if len(request.Collections) > 0 && !request.Partial {
		ids := make([]string, 0, len(collections))
		for _, c := range collections {
			ids = append(ids, c.CollectionID)
		}
		if err := s.states.PutNotifySet(ctx, deviceID, ids); err != nil {
			log.Err(err).
				Str("func", "syncService.finishRequest").
				Str("device_id", deviceID).
				Msg("caching notify set failed")
		}
	}

	s.monitor.RequestServed(time.Since(started), delivered)
}

// syncCollection processes one per-collection sub-request under its
// (device, collection) lock. The returned quiet flag is true when the
// collection contributed nothing at all: no entries, no command responses,
// no key movement.
func (s *syncService) syncCollection(ctx context.Context, deviceID string, creq models.SyncCollectionRequest, budget *int) (models.SyncCollectionResponse, int, bool, error) {
	lock := s.locks.lock(deviceID, creq.CollectionID)
	defer lock.Unlock()

	resp := models.SyncCollectionResponse{CollectionID: creq.CollectionID}

	if creq.CollectionID == "" {
		resp.Status = models.StatusProtocolError
		return resp, 0, false, nil
	}

	collection, err := s.items.Collection(ctx, creq.CollectionID)
	if err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			resp.Status = models.StatusObjectNotFound
			return resp, 0, false, nil
		}
		return resp, 0, false, fmt.Errorf("loading collection %s: %w", creq.CollectionID, err)
	}

	opts, status := parseOptions(creq.Options, collection.Class)
	if status != models.StatusSuccess {
		resp.Status = status
		return resp, 0, false, nil
	}

	state, err := s.states.Get(ctx, deviceID, creq.CollectionID)
	found := err == nil
	if err != nil && !errors.Is(err, store.ErrSyncStateNotFound) {
		return resp, 0, false, fmt.Errorf("loading sync state for collection %s: %w", creq.CollectionID, err)
	}

	switch classifyKey(creq.SyncKey, state, found) {
	case keyInitial:
		return s.initializeCollection(ctx, deviceID, collection, creq, opts)

	case keyCurrent:
		return s.processCollection(ctx, deviceID, collection, creq, opts, state, state.SinceSeq, false, budget)

	case keyReplay:
		return s.processCollection(ctx, deviceID, collection, creq, opts, state, state.PrevSinceSeq, true, budget)

	default:
		resp.Status = models.StatusInvalidSyncKey
		return resp, 0, false, nil
	}
}

// initializeCollection handles the reserved zero key: it mints the first
// real key and seeds the ledger row with the declared filter, conflict
// policy and ghost set. No commands are accepted and no changes are
// enumerated; the device's next request starts the incremental stream.
func (s *syncService) initializeCollection(ctx context.Context, deviceID string, collection models.Collection, creq models.SyncCollectionRequest, opts collectionOptions) (models.SyncCollectionResponse, int, bool, error) {
	log := logger.FromContext(ctx)
	resp := models.SyncCollectionResponse{CollectionID: collection.ID}

	if (creq.GetChanges != nil && *creq.GetChanges) || len(creq.Commands) > 0 {
		resp.Status = models.StatusProtocolError
		return resp, 0, false, nil
	}

	filter := models.FilterNone
	if opts.filter != nil {
		filter = *opts.filter
	}
	conflict := models.ConflictPreferServer
	if opts.conflict != nil {
		conflict = *opts.conflict
	}

	state := models.SyncState{
		DeviceID:     deviceID,
		CollectionID: collection.ID,
		CurrentKey:   mintSyncKey(),
		PreviousKey:  models.ZeroSyncKey,
		Filter:       filter,
		Ghosted:      resolveGhostSet(creq.Supported, collection.Class),
		Conflict:     conflict,
		UpdatedAt:    time.Now(),
	}

	if err := s.states.Put(ctx, state); err != nil {
		return resp, 0, false, fmt.Errorf("initializing sync state for collection %s: %w", collection.ID, err)
	}

	log.Info().
		Str("func", "syncService.initializeCollection").
		Str("device_id", deviceID).
		Str("collection_id", collection.ID).
		Int("filter", int(filter)).
		Int("ghosted", len(state.Ghosted)).
		Msg("collection sync initialized")

	resp.Status = models.StatusSuccess
	resp.SyncKey = state.CurrentKey
	return resp, 0, false, nil
}

// processCollection is the shared incremental path for the current key and
// its replayed predecessor. A replay re-enumerates the identical window
// and hands back the unchanged current key; only the normal path commits a
// fresh key through the ledger's compare-and-swap.
func (s *syncService) processCollection(
	ctx context.Context,
	deviceID string,
	collection models.Collection,
	creq models.SyncCollectionRequest,
	opts collectionOptions,
	state models.SyncState,
	base int64,
	replay bool,
	budget *int,
) (models.SyncCollectionResponse, int, bool, error) {
	resp := models.SyncCollectionResponse{CollectionID: collection.ID}

	newFilter := state.Filter
	if opts.filter != nil {
		newFilter = *opts.filter
	}
	conflict := state.Conflict
	if opts.conflict != nil {
		conflict = *opts.conflict
	}

	responses, mutated, movedToTrash, err := s.applyCommands(ctx, collection, creq, state, base, conflict)
	if err != nil {
		return resp, 0, false, err
	}

	if len(mutated) > 0 {
		s.publishAdvance(ctx, collection.ID)
		if movedToTrash {
			s.publishAdvance(ctx, models.CollectionDeletedItems)
		}
	}

	var entries []models.ChangeEntry
	ceiling := base
	reconciled := 0

	if creq.WantsChanges() {
		enumState := state
		enumState.Filter = newFilter

		enum, err := s.enumerate(ctx, enumState, base, opts.classes, creq.ConversationMode, mutated)
		if err != nil {
			return resp, 0, false, err
		}
		entries = enum.entries
		if enum.ceiling > ceiling {
			ceiling = enum.ceiling
		}

		if newFilter != state.Filter {
			recon, err := s.reconcileView(ctx, state, base, newFilter, opts.classes)
			if err != nil {
				return resp, 0, false, err
			}
			reconciled = len(recon)
			entries = append(recon, entries...)
		}
	} else if len(mutated) > 0 {
		// The client declined enumeration but did mutate. Probe the fold so
		// the checkpoint can advance past the client's own writes; if foreign
		// changes are pending the checkpoint stays put and the next
		// enumerating request delivers them.
		enum, err := s.enumerate(ctx, state, base, opts.classes, creq.ConversationMode, mutated)
		if err != nil {
			return resp, 0, false, err
		}
		if len(enum.entries) == 0 && enum.ceiling > ceiling {
			ceiling = enum.ceiling
		}
	}

	effectiveBudget := *budget
	if opts.maxItems > 0 && opts.maxItems < effectiveBudget {
		effectiveBudget = opts.maxItems
	}

	batch, more := paginate(entries, effectiveBudget)
	*budget -= len(batch)

	newSince := base
	for _, entry := range batch {
		if entry.Seq > newSince {
			newSince = entry.Seq
		}
	}
	if !more && ceiling > newSince {
		newSince = ceiling
	}

	// A filter change only sticks once all its reconciliation entries
	// were delivered; until then the old filter stays committed so the
	// next request regenerates the remainder. A non-enumerating request
	// never commits a filter change at all.
	committedFilter := newFilter
	if !creq.WantsChanges() || (more && len(batch) < reconciled) {
		committedFilter = state.Filter
	}

	if replay {
		resp.Status = models.StatusSuccess
		resp.SyncKey = state.CurrentKey
		resp.Commands = batch
		resp.Responses = responses
		resp.MoreAvailable = more
		return resp, len(batch), false, nil
	}

	quiet := len(batch) == 0 && len(responses) == 0 && !more &&
		committedFilter == state.Filter && conflict == state.Conflict
	if quiet {
		return resp, 0, true, nil
	}

	newState := models.SyncState{
		DeviceID:     deviceID,
		CollectionID: collection.ID,
		CurrentKey:   mintSyncKey(),
		PreviousKey:  state.CurrentKey,
		SinceSeq:     newSince,
		PrevSinceSeq: base,
		Filter:       committedFilter,
		Ghosted:      state.Ghosted,
		Conflict:     conflict,
		UpdatedAt:    time.Now(),
	}

	if err := s.states.CompareAndSwap(ctx, state.CurrentKey, newState); err != nil {
		if errors.Is(err, store.ErrKeyMismatch) || errors.Is(err, store.ErrSyncStateNotFound) {
			resp.Status = models.StatusInvalidSyncKey
			return resp, 0, false, nil
		}
		return resp, 0, false, fmt.Errorf("committing sync state for collection %s: %w", collection.ID, err)
	}

	resp.Status = models.StatusSuccess
	resp.SyncKey = newState.CurrentKey
	resp.Commands = batch
	resp.Responses = responses
	resp.MoreAvailable = more
	return resp, len(batch), false, nil
}

// applyCommands runs the client's submitted commands in order. A failing
// command is reported in its own response and never aborts its siblings.
// The returned set names the items this request itself mutated, so
// enumeration can suppress echoing them back.
func (s *syncService) applyCommands(
	ctx context.Context,
	collection models.Collection,
	creq models.SyncCollectionRequest,
	state models.SyncState,
	base int64,
	conflict models.ConflictPolicy,
) ([]models.CommandResponse, map[string]struct{}, bool, error) {
	log := logger.FromContext(ctx)

	var responses []models.CommandResponse
	mutated := make(map[string]struct{})
	movedToTrash := false

	for _, command := range creq.Commands {
		switch cmd := command.(type) {
		case models.CommandAdd:
			response := models.CommandResponse{Op: string(models.OpAdd), ClientID: cmd.ClientID}

			if collection.ReadOnly {
				response.Status = models.StatusProtocolError
				responses = append(responses, response)
				continue
			}

			class := cmd.Class
			if class == "" {
				class = collection.Class
			}
			if status := validateAddItem(class, cmd.Props); status != models.StatusSuccess {
				response.Status = status
				responses = append(responses, response)
				continue
			}

			created, err := s.items.ApplyAdd(ctx, models.Item{
				CollectionID: collection.ID,
				Class:        class,
				Props:        cmd.Props,
			})
			if err != nil {
				if errors.Is(err, store.ErrItemAlreadyExists) {
					response.Status = models.StatusProtocolError
					responses = append(responses, response)
					continue
				}
				return nil, nil, false, fmt.Errorf("applying Add to collection %s: %w", collection.ID, err)
			}

			mutated[created.ServerID] = struct{}{}
			response.ServerID = created.ServerID
			response.Status = models.StatusSuccess
			responses = append(responses, response)

		case models.CommandChange:
			response := models.CommandResponse{Op: string(models.OpChange), ServerID: cmd.ServerID}

			item, err := s.items.Item(ctx, collection.ID, cmd.ServerID)
			if err != nil {
				if errors.Is(err, store.ErrItemNotFound) {
					response.Status = models.StatusObjectNotFound
					responses = append(responses, response)
					continue
				}
				return nil, nil, false, fmt.Errorf("loading item %s: %w", cmd.ServerID, err)
			}

			if changedSince(item, base) {
				if status := resolveConflict(conflict); status != models.StatusSuccess {
					log.Debug().
						Str("func", "syncService.applyCommands").
						Str("collection_id", collection.ID).
						Str("server_id", cmd.ServerID).
						Int64("item_version", item.Version).
						Int64("checkpoint", base).
						Msg("client change lost conflict resolution")
					response.Status = status
					responses = append(responses, response)
					continue
				}
			}

			item.Props = mergeChangeProps(item.Props, cmd.Props, state.Ghosted)
			if _, err := s.items.ApplyChange(ctx, item); err != nil {
				return nil, nil, false, fmt.Errorf("applying Change to item %s: %w", cmd.ServerID, err)
			}

			mutated[cmd.ServerID] = struct{}{}
			response.Status = models.StatusSuccess
			responses = append(responses, response)

		case models.CommandDelete:
			response := models.CommandResponse{Op: string(models.OpDelete), ServerID: cmd.ServerID}

			if collection.ReadOnly {
				response.Status = models.StatusProtocolError
				responses = append(responses, response)
				continue
			}

			var err error
			if creq.MovesOnDelete() && collection.ID != models.CollectionDeletedItems {
				_, err = s.items.MoveItem(ctx, cmd.ServerID, collection.ID, models.CollectionDeletedItems)
				if err == nil {
					movedToTrash = true
				}
			} else {
				err = s.items.ApplyDelete(ctx, collection.ID, cmd.ServerID)
			}
			if err != nil && !errors.Is(err, store.ErrItemNotFound) {
				return nil, nil, false, fmt.Errorf("applying Delete to item %s: %w", cmd.ServerID, err)
			}

			// Deleting an already-gone item is a success: the outcome the
			// client asked for holds either way.
			if err == nil {
				mutated[cmd.ServerID] = struct{}{}
			}
			response.Status = models.StatusSuccess
			responses = append(responses, response)

		case models.CommandFetch:
			response := models.CommandResponse{Op: "Fetch", ServerID: cmd.ServerID}

			item, err := s.items.Item(ctx, collection.ID, cmd.ServerID)
			if err != nil {
				if errors.Is(err, store.ErrItemNotFound) {
					response.Status = models.StatusObjectNotFound
					responses = append(responses, response)
					continue
				}
				return nil, nil, false, fmt.Errorf("fetching item %s: %w", cmd.ServerID, err)
			}

			payload := item.Clone()
			response.Item = &payload
			response.Status = models.StatusSuccess
			responses = append(responses, response)
		}
	}

	return responses, mutated, movedToTrash, nil
}

// publishAdvance pushes a change event for the collection's latest
// sequence to the coordinator.
func (s *syncService) publishAdvance(ctx context.Context, collectionID string) {
	seq, err := s.items.CurrentVersion(ctx, collectionID)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncService.publishAdvance").
			Str("collection_id", collectionID).
			Msg("reading collection version for change event failed")
		return
	}

	s.coordinator.Publish(models.ChangeEvent{
		CollectionID: collectionID,
		Seq:          seq,
		At:           time.Now(),
	})
}

// Estimate implements SyncService. It resolves the presented key exactly
// like Sync would, folds the same window and reports the entry count
// without touching the ledger.
func (s *syncService) Estimate(ctx context.Context, deviceID, collectionID, syncKey string) (models.EstimateResponse, error) {
	resp := models.EstimateResponse{CollectionID: collectionID}

	if deviceID == "" || collectionID == "" {
		return resp, ErrInvalidDataProvided
	}

	if _, err := s.items.Collection(ctx, collectionID); err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			resp.Status = models.StatusObjectNotFound
			return resp, nil
		}
		return resp, fmt.Errorf("loading collection %s: %w", collectionID, err)
	}

	state, err := s.states.Get(ctx, deviceID, collectionID)
	found := err == nil
	if err != nil && !errors.Is(err, store.ErrSyncStateNotFound) {
		return resp, fmt.Errorf("loading sync state for collection %s: %w", collectionID, err)
	}

	var base int64
	switch classifyKey(syncKey, state, found) {
	case keyInitial:
		// Estimate for the zero key is the size of the initial fill: every
		// item the unfiltered first incremental sync would deliver.
		base = 0
		state = models.SyncState{DeviceID: deviceID, CollectionID: collectionID}
	case keyCurrent:
		base = state.SinceSeq
	case keyReplay:
		base = state.PrevSinceSeq
	default:
		resp.Status = models.StatusInvalidSyncKey
		return resp, nil
	}

	enum, err := s.enumerate(ctx, state, base, nil, false, nil)
	if err != nil {
		return resp, err
	}

	resp.Status = models.StatusSuccess
	resp.Estimate = len(enum.entries)
	return resp, nil
}

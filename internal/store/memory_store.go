package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/airsyncd/airsyncd/models"
	"github.com/google/uuid"
)

// memoryCollection is one in-memory folder: its metadata, live items and
// the totally ordered change log. The owning MemoryStore mutex guards all
// fields.
type memoryCollection struct {
	meta  models.Collection
	items map[string]models.Item
	log   []models.ChangeLogRecord
	seq   int64
}

// MemoryStore is an in-memory implementation of [ItemStore]. It backs
// development deployments, the spool ingest worker and the engine tests.
// All operations are safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

var _ ItemStore = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// NewDefaultMemoryStore constructs a [MemoryStore] pre-seeded with the
// standard account collections: Inbox, Deleted Items, Calendar, Contacts,
// Tasks, Notes and the read-only recipient cache.
func NewDefaultMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	s.AddCollection(models.Collection{ID: models.CollectionInbox, Name: "Inbox", Class: models.ClassEmail})
	s.AddCollection(models.Collection{ID: models.CollectionDeletedItems, Name: "Deleted Items", Class: models.ClassEmail})
	s.AddCollection(models.Collection{ID: models.CollectionCalendar, Name: "Calendar", Class: models.ClassCalendar})
	s.AddCollection(models.Collection{ID: models.CollectionContacts, Name: "Contacts", Class: models.ClassContacts})
	s.AddCollection(models.Collection{ID: models.CollectionTasks, Name: "Tasks", Class: models.ClassTasks})
	s.AddCollection(models.Collection{ID: models.CollectionNotes, Name: "Notes", Class: models.ClassNotes})
	s.AddCollection(models.Collection{ID: models.CollectionRecipientCache, Name: "Recipient Cache", Class: models.ClassContacts, ReadOnly: true})
	return s
}

// AddCollection registers a new collection. Existing metadata for the same
// ID is replaced; items and log are preserved.
func (s *MemoryStore) AddCollection(meta models.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[meta.ID]; ok {
		c.meta = meta
		return
	}
	s.collections[meta.ID] = &memoryCollection{
		meta:  meta,
		items: make(map[string]models.Item),
	}
}

// Collection implements [ItemStore].
func (s *MemoryStore) Collection(_ context.Context, collectionID string) (models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return models.Collection{}, ErrCollectionNotFound
	}
	return c.meta, nil
}

// Collections implements [ItemStore].
func (s *MemoryStore) Collections(_ context.Context) ([]models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		result = append(result, c.meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Items implements [ItemStore]. Items are returned ordered by creation
// sequence so enumeration output is stable.
func (s *MemoryStore) Items(_ context.Context, collectionID string) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}

	result := make([]models.Item, 0, len(c.items))
	for _, item := range c.items {
		result = append(result, item.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedSeq < result[j].CreatedSeq })
	return result, nil
}

// Item implements [ItemStore].
func (s *MemoryStore) Item(_ context.Context, collectionID, serverID string) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return models.Item{}, ErrCollectionNotFound
	}
	item, ok := c.items[serverID]
	if !ok {
		return models.Item{}, ErrItemNotFound
	}
	return item.Clone(), nil
}

// ChangesSince implements [ItemStore].
func (s *MemoryStore) ChangesSince(_ context.Context, collectionID string, sinceSeq int64) ([]models.ChangeLogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return nil, ErrCollectionNotFound
	}

	// The log is appended in sequence order; binary search for the first
	// record past the checkpoint.
	idx := sort.Search(len(c.log), func(i int) bool { return c.log[i].Seq > sinceSeq })
	records := make([]models.ChangeLogRecord, len(c.log)-idx)
	copy(records, c.log[idx:])
	return records, nil
}

// CurrentVersion implements [ItemStore].
func (s *MemoryStore) CurrentVersion(_ context.Context, collectionID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return 0, ErrCollectionNotFound
	}
	return c.seq, nil
}

// ApplyAdd implements [ItemStore].
func (s *MemoryStore) ApplyAdd(_ context.Context, item models.Item) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[item.CollectionID]
	if !ok {
		return models.Item{}, ErrCollectionNotFound
	}

	if item.ServerID == "" {
		item.ServerID = uuid.NewString()
	}
	if _, exists := c.items[item.ServerID]; exists {
		return models.Item{}, ErrItemAlreadyExists
	}
	if item.Class == "" {
		item.Class = c.meta.Class
	}

	now := time.Now()
	c.seq++
	item = item.Clone()
	item.Version = c.seq
	item.CreatedSeq = c.seq
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	c.items[item.ServerID] = item
	c.log = append(c.log, models.ChangeLogRecord{Seq: c.seq, Op: models.OpAdd, ServerID: item.ServerID})

	return item.Clone(), nil
}

// ApplyChange implements [ItemStore].
func (s *MemoryStore) ApplyChange(_ context.Context, item models.Item) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[item.CollectionID]
	if !ok {
		return models.Item{}, ErrCollectionNotFound
	}
	current, ok := c.items[item.ServerID]
	if !ok {
		return models.Item{}, ErrItemNotFound
	}

	c.seq++
	updated := current.Clone()
	updated.Props = make(map[string]string, len(item.Props))
	for k, v := range item.Props {
		updated.Props[k] = v
	}
	updated.Version = c.seq
	updated.UpdatedAt = time.Now()

	c.items[updated.ServerID] = updated
	c.log = append(c.log, models.ChangeLogRecord{Seq: c.seq, Op: models.OpChange, ServerID: updated.ServerID})

	return updated.Clone(), nil
}

// ApplyDelete implements [ItemStore].
func (s *MemoryStore) ApplyDelete(_ context.Context, collectionID, serverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return ErrCollectionNotFound
	}
	if _, ok := c.items[serverID]; !ok {
		return ErrItemNotFound
	}

	c.seq++
	delete(c.items, serverID)
	c.log = append(c.log, models.ChangeLogRecord{Seq: c.seq, Op: models.OpDelete, ServerID: serverID})

	return nil
}

// MoveItem implements [ItemStore]. The source collection records a Delete,
// the destination records an Add; the item keeps its ServerID so a later
// fetch in the destination finds it.
func (s *MemoryStore) MoveItem(_ context.Context, serverID, fromCollectionID, toCollectionID string) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.collections[fromCollectionID]
	if !ok {
		return models.Item{}, ErrCollectionNotFound
	}
	to, ok := s.collections[toCollectionID]
	if !ok {
		return models.Item{}, ErrCollectionNotFound
	}
	item, ok := from.items[serverID]
	if !ok {
		return models.Item{}, ErrItemNotFound
	}

	from.seq++
	delete(from.items, serverID)
	from.log = append(from.log, models.ChangeLogRecord{Seq: from.seq, Op: models.OpDelete, ServerID: serverID})

	to.seq++
	moved := item.Clone()
	moved.CollectionID = toCollectionID
	moved.Version = to.seq
	moved.CreatedSeq = to.seq
	moved.UpdatedAt = time.Now()
	to.items[serverID] = moved
	to.log = append(to.log, models.ChangeLogRecord{Seq: to.seq, Op: models.OpAdd, ServerID: serverID})

	return moved.Clone(), nil
}

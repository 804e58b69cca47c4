package service

import (
	"sync"
	"time"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/models"
)

// Long-poll interval domains: Wait in minutes, HeartbeatInterval in
// seconds. A value outside its domain is answered with
// StatusInvalidWaitRange and the nearest boundary as Limit.
const (
	minWaitMinutes      = 1
	maxWaitMinutes      = 59
	minHeartbeatSeconds = 60
	maxHeartbeatSeconds = 3540
)

// longPollWindow validates the request's long-poll fields and converts
// them to a hold duration. Zero duration with StatusSuccess means no
// long poll was requested. Presence of both fields is a protocol error;
// a value outside its domain yields StatusInvalidWaitRange with the
// nearest legal boundary as limit.
func longPollWindow(waitMinutes, heartbeatSeconds int) (time.Duration, int, models.Status) {
	if waitMinutes != 0 && heartbeatSeconds != 0 {
		return 0, 0, models.StatusProtocolError
	}

	if waitMinutes != 0 {
		if waitMinutes < minWaitMinutes {
			return 0, minWaitMinutes, models.StatusInvalidWaitRange
		}
		if waitMinutes > maxWaitMinutes {
			return 0, maxWaitMinutes, models.StatusInvalidWaitRange
		}
		return time.Duration(waitMinutes) * time.Minute, 0, models.StatusSuccess
	}

	if heartbeatSeconds != 0 {
		if heartbeatSeconds < minHeartbeatSeconds {
			return 0, minHeartbeatSeconds, models.StatusInvalidWaitRange
		}
		if heartbeatSeconds > maxHeartbeatSeconds {
			return 0, maxHeartbeatSeconds, models.StatusInvalidWaitRange
		}
		return time.Duration(heartbeatSeconds) * time.Second, 0, models.StatusSuccess
	}

	return 0, 0, models.StatusSuccess
}

// ChangeCoordinator is the in-process publish/subscribe hub that wakes
// held long-poll requests and websocket watchers when a collection's
// change log advances.
//
// Events are delivered best-effort: a subscriber with a full channel is
// skipped, which is harmless because any single event is enough to make
// the held request re-enumerate.
type ChangeCoordinator struct {
	mu          sync.Mutex
	nextID      int64
	subscribers map[int64]*changeSubscriber

	logger *logger.Logger
}

type changeSubscriber struct {
	collections map[string]struct{}
	events      chan models.ChangeEvent
}

// NewChangeCoordinator constructs an empty coordinator.
func NewChangeCoordinator(logger *logger.Logger) *ChangeCoordinator {
	return &ChangeCoordinator{
		subscribers: make(map[int64]*changeSubscriber),
		logger:      logger,
	}
}

// Subscribe registers interest in the given collections. An empty list
// subscribes to every collection. The returned cancel function must be
// called exactly once; afterwards the channel is closed.
func (c *ChangeCoordinator) Subscribe(collectionIDs []string) (<-chan models.ChangeEvent, func()) {
	sub := &changeSubscriber{
		events: make(chan models.ChangeEvent, 16),
	}
	if len(collectionIDs) > 0 {
		sub.collections = make(map[string]struct{}, len(collectionIDs))
		for _, id := range collectionIDs {
			sub.collections[id] = struct{}{}
		}
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subscribers[id] = sub
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub.events)
		}
		c.mu.Unlock()
	}

	return sub.events, cancel
}

// Publish notifies every subscriber watching the event's collection.
func (c *ChangeCoordinator) Publish(event models.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscribers {
		if sub.collections != nil {
			if _, ok := sub.collections[event.CollectionID]; !ok {
				continue
			}
		}
		select {
		case sub.events <- event:
		default:
			c.logger.Debug().
				Str("func", "ChangeCoordinator.Publish").
				Str("collection_id", event.CollectionID).
				Msg("subscriber channel full, event dropped")
		}
	}
}

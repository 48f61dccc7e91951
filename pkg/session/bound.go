package session

import (
	"container/list"
	"sync"
)

// DefaultBoundCapacity bounds the message-bound mirror. Old entries only
// matter while their message is still reachable in the chat scrollback, so a
// few thousand keeps every realistically pressable button alive.
const DefaultBoundCapacity = 4096

type boundKey struct {
	chatID    int64
	messageID int
}

type boundEntry struct {
	key   boundKey
	state State
}

// BoundCache is the MessageStore implementation: a bounded LRU keyed by
// (chat, message). The source design never evicted; bounding it here is the
// fix for that leak.
type BoundCache struct {
	mu    sync.Mutex
	cap   int
	order *list.List // front = most recent
	items map[boundKey]*list.Element
}

// NewBoundCache creates a cache holding at most capacity entries;
// capacity <= 0 falls back to DefaultBoundCapacity.
func NewBoundCache(capacity int) *BoundCache {
	if capacity <= 0 {
		capacity = DefaultBoundCapacity
	}
	return &BoundCache{
		cap:   capacity,
		order: list.New(),
		items: make(map[boundKey]*list.Element),
	}
}

func (c *BoundCache) Get(chatID int64, messageID int) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[boundKey{chatID, messageID}]
	if !ok {
		return State{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*boundEntry).state.Clone(), true
}

func (c *BoundCache) Set(chatID int64, messageID int, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := boundKey{chatID, messageID}
	if el, ok := c.items[key]; ok {
		el.Value.(*boundEntry).state = s.Clone()
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&boundEntry{key: key, state: s.Clone()})
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*boundEntry).key)
	}
}

// Len reports the current entry count, for /debug.
func (c *BoundCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

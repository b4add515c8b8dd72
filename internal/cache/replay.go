package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Replay remembers the result recorded under a client key for a fixed
// window so a retried request gets the first answer back. Once full, the
// key used least recently is dropped first.
type Replay[T any] struct {
	capacity int
	window   time.Duration
	clock    func() time.Time

	// recording serializes Once so one key is never recorded twice.
	recording sync.Mutex

	mu    sync.Mutex
	index map[string]*list.Element
	order *list.List // front is most recently used

	hits, misses, dropped atomic.Int64
}

type replayEntry[T any] struct {
	key      string
	value    T
	storedAt time.Time
}

// ReplayStats counts lookups and capacity drops since creation.
type ReplayStats struct {
	Hits    int64
	Misses  int64
	Dropped int64
}

// NewReplay returns an empty cache holding up to capacity keys for window.
// capacity < 1 is treated as 1; a nil clock means time.Now.
func NewReplay[T any](capacity int, window time.Duration, clock func() time.Time) *Replay[T] {
	if capacity < 1 {
		capacity = 1
	}
	if clock == nil {
		clock = time.Now
	}
	return &Replay[T]{
		capacity: capacity,
		window:   window,
		clock:    clock,
		index:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Once returns the value remembered under key with replayed=true, or runs
// record and remembers its value when it succeeds. Failed records are not
// remembered so the client can retry them.
func (c *Replay[T]) Once(key string, record func() (T, error)) (v T, replayed bool, err error) {
	c.recording.Lock()
	defer c.recording.Unlock()

	if v, ok := c.Lookup(key); ok {
		return v, true, nil
	}
	v, err = record()
	if err != nil {
		return v, false, err
	}
	c.Remember(key, v)
	return v, false, nil
}

// Lookup returns the live value stored under key.
func (c *Replay[T]) Lookup(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.index[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	entry := elem.Value.(*replayEntry[T])
	if c.stale(entry, c.clock()) {
		c.drop(elem)
		c.misses.Add(1)
		return zero, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return entry.value, true
}

// Remember stores v under key, restarting its window.
func (c *Replay[T]) Remember(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &replayEntry[T]{key: key, value: v, storedAt: c.clock()}
	if elem, ok := c.index[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}
	c.index[key] = c.order.PushFront(entry)
	for c.order.Len() > c.capacity {
		c.drop(c.order.Back())
		c.dropped.Add(1)
	}
}

// Forget removes key.
func (c *Replay[T]) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		c.drop(elem)
	}
}

// CleanExpired drops every key whose window has passed and returns how
// many were dropped.
func (c *Replay[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	n := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if c.stale(elem.Value.(*replayEntry[T]), now) {
			c.drop(elem)
			n++
		}
		elem = prev
	}
	return n
}

func (c *Replay[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *Replay[T]) Stats() ReplayStats {
	return ReplayStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Dropped: c.dropped.Load()}
}

func (c *Replay[T]) stale(e *replayEntry[T], now time.Time) bool {
	return now.Sub(e.storedAt) > c.window
}

func (c *Replay[T]) drop(elem *list.Element) {
	delete(c.index, elem.Value.(*replayEntry[T]).key)
	c.order.Remove(elem)
}

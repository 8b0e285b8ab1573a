package playback

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source supplies encoded payloads on a cache miss.
type Source interface {
	Get(ctx context.Context, id string) (string, bool, error)
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries       int   `json:"entries"`
	SizeBytes     int64 `json:"size_bytes"`
	CapacityBytes int64 `json:"capacity_bytes"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Rejected      int64 `json:"rejected"`
	Evictions     int64 `json:"evictions"`
}

type entry struct {
	id  string
	uri string
}

// Cache is a least-recently-used map from asset id to playback URI, bounded by
// the total length of the cached URIs. Ids are matched case-insensitively. Get never performs I/O and is safe on
// the playback path; EnsureCached may block on the Source.
type Cache struct {
	source Source
	logger *slog.Logger
	group  singleflight.Group

	mu       sync.Mutex
	order    *list.List // front is most recently used
	items    map[string]*list.Element
	size     int64
	capacity int64

	hits, misses, rejected, evictions int64
}

// NewCache returns an empty cache with capacityBytes of room.
func NewCache(capacityBytes int64, source Source, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source:   source,
		logger:   logger.With("component", "playback_cache"),
		order:    list.New(),
		items:    map[string]*list.Element{},
		capacity: capacityBytes,
	}
}

// Get returns the cached URI for id and marks it most recently used.
func (c *Cache) Get(id string) (string, bool) {
	id = cacheKey(id)
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		c.misses++
		return "", false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).uri, true
}

// Put caches uri under id. A uri longer than the whole capacity is not cached;
// otherwise least recently used entries are evicted until it fits.
func (c *Cache) Put(id, uri string) {
	id = cacheKey(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(id, uri)
}

func (c *Cache) putLocked(id, uri string) {
	size := int64(len(uri))
	if el, ok := c.items[id]; ok {
		c.removeLocked(el)
	}
	if size > c.capacity {
		c.rejected++
		c.logger.Debug("entry larger than cache capacity", "id", id, "size_bytes", size, "capacity_bytes", c.capacity)
		return
	}
	c.evictLocked(c.capacity - size)
	c.items[id] = c.order.PushFront(&entry{id: id, uri: uri})
	c.size += size
}

// EnsureCached returns the URI for id, reading it from the Source on a miss.
// An id unknown to the Source yields ("", false, nil).
func (c *Cache) EnsureCached(ctx context.Context, id string) (string, bool, error) {
	id = cacheKey(id)
	if uri, ok := c.Get(id); ok {
		return uri, true, nil
	}
	if c.source == nil {
		return "", false, fmt.Errorf("playback cache has no source")
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		uri, found, err := c.source.Get(ctx, id)
		if err != nil || !found {
			return "", err
		}
		c.Put(id, uri)
		return uri, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("load asset %s: %w", id, err)
	}
	uri := v.(string)
	if uri == "" {
		return "", false, nil
	}
	return uri, true, nil
}

// Remove drops id from the cache.
func (c *Cache) Remove(id string) {
	id = cacheKey(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[id]; ok {
		c.removeLocked(el)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = map[string]*list.Element{}
	c.size = 0
}

// SetCapacity changes the byte budget, evicting as needed.
func (c *Cache) SetCapacity(capacityBytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if capacityBytes == c.capacity {
		return
	}
	c.logger.Info("playback cache capacity changed", "from_bytes", c.capacity, "to_bytes", capacityBytes)
	c.capacity = capacityBytes
	c.evictLocked(capacityBytes)
}

// Stats returns counters and size accounting.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:       len(c.items),
		SizeBytes:     c.size,
		CapacityBytes: c.capacity,
		Hits:          c.hits,
		Misses:        c.misses,
		Rejected:      c.rejected,
		Evictions:     c.evictions,
	}
}

// evictLocked drops least recently used entries until size <= limit.
func (c *Cache) evictLocked(limit int64) {
	for c.size > limit {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		c.removeLocked(oldest)
		c.evictions++
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.items, e.id)
	c.size -= int64(len(e.uri))
}

func cacheKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

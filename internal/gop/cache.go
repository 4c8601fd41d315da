// The per-stream GOP cache: a bounded FIFO of completed GOPs plus the
// in-flight GOP, with a byte-size eviction bound and a keyframe-first
// snapshot contract so a new subscriber never starts mid-frame-group.
package gop

import "sync"

const (
	// DefaultMaxGops is the default cap on completed_gops length.
	DefaultMaxGops = 2
	// DefaultMaxCacheBytes is the default cap on total cached bytes.
	DefaultMaxCacheBytes = 100 * 1024 * 1024
)

// completedGOP is a closed group of pictures: a keyframe and its dependents.
type completedGOP struct {
	frames []*Frame
	bytes  int
}

// Cache holds the recent GOPs for one (room_id, media_id) stream. All
// mutation and reads happen under one mutex: snapshot is a read that must
// never observe a torn append, and appends must never interleave a partial
// GOP move, so a single RWMutex is simpler and safer here than a lock-free
// structure would be.
type Cache struct {
	mu            sync.RWMutex
	maxGops       int
	maxCacheBytes int
	completed     []*completedGOP
	current       []*Frame
	currentBytes  int
	totalBytes    int
}

// NewCache creates a GOP cache with the given bounds. A non-positive bound
// falls back to the package default.
func NewCache(maxGops, maxCacheBytes int) *Cache {
	if maxGops <= 0 {
		maxGops = DefaultMaxGops
	}
	if maxCacheBytes <= 0 {
		maxCacheBytes = DefaultMaxCacheBytes
	}
	return &Cache{
		maxGops:       maxGops,
		maxCacheBytes: maxCacheBytes,
	}
}

// Append adds an incoming frame to the cache: a keyframe closes the current
// GOP into the completed list (evicting the oldest past maxGops), the frame
// is appended to the current GOP, and the byte bound is enforced by
// dropping the oldest completed GOPs. A non-keyframe that arrives while no
// GOP has been started (before the first keyframe, or after Reset) is
// discarded, so every GOP begins with a keyframe.
func (c *Cache) Append(f *Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !f.IsKeyframe && len(c.current) == 0 {
		return
	}

	if f.IsKeyframe && len(c.current) > 0 {
		c.completed = append(c.completed, &completedGOP{frames: c.current, bytes: c.currentBytes})
		c.current = nil
		c.currentBytes = 0

		for len(c.completed) > c.maxGops {
			c.totalBytes -= c.completed[0].bytes
			c.completed = c.completed[1:]
		}
	}

	c.current = append(c.current, f)
	c.currentBytes += f.Size()
	c.totalBytes += f.Size()

	for c.totalBytes > c.maxCacheBytes && len(c.completed) > 0 {
		c.totalBytes -= c.completed[0].bytes
		c.completed = c.completed[1:]
	}
}

// Snapshot returns every frame presently cached, completed GOPs first then
// the in-flight GOP, so a new subscriber receives prior data ending with the
// most recent frames. The first frame of a non-empty snapshot is always a
// keyframe, since every completed GOP and the first frame ever appended to
// `current` after a reset begin with one.
func (c *Cache) Snapshot() []*Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := len(c.current)
	for _, g := range c.completed {
		total += len(g.frames)
	}
	out := make([]*Frame, 0, total)
	for _, g := range c.completed {
		out = append(out, g.frames...)
	}
	out = append(out, c.current...)
	return out
}

// TotalBytes returns the cache's current total_bytes accounting.
func (c *Cache) TotalBytes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalBytes
}

// CompletedGopCount returns the number of closed GOPs currently retained.
func (c *Cache) CompletedGopCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.completed)
}

// Reset clears the cache, used when a Publisher releases its claim.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = nil
	c.current = nil
	c.currentBytes = 0
	c.totalBytes = 0
}

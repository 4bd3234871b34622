package flicker

import (
	"container/list"
	"image"
	"strconv"
	"strings"
)

// DefaultCacheBudget is the default byte budget of a CacheStore.
const DefaultCacheBudget = 64 << 20

// Cache entry kinds.
const (
	CacheKindShape = "shape"
	CacheKindMorph = "morph"
)

// CacheKey derives the content-addressed key of a rasterization: the kind,
// the quoted source namespace, the character id, both quantized scales,
// every color transform component and the morph ratio. Floats are written
// in shortest round-trip form so distinct values never share a key.
func CacheKey(kind, namespace string, id int, scaleX, scaleY float64, ct ColorTransform, ratio float64) string {
	var b strings.Builder
	b.Grow(96)
	b.WriteString(kind)
	b.WriteByte('|')
	b.WriteString(strconv.Quote(namespace))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(id))
	b.WriteByte('|')
	writeFloat(&b, scaleX)
	b.WriteByte('x')
	writeFloat(&b, scaleY)
	b.WriteByte('|')
	for i, v := range ct {
		if i > 0 {
			b.WriteByte(',')
		}
		writeFloat(&b, v)
	}
	b.WriteByte('|')
	writeFloat(&b, ratio)
	return b.String()
}

func writeFloat(b *strings.Builder, v float64) {
	if v == 0 {
		// Fold -0 into 0; they render identically.
		v = 0
	}
	b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
	Bytes     int64
}

type cacheEntry struct {
	key  string
	img  *image.RGBA
	size int64
}

// CacheStore memoizes rasterized surfaces by key. Entries are evicted least
// recently used first once their total pixel bytes exceed the budget; the
// entry just inserted is never evicted by its own insertion. Like
// SurfacePool it is confined to the render goroutine.
type CacheStore struct {
	budget int64
	bytes  int64
	ll     *list.List
	items  map[string]*list.Element
	stats  CacheStats
}

// NewCacheStore creates a cache with a byte budget. A budget of zero or
// less disables eviction.
func NewCacheStore(budget int64) *CacheStore {
	return &CacheStore{
		budget: budget,
		ll:     list.New(),
		items:  make(map[string]*list.Element),
	}
}

// Get returns the surface stored under key.
func (c *CacheStore) Get(key string) (*image.RGBA, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).img, true
}

// GetOrRender returns the surface stored under key, or calls render and
// stores its result. hit reports whether the surface came from the cache.
// A nil render result is returned but not stored.
func (c *CacheStore) GetOrRender(key string, render func() *image.RGBA) (img *image.RGBA, hit bool) {
	if img, ok := c.Get(key); ok {
		c.stats.Hits++
		return img, true
	}
	c.stats.Misses++
	img = render()
	if img == nil {
		return nil, false
	}
	c.put(key, img)
	return img, false
}

func (c *CacheStore) put(key string, img *image.RGBA) {
	e := &cacheEntry{key: key, img: img, size: int64(len(img.Pix))}
	c.items[key] = c.ll.PushFront(e)
	c.bytes += e.size
	for c.budget > 0 && c.bytes > c.budget && c.ll.Len() > 1 {
		c.removeElement(c.ll.Back())
		c.stats.Evictions++
	}
}

func (c *CacheStore) removeElement(el *list.Element) {
	e := c.ll.Remove(el).(*cacheEntry)
	delete(c.items, e.key)
	c.bytes -= e.size
}

// Destroy drops the entry under key. It reports whether one existed.
func (c *CacheStore) Destroy(key string) bool {
	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// Reset drops every entry. Counters are kept.
func (c *CacheStore) Reset() {
	c.ll.Init()
	clear(c.items)
	c.bytes = 0
}

// Len returns the number of entries.
func (c *CacheStore) Len() int { return c.ll.Len() }

// Bytes returns the pixel bytes held by all entries.
func (c *CacheStore) Bytes() int64 { return c.bytes }

// Budget returns the byte budget.
func (c *CacheStore) Budget() int64 { return c.budget }

// Stats returns a snapshot of the cache counters.
func (c *CacheStore) Stats() CacheStats {
	s := c.stats
	s.Entries = c.ll.Len()
	s.Bytes = c.bytes
	return s
}

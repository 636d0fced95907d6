// Package pagecache keeps each user's first page of entries in a
// freecache.Cache.
//
// Pages are keyed by a per-user generation. Invalidate bumps the
// generation, so every write makes earlier pages unreachable without
// deleting them; freecache evicts them in time.
package pagecache

import (
	"encoding/binary"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
)

// DefaultTTL bounds how long a page may be served without a write.
const DefaultTTL = 5 * time.Minute

type Cache struct {
	c   *freecache.Cache
	ttl int

	// seq seeds generations so an evicted counter never reuses old keys.
	seq atomic.Int64
}

// New allocates a cache of sizeBytes (freecache's minimum is 512 KiB).
func New(sizeBytes int, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{c: freecache.NewCache(sizeBytes), ttl: int(ttl.Seconds())}
	c.seq.Store(time.Now().UnixNano())
	return c
}

func genKey(userID string) []byte { return []byte("gen:" + userID) }

func (c *Cache) generation(userID string) uint64 {
	if v, err := c.c.Get(genKey(userID)); err == nil && len(v) == 8 {
		return binary.BigEndian.Uint64(v)
	}
	return c.bump(userID)
}

func (c *Cache) bump(userID string) uint64 {
	gen := uint64(c.seq.Add(1))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], gen)
	_ = c.c.Set(genKey(userID), buf[:], 0)
	return gen
}

func (c *Cache) pageKey(userID string, limit int) []byte {
	gen := c.generation(userID)
	return []byte("page:" + userID + ":" + strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(limit))
}

// Get returns the cached first page of userID for limit.
func (c *Cache) Get(userID string, limit int) ([]byte, bool) {
	v, err := c.c.Get(c.pageKey(userID, limit))
	if err != nil {
		return nil, false
	}
	return v, true
}

func (c *Cache) Set(userID string, limit int, page []byte) {
	_ = c.c.Set(c.pageKey(userID, limit), page, c.ttl)
}

// Invalidate drops every cached page of userID.
func (c *Cache) Invalidate(userID string) {
	c.bump(userID)
}

package cache

import (
	"fmt"
	"time"
)

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Block is a time-boxed "stop sending requests" flag kept in a cache, so a
// restarted process still honours a rate limit it was given.
type Block struct {
	cache CacheService
	key   string
}

// NewBlock returns a block flag stored under key. A nil cache disables it.
func NewBlock(cache CacheService, key string) *Block {
	return &Block{cache: cache, key: key}
}

// Active reports whether the flag is set
func (b *Block) Active() bool {
	if b == nil || b.cache == nil {
		return false
	}
	_, err := b.cache.Get(b.key)
	return err == nil
}

// Set raises the flag for d
func (b *Block) Set(d time.Duration) error {
	if b == nil || b.cache == nil || d <= 0 {
		return nil
	}
	return b.cache.Set(b.key, []byte(fmt.Sprintf("%d", int(d/time.Second))), d)
}

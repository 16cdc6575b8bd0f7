// Package caching is a small in-process TTL cache for values that are read
// on every request but change rarely, such as stored settings.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultTTL      = 10 * time.Minute
	cleanupInterval = 10 * time.Minute
)

type Cache struct {
	memoryCache *cache.Cache
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{memoryCache: cache.New(ttl, cleanupInterval)}
}

func (s *Cache) GetString(key string) (string, bool) {
	v, ok := s.memoryCache.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

func (s *Cache) SetString(key, value string) {
	s.memoryCache.SetDefault(key, value)
}

func (s *Cache) Delete(key string) {
	s.memoryCache.Delete(key)
}

func (s *Cache) Flush() {
	s.memoryCache.Flush()
}

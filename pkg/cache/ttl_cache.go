// Package cache, generic in-memory TTL cache.
//
// TTLCache, belirli bir süre sonra kendiliğinden geçersiz olan kayıtları
// tutan thread-safe bir yapıdır.
//
// Kullanım alanı:
// Status sunucusu her request'te bearer token'ı parse eder. Aynı token
// dakikalarca tekrar tekrar gelir, bu yüzden token -> user id sonucu
// burada tutulur (bkz. token.Validator). Sık okunan ama nadiren değişen
// veri için uygundur.
//
// TTL (Time To Live) nedir?
// Her entry bir son kullanma zamanı taşır. Bu zaman geçince Get entry'yi
// görmez (cache miss). Süresi dolmuş entry'ler arka plandaki goroutine
// tarafından cleanupInterval aralıklarla fiziksel olarak silinir.
//
// Neden unread sayacı için kullanılmıyor?
// Cache process-local'dir: transaction rollback olduğunda geri alınmaz,
// restart sonrası boştur. "Bu mesaj sayıldı mı?" sorusu kalıcı ve
// transaction'a bağlı olmalı; o iş observed_messages tablosundadır.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is safe for concurrent use.
//
// Generic nedir? (Go 1.18+)
// K ve V tip parametreleridir; cache oluşturulurken concrete tipler verilir:
//
//	users := cache.New[string, string](5*time.Minute, time.Minute)
//	users.Set(rawToken, "alice")
//	id, ok := users.Get(rawToken)
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// New starts the cleanup goroutine; call Close when done with the cache.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get returns the value for key unless it is missing or expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// SetIfAbsent stores value only when key has no live entry and reports
// whether it did. Check and write happen under one lock.
func (c *TTLCache[K, V]) SetIfAbsent(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && !now.After(e.expiresAt) {
		return false
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
	return true
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// DeleteFunc removes every key matching predicate.
func (c *TTLCache[K, V]) DeleteFunc(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if predicate(key) {
			delete(c.entries, key)
		}
	}
}

func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]entry[V])
}

// Len counts entries including expired ones not yet swept.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *TTLCache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

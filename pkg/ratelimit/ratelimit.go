// Package ratelimit, local status sunucusundaki başarısız token denemelerini
// IP bazlı sınırlar.
//
// Tasarım:
//   - Her key (client IP) için fixed window tutulur: ilk deneme window'u açar,
//     window içindeki her başarısız deneme sayacı artırır.
//   - Sayaç maxAttempts'i geçince key window bitene kadar reddedilir (429).
//   - Başarılı istek Reset() ile sayacı sıfırlar.
//   - Arka plandaki goroutine süresi dolmuş bucket'ları temizler, map
//     sınırsız büyümez.
//
// Neden in-memory?
// Tek process, tek kullanıcı. Deneme sayısını SQLite'a yazmak batch
// transaction'ları ile gereksiz contention yaratır.
//
// Neden ayrı paket?
// handlers ve ws ikisi de kullanabilsin diye proje içi hiçbir pakete bağımlı
// değildir (leaf dependency).
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// AttemptLimiter is safe for concurrent use. Call Close to stop its cleanup
// goroutine.
type AttemptLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

func NewAttemptLimiter(maxAttempts int, window time.Duration) *AttemptLimiter {
	rl := &AttemptLimiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Blocked reports whether key used up its attempts in the current window.
func (rl *AttemptLimiter) Blocked(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || rl.now().Sub(b.windowStart) > rl.window {
		return false
	}
	return b.count >= rl.maxAttempts
}

// Fail records a failed attempt for key.
func (rl *AttemptLimiter) Fail(key string) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) > rl.window {
		rl.buckets[key] = &bucket{count: 1, windowStart: now}
		return
	}
	b.count++
}

// Reset forgets key, after a successful attempt.
func (rl *AttemptLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

// RetryAfterSeconds is the time left in key's window, rounded up.
func (rl *AttemptLimiter) RetryAfterSeconds(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return 0
	}
	remaining := rl.window - rl.now().Sub(b.windowStart)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

func (rl *AttemptLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *AttemptLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *AttemptLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, key)
		}
	}
}

// ExtractIP returns the client address, honouring X-Forwarded-For (first
// entry) and X-Real-IP.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

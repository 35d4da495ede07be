package httpserver

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxGlobalConnections = 10000
	connectionsPerSecond = 5.0
	connectionBurst      = 10
	limiterIdleTTL       = 10 * time.Minute
)

// connectionLimits guards the WebSocket endpoint: a global cap on
// concurrent connections plus a per-IP token bucket on connection
// attempts.
type connectionLimits struct {
	current atomic.Int64
	max     int64

	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	cleanupAt time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newConnectionLimits() *connectionLimits {
	return &connectionLimits{
		max:       maxGlobalConnections,
		limiters:  make(map[string]*rateLimiterEntry),
		cleanupAt: time.Now().Add(limiterIdleTTL),
	}
}

// acquire reserves a global connection slot. Returns false at capacity.
func (l *connectionLimits) acquire() bool {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *connectionLimits) release() {
	l.current.Add(-1)
}

// allowConnect rate limits connection attempts from one IP. Idle
// per-IP buckets are swept opportunistically.
func (l *connectionLimits) allowConnect(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.cleanupAt) {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(l.limiters, key)
			}
		}
		l.cleanupAt = now.Add(limiterIdleTTL)
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &rateLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(connectionsPerSecond), connectionBurst),
		}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now

	return entry.limiter.Allow()
}

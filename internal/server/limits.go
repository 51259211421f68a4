package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ConnectionLimits bounds concurrent websocket subscribers, both in total and
// per source IP. The global count is lock-free; the per-IP map is guarded by
// a mutex.
type ConnectionLimits struct {
	current atomic.Int64
	max     int64

	mu     sync.Mutex
	perIP  map[string]int
	maxPer int
}

// LimitReason describes why a connection was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
)

func NewConnectionLimits(globalMax int64, perIPMax int) *ConnectionLimits {
	return &ConnectionLimits{
		max:    globalMax,
		perIP:  make(map[string]int),
		maxPer: perIPMax,
	}
}

// Acquire claims a subscriber slot for the given IP. It returns false and
// the limit that was hit when either bound is exhausted.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false, LimitReasonGlobal
		}
		if l.current.CompareAndSwap(current, current+1) {
			break
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.perIP[ip] >= l.maxPer {
		l.current.Add(-1)
		return false, LimitReasonPerIP
	}
	l.perIP[ip]++

	return true, ""
}

// Release returns the slot claimed by Acquire.
func (l *ConnectionLimits) Release(ip string) {
	l.mu.Lock()
	if count := l.perIP[ip]; count > 0 {
		l.perIP[ip] = count - 1
		if l.perIP[ip] == 0 {
			delete(l.perIP, ip)
		}
	}
	l.mu.Unlock()

	l.current.Add(-1)
}

// Current returns the number of active subscriber slots.
func (l *ConnectionLimits) Current() int64 {
	return l.current.Load()
}

// CountFor returns the active slots held by one IP.
func (l *ConnectionLimits) CountFor(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}

const limiterCleanupInterval = 5 * time.Minute

// SubmissionRateLimiter throttles comment submissions per source IP with a
// token bucket per IP. Buckets idle for two cleanup intervals are dropped.
type SubmissionRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSubmissionRateLimiter creates a limiter allowing the given sustained
// submissions per second with the given burst per IP.
func NewSubmissionRateLimiter(perSecond float64, burst int) *SubmissionRateLimiter {
	return &SubmissionRateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Limit(perSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(limiterCleanupInterval),
	}
}

// Allow reports whether a submission from the given IP may proceed.
func (l *SubmissionRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(limiterCleanupInterval)
	}

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// cleanup drops buckets idle beyond two intervals. Must be called with mu held.
func (l *SubmissionRateLimiter) cleanup() {
	cutoff := time.Now().Add(-2 * limiterCleanupInterval)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// ActiveLimiters returns the number of tracked IPs.
func (l *SubmissionRateLimiter) ActiveLimiters() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

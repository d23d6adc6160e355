package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Actions with their own budget. Anything else gets the default.
const (
	ActionSubmitProposal    = "submit_proposal"
	ActionResolveProposal   = "resolve_proposal"
	ActionCreateReport      = "create_report"
	ActionCreatePublication = "create_publication"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	buckets map[string]*bucket
	mutex   sync.Mutex
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func limiterFor(action string) *rate.Limiter {
	switch action {
	case ActionSubmitProposal:
		// 10 proposals per minute, burst 5
		return rate.NewLimiter(rate.Every(6*time.Second), 5)
	case ActionResolveProposal:
		return rate.NewLimiter(rate.Every(time.Second), 10)
	case ActionCreateReport:
		// 5 reports per hour
		return rate.NewLimiter(rate.Every(12*time.Minute), 5)
	case ActionCreatePublication:
		return rate.NewLimiter(rate.Every(30*time.Second), 5)
	default:
		return rate.NewLimiter(rate.Every(3*time.Second), 20)
	}
}

// Allow reports whether userID may perform action now. When it may not, the
// second value is how long until the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action
	now := rl.now()

	rl.mutex.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: limiterFor(action)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mutex.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// GetStatus returns the tokens currently available and the bucket size.
func (rl *RateLimiter) GetStatus(userID, action string) (float64, int) {
	rl.mutex.Lock()
	b, ok := rl.buckets[userID+":"+action]
	rl.mutex.Unlock()

	if !ok {
		l := limiterFor(action)
		return float64(l.Burst()), l.Burst()
	}
	return b.limiter.TokensAt(rl.now()), b.limiter.Burst()
}

// Cleanup drops buckets idle for more than an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) StartCleanupRoutine(done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-done:
				return
			}
		}
	}()
}

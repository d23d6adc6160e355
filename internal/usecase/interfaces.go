package usecase

import "time"

// RateLimiter budgets user actions. A false result carries the wait until
// the next allowed attempt.
type RateLimiter interface {
	Allow(userID, action string) (bool, time.Duration)
}

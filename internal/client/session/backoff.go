package session

import "time"

// Backoff returns min(base*2^attempt, limit). Negative attempts count as zero.
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base >= limit {
		return limit
	}
	d := base
	for i := 0; i < attempt; i++ {
		if d > limit/2 {
			return limit
		}
		d *= 2
	}
	return d
}

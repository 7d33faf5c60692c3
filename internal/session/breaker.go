package session

import "sync"

// Breaker marks a listener as degraded after consecutive stream failures.
// It never stops reconnection; it only changes what the UI is told.
type Breaker struct {
	mu                  sync.Mutex
	consecutiveFailures int
	threshold           int
	tripped             bool
}

// NewBreaker creates a breaker with the given threshold.
func NewBreaker(threshold int) *Breaker {
	if threshold <= 0 {
		threshold = 3 // default
	}
	return &Breaker{threshold: threshold}
}

// RecordFailure counts a broken stream and reports whether the breaker is tripped.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	if b.consecutiveFailures >= b.threshold {
		b.tripped = true
	}
	return b.tripped
}

// RecordSuccess resets the counter and reports whether the breaker was
// tripped before the call.
func (b *Breaker) RecordSuccess() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	was := b.tripped
	b.consecutiveFailures = 0
	b.tripped = false
	return was
}

// Tripped returns true once the threshold has been reached.
func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}

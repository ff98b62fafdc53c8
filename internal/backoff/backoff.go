// Package backoff provides a minimal exponential backoff timer for retry
// loops.
package backoff

import "time"

// Backoff yields exponentially growing delays from a base up to a cap.
type Backoff struct {
	cur time.Duration
	max time.Duration
}

// New constructs a backoff starting at base and doubling up to max.
func New(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &Backoff{cur: base, max: max}
}

// Next returns the next delay and advances the window.
func (b *Backoff) Next() time.Duration {
	if b.cur >= b.max {
		return b.max
	}
	d := b.cur
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	return d
}

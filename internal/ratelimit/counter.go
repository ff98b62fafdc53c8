// Package ratelimit provides a lightweight counter for throttling warning
// logs. Enrichment failures can arrive in bursts of thousands; callers count
// every occurrence but only log a sample.
package ratelimit

import (
	"sync/atomic"
	"time"
)

// Counter tracks a total occurrence count and the last time a log line was
// allowed through. It is safe for concurrent use.
type Counter struct {
	interval time.Duration
	lastLog  atomic.Int64
	total    atomic.Uint64
}

// NewCounter constructs a Counter that permits a log line at most once per
// interval. A zero or negative interval disables throttling.
func NewCounter(interval time.Duration) *Counter {
	return &Counter{interval: interval}
}

// Inc records one occurrence and reports the running total plus whether the
// caller should log this one.
func (c *Counter) Inc() (uint64, bool) {
	if c == nil {
		return 0, false
	}
	total := c.total.Add(1)
	if c.interval <= 0 {
		return total, true
	}
	now := time.Now().UTC().UnixNano()
	last := c.lastLog.Load()
	if now-last < c.interval.Nanoseconds() {
		return total, false
	}
	if c.lastLog.CompareAndSwap(last, now) {
		return total, true
	}
	return total, false
}

// Total returns the number of occurrences recorded so far.
func (c *Counter) Total() uint64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}

package traffic

import (
	"sync"
	"time"
)

// Outcome classifies how a subscription request ended.
type Outcome int

const (
	// Accepted is a valid subscription answered with 200.
	Accepted Outcome = iota
	// Rejected is a subscription answered with 400 (parse or validation failure).
	Rejected
	// Denied is a subscription turned away by the rate limiter (429).
	Denied
	numOutcomes
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// retention bounds how long timestamps are kept; windows longer than this undercount.
const retention = 5 * time.Minute

var defaultTracker Tracker

// Record records an outcome on the process-wide tracker.
func Record(o Outcome) {
	defaultTracker.Record(o)
}

// Count returns the number of o outcomes within the window on the process-wide tracker.
func Count(o Outcome, window time.Duration) int {
	return defaultTracker.Count(o, window)
}

// Total returns all outcomes within the window on the process-wide tracker.
func Total(window time.Duration) int {
	return defaultTracker.Total(window)
}

// Reset clears the process-wide tracker. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// Tracker maintains sliding windows of outcome timestamps. The zero value is ready to use.
type Tracker struct {
	mu    sync.Mutex
	times [numOutcomes][]time.Time
}

// Record appends the current time to the outcome's window.
func (t *Tracker) Record(o Outcome) {
	if o < 0 || o >= numOutcomes {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.times[o] = append(t.times[o], now)
	t.pruneLocked(now)
}

// Count returns the number of o outcomes recorded within the window.
func (t *Tracker) Count(o Outcome, window time.Duration) int {
	if o < 0 || o >= numOutcomes {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return countInWindow(t.times[o], time.Now().Add(-window))
}

// Total returns the number of outcomes of any kind recorded within the window.
func (t *Tracker) Total(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	n := 0
	for _, times := range t.times {
		n += countInWindow(times, cutoff)
	}
	return n
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.times {
		t.times[i] = nil
	}
}

func countInWindow(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than retention. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	for o, times := range t.times {
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			t.times[o] = append(times[:0], times[i:]...)
		}
	}
}

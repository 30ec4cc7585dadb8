package ws

import (
	"context"
	"sync"
	"time"
)

// Tracker keeps the live-visitor map per domain. Purely in memory: counts
// reset on restart and are never persisted. A visitor that stops
// heartbeating for longer than the timeout is treated as departed even
// without an explicit leave.
type Tracker struct {
	mu       sync.Mutex
	domains  map[string]map[string]time.Time
	timeout  time.Duration
	interval time.Duration
}

func NewTracker(timeout time.Duration) *Tracker {
	return &Tracker{
		domains:  make(map[string]map[string]time.Time),
		timeout:  timeout,
		interval: timeout / 2,
	}
}

func (t *Tracker) Join(domainID, visitorID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	visitors, ok := t.domains[domainID]
	if !ok {
		visitors = make(map[string]time.Time)
		t.domains[domainID] = visitors
	}
	visitors[visitorID] = time.Now()
}

func (t *Tracker) Leave(domainID, visitorID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if visitors, ok := t.domains[domainID]; ok {
		delete(visitors, visitorID)
		if len(visitors) == 0 {
			delete(t.domains, domainID)
		}
	}
}

// Activity refreshes a visitor's heartbeat. An activity ping from an unknown
// visitor counts as a join; the widget may reconnect without re-joining.
func (t *Tracker) Activity(domainID, visitorID string) {
	t.Join(domainID, visitorID)
}

// Count returns the current live-visitor count for one domain.
func (t *Tracker) Count(domainID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expire(time.Now())
	return len(t.domains[domainID])
}

// Counts returns live-visitor counts for every domain with at least one
// visitor.
func (t *Tracker) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expire(time.Now())
	counts := make(map[string]int, len(t.domains))
	for domainID, visitors := range t.domains {
		counts[domainID] = len(visitors)
	}
	return counts
}

// Run sweeps expired heartbeats on a short interval until ctx is done. This
// timer is independent of the retention sweeper's.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.mu.Lock()
			t.expire(now)
			t.mu.Unlock()
		}
	}
}

// expire removes visitors whose last heartbeat is older than the timeout.
// Caller holds the lock.
func (t *Tracker) expire(now time.Time) {
	for domainID, visitors := range t.domains {
		for visitorID, lastSeen := range visitors {
			if now.Sub(lastSeen) > t.timeout {
				delete(visitors, visitorID)
			}
		}
		if len(visitors) == 0 {
			delete(t.domains, domainID)
		}
	}
}

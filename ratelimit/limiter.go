// Package ratelimit implements a per-key sliding-window log limiter.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spaolacci/murmur3"

	"portfolio/api/models"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
	Window    time.Duration
}

// RetryAfter is the time left until ResetAt, never negative.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Key hashes the identity and category into a single rate-limit key.
func Key(client models.ClientIdentity, category string) string {
	h1, h2 := murmur3.Sum128([]byte(client.IP + ":" + client.UserAgent + ":" + category))
	return fmt.Sprintf("%016x%016x", h1, h2)
}

type window struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// prune drops timestamps at least span old. The caller holds w.mu.
func (w *window) prune(now time.Time, span time.Duration) {
	keep := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if now.Sub(ts) < span {
			keep = append(keep, ts)
		}
	}
	w.timestamps = keep
}

// Limiter keeps one timestamp log per key. Logs are created lazily and never removed.
type Limiter struct {
	policies Policies
	clock    clockwork.Clock

	mu      sync.Mutex
	windows map[string]*window
}

// NewLimiter returns a limiter over policies. A nil clock uses the real clock.
func NewLimiter(policies Policies, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if policies == nil {
		policies = DefaultPolicies()
	}

	return &Limiter{
		policies: policies,
		clock:    clock,
		windows:  make(map[string]*window),
	}
}

func (l *Limiter) window(key string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	return w
}

// Admit prunes the key's log, then records the request if it is under the limit.
// Prune, check and append run under the key's lock.
func (l *Limiter) Admit(client models.ClientIdentity, category string) Decision {
	return l.check(client, category, true)
}

// Peek reports the current quota without recording a request.
func (l *Limiter) Peek(client models.ClientIdentity, category string) Decision {
	return l.check(client, category, false)
}

func (l *Limiter) check(client models.ClientIdentity, category string, record bool) Decision {
	policy := l.policies.Lookup(category)
	w := l.window(Key(client, category))
	now := l.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now, policy.Window)

	allowed := len(w.timestamps) < policy.MaxRequests
	if allowed && record {
		w.timestamps = append(w.timestamps, now)
	}

	decision := Decision{
		Allowed: allowed,
		Limit:   policy.MaxRequests,
		Window:  policy.Window,
		ResetAt: now,
	}
	if remaining := policy.MaxRequests - len(w.timestamps); remaining > 0 {
		decision.Remaining = remaining
	}
	if len(w.timestamps) > 0 {
		decision.ResetAt = w.timestamps[0].Add(policy.Window)
	}

	return decision
}

// Policies returns the configured policy table.
func (l *Limiter) Policies() Policies {
	out := make(Policies, len(l.policies))
	for category, policy := range l.policies {
		out[category] = policy
	}
	return out
}

// PolicyConfigs describes the policy table for reporting.
func (l *Limiter) PolicyConfigs() map[string]models.PolicyConfig {
	return l.policies.Configs()
}

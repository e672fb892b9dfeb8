// Package keypool rotates the API keys used by the AI-commentary proxy.
// Provider quotas are per key, so the pool hands out the least recently
// used key that is inside its rate budget and benches keys the provider
// has rejected until a cooldown elapses.
package keypool

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrNoKeys means the pool was constructed empty.
	ErrNoKeys = errors.New("keypool: no keys configured")
	// ErrExhausted means every key is either cooling down or over its
	// rate budget right now.
	ErrExhausted = errors.New("keypool: all keys disabled or rate limited")
)

type entry struct {
	key           string
	limiter       *rate.Limiter
	lastUsed      time.Time
	disabledUntil time.Time
}

// Pool is an explicit stateful key rotor, passed by handle to whatever
// client needs a key. Safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	entries  []*entry
	cooldown time.Duration
	now      func() time.Time
}

// New builds a pool where each key may fire ratePerMinute requests per
// minute and a disabled key stays benched for cooldown.
func New(keys []string, ratePerMinute float64, cooldown time.Duration) *Pool {
	p := &Pool{cooldown: cooldown, now: time.Now}
	for _, k := range keys {
		p.entries = append(p.entries, &entry{
			key:     k,
			limiter: rate.NewLimiter(rate.Limit(ratePerMinute/60), 1),
		})
	}
	return p
}

// Next returns the least recently used key that is enabled and within its
// rate budget.
func (p *Pool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return "", ErrNoKeys
	}

	now := p.now()
	var pick *entry
	for _, e := range p.entries {
		if now.Before(e.disabledUntil) {
			continue
		}
		if pick == nil || e.lastUsed.Before(pick.lastUsed) {
			pick = e
		}
	}
	if pick == nil || !pick.limiter.AllowN(now, 1) {
		return "", ErrExhausted
	}
	pick.lastUsed = now
	return pick.key, nil
}

// Disable benches a key for the pool's cooldown, typically after the
// provider answered with a quota or auth error.
func (p *Pool) Disable(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if e.key == key {
			e.disabledUntil = p.now().Add(p.cooldown)
			return
		}
	}
}

// KeyStatus is a redacted snapshot of one key for health reporting.
type KeyStatus struct {
	Suffix        string    `json:"suffix"`
	LastUsed      time.Time `json:"lastUsed,omitzero"`
	DisabledUntil time.Time `json:"disabledUntil,omitzero"`
}

// Status reports every key with all but its last four characters removed.
func (p *Pool) Status() []KeyStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]KeyStatus, 0, len(p.entries))
	for _, e := range p.entries {
		suffix := e.key
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
		out = append(out, KeyStatus{Suffix: suffix, LastUsed: e.lastUsed, DisabledUntil: e.disabledUntil})
	}
	return out
}

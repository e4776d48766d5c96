package relation

import (
	"sync"
	"time"
)

// PulseDuration is how long a clicked edge stays emphasised.
const PulseDuration = 300 * time.Millisecond

// Pulses tracks the transient click emphasis of connections. It is local
// state only and is never persisted.
type Pulses struct {
	mu       sync.Mutex
	now      func() time.Time
	duration time.Duration
	until    map[string]time.Time
}

// NewPulses creates a tracker. A nil clock uses time.Now.
func NewPulses(now func() time.Time) *Pulses {
	if now == nil {
		now = time.Now
	}
	return &Pulses{
		now:      now,
		duration: PulseDuration,
		until:    make(map[string]time.Time),
	}
}

// Start flags the connection as pulsing from now on.
func (p *Pulses) Start(connectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.until[connectionID] = p.now().Add(p.duration)
}

// Active reports whether the connection is still pulsing.
func (p *Pulses) Active(connectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	until, ok := p.until[connectionID]
	if !ok {
		return false
	}
	if !p.now().Before(until) {
		delete(p.until, connectionID)
		return false
	}
	return true
}

// Snapshot returns the ids of all connections currently pulsing and drops
// expired entries.
func (p *Pulses) Snapshot() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	out := make(map[string]bool, len(p.until))
	for id, until := range p.until {
		if now.Before(until) {
			out[id] = true
		} else {
			delete(p.until, id)
		}
	}
	return out
}

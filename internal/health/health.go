// Package health aggregates dependency liveness probes behind one service
// readiness answer.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HealthPinger is implemented by dependencies that can answer a liveness
// probe.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// Status is one dependency's last observed state.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Checker polls registered dependencies on an interval and caches the result
// so the health endpoint never blocks on a slow dependency.
type Checker struct {
	interval     time.Duration
	probeTimeout time.Duration
	log          zerolog.Logger

	mu       sync.RWMutex
	pingers  map[string]HealthPinger
	statuses map[string]Status
}

// NewChecker builds a Checker that probes every interval, bounding each probe
// by probeTimeout.
func NewChecker(interval, probeTimeout time.Duration, log zerolog.Logger) *Checker {
	return &Checker{
		interval:     interval,
		probeTimeout: probeTimeout,
		log:          log.With().Str("component", "health").Logger(),
		pingers:      make(map[string]HealthPinger),
		statuses:     make(map[string]Status),
	}
}

// Register adds a named dependency. Call before Start.
func (c *Checker) Register(name string, p HealthPinger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingers[name] = p
	c.statuses[name] = Status{Name: name, Healthy: false}
}

// Start probes once immediately, then on the interval until ctx is done.
func (c *Checker) Start(ctx context.Context) {
	c.probeAll(ctx)
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.probeAll(ctx)
			}
		}
	}()
}

// Healthy reports whether every registered dependency passed its last probe.
func (c *Checker) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// Statuses returns a snapshot of all dependency states.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Status, 0, len(c.statuses))
	for _, s := range c.statuses {
		out = append(out, s)
	}
	return out
}

func (c *Checker) probeAll(ctx context.Context) {
	c.mu.RLock()
	names := make([]string, 0, len(c.pingers))
	for name := range c.pingers {
		names = append(names, name)
	}
	c.mu.RUnlock()

	for _, name := range names {
		c.probe(ctx, name)
	}
}

func (c *Checker) probe(ctx context.Context, name string) {
	c.mu.RLock()
	p := c.pingers[name]
	c.mu.RUnlock()

	pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	err := p.HealthPing(pctx)
	cancel()

	status := Status{Name: name, Healthy: err == nil, CheckedAt: time.Now().UTC()}
	if err != nil {
		status.Error = err.Error()
		c.log.Warn().Err(err).Str("dependency", name).Msg("health probe failed")
	}

	c.mu.Lock()
	c.statuses[name] = status
	c.mu.Unlock()
}

// PingFunc adapts a function to HealthPinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) HealthPing(ctx context.Context) error { return f(ctx) }

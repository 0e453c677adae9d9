package telemetry

import "sync/atomic"

// Counter is a named, monotonically-incrementing operational counter,
// grounded on the same atomic-counter pattern the registry uses for
// lostBridges (internal/focus/registry.Registry.lost) — a plain
// sync/atomic field is all any counter in this core needs, so telemetry
// just gives that pattern a reusable, named wrapper for callers outside
// the registry (the health scheduler's pass/fail tallies, for instance).
type Counter struct {
	name  string
	value atomic.Int64
}

// NewCounter creates a zeroed counter identified by name in logs.
func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc increments the counter by one.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by delta.
func (c *Counter) Add(delta int64) { c.value.Add(delta) }

// Value returns the counter's current value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Name returns the counter's identifying name.
func (c *Counter) Name() string { return c.name }

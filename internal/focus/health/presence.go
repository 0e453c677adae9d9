package health

import (
	"context"
	"time"

	"github.com/sebas/focusbridge/internal/focus/bridge"
	"github.com/sebas/focusbridge/internal/focus/store"
)

type presenceMark struct {
	healthy bool
}

// PresenceProber classifies liveness from presence traffic alone, with no
// active probe: a bridge is healthy iff its most recent presence update
// arrived within Timeout and did not explicitly report itself unhealthy.
// Marks are kept in a TTLStore so staleness is detected on read, without a
// per-bridge timer (the presence payload recognized by §6 carries no
// explicit health field, so a presence-ingestion path has only
// healthy=true to report; the explicit-unhealthy branch exists for
// back-channels that do carry one).
type PresenceProber struct {
	marks   *store.TTLStore[bridge.Id, presenceMark]
	timeout time.Duration
}

// NewPresenceProber creates a prober whose marks expire after timeout
// (presence-health-timeout) and are swept every sweepInterval.
func NewPresenceProber(timeout, sweepInterval time.Duration) *PresenceProber {
	return &PresenceProber{
		marks:   store.New[bridge.Id, presenceMark](sweepInterval),
		timeout: timeout,
	}
}

// RecordPresence marks id as having reported presence just now, with the
// given health flag. Wired from the same ingestion path that calls
// Registry.UpdatePresence.
func (p *PresenceProber) RecordPresence(id bridge.Id, healthy bool) {
	p.marks.Set(id, presenceMark{healthy: healthy}, p.timeout)
}

func (p *PresenceProber) Probe(_ context.Context, id bridge.Id) (Outcome, error) {
	mark, ok := p.marks.Get(id)
	if !ok {
		return OutcomeTimedOut, nil
	}
	if !mark.healthy {
		return OutcomeFailed, nil
	}
	return OutcomePassed, nil
}

// Close stops the background sweep.
func (p *PresenceProber) Close() {
	p.marks.Close()
}

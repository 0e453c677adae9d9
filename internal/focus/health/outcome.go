// Package health implements the per-bridge liveness scheduler (§4.5): one
// periodic task per registered bridge, pluggable between an active gRPC
// probe and a presence-derived check, surfacing pass/fail/timeout outcomes
// that feed back into the bridge's sticky operational flag and the
// registry's bridgeFailedHealthCheck event.
package health

import (
	"context"

	"github.com/sebas/focusbridge/internal/focus/bridge"
)

// Outcome classifies the result of a single liveness check.
type Outcome int

const (
	// OutcomePassed means the bridge responded healthy.
	OutcomePassed Outcome = iota
	// OutcomeFailed means the bridge explicitly reported unhealthy
	// (service-unavailable / internal-server-error, or an explicit
	// unhealthy presence mark).
	OutcomeFailed
	// OutcomeTimedOut means no response arrived after the primary
	// attempt and one retry (active probe), or the presence mark is
	// stale (presence-based).
	OutcomeTimedOut
	// OutcomeSkipped means the probe could not be meaningfully
	// evaluated (transport lost, unexpected response condition); no
	// flag change and no event are produced for this cycle.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Prober performs one liveness check for a bridge. Implementations must
// honor ctx cancellation promptly: the scheduler relies on this to
// guarantee no event is emitted for a bridge after its removal.
type Prober interface {
	Probe(ctx context.Context, id bridge.Id) (Outcome, error)
}

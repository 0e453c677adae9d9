// Package selector implements the facade that composes the candidate set
// and applies the global constraints (version pinning, drain, shutdown,
// per-bridge cap) before delegating to a configured strategy (§4.3).
package selector

import (
	"time"

	"github.com/sebas/focusbridge/internal/focus/bridge"
	"github.com/sebas/focusbridge/internal/focus/strategy"
)

// BridgeSource resolves the bridges currently known to the focus instance.
// *registry.Registry satisfies this; it is narrowed here so the selector
// doesn't need the whole registry API and stays independently testable.
type BridgeSource interface {
	Snapshot() []*bridge.Bridge
	Get(id bridge.Id) (*bridge.Bridge, bool)
}

// Selector is the facade described by §4.3. It holds no mutable state of
// its own beyond its configuration; every call re-reads the current bridge
// set from its source.
type Selector struct {
	source                   BridgeSource
	strategy                 strategy.Strategy
	maxParticipantsPerBridge int
	now                      func() time.Time
}

// New creates a Selector. maxParticipantsPerBridge is MAX_BP (§4.3 step 4);
// the Selector stores it but does not consult it — the cap is applied by
// the strategy through its own MaxParticipantsPerBridge.
func New(source BridgeSource, strat strategy.Strategy, maxParticipantsPerBridge int) *Selector {
	return &Selector{
		source:                   source,
		strategy:                 strat,
		maxParticipantsPerBridge: maxParticipantsPerBridge,
		now:                      time.Now,
	}
}

// Select implements the steps of §4.3, returning the chosen bridge id, or
// false if no candidate survives filtering or the strategy itself declines.
// On success the chosen bridge's recentAllocations is updated (step 5).
func (s *Selector) Select(conferenceBridges strategy.ConferenceBridges, participant strategy.ParticipantProperties, versionHint *string) (bridge.Id, bool) {
	now := s.now()

	all := s.source.Snapshot()
	candidates := make([]bridge.Snapshot, 0, len(all))
	for _, b := range all {
		candidates = append(candidates, b.Snapshot(now))
	}

	pinned, ok := s.resolvePinnedVersion(conferenceBridges, versionHint)
	if !ok {
		return "", false
	}

	candidates = filter(candidates, func(c bridge.Snapshot) bool { return c.Operational })
	if pinned != "" {
		candidates = filter(candidates, func(c bridge.Snapshot) bool { return c.Version == pinned })
	}

	// Step 2: drain filtering — keep a drained bridge only if the
	// conference already has an allocation on it, or if it carries the
	// version a caller explicitly pinned (a resolved versionHint reaches
	// past drain/shutdown the same way an existing conference allocation
	// does — otherwise pinning a version nobody's conference uses yet,
	// e.g. to start steering new allocations onto a freshly drained
	// version during a rolling upgrade, could never find a candidate).
	candidates = filter(candidates, func(c bridge.Snapshot) bool {
		if !c.Drain {
			return true
		}
		if _, onConference := conferenceBridges[c.Id]; onConference {
			return true
		}
		return pinned != "" && c.Version == pinned
	})

	// Step 3: shutdown filtering — keep a shutting-down bridge only if the
	// conference already has an allocation on it; a pinned version does not
	// exempt it.
	candidates = filter(candidates, func(c bridge.Snapshot) bool {
		if !c.GracefulShutdown {
			return true
		}
		_, onConference := conferenceBridges[c.Id]
		return onConference
	})

	if len(candidates) == 0 {
		return "", false
	}

	id, ok := s.strategy.Select(candidates, conferenceBridges, participant)
	if !ok {
		return "", false
	}

	if chosen, found := s.source.Get(id); found {
		chosen.RecordAllocation(now)
	}
	return id, true
}

// resolvePinnedVersion computes the effective pinned version per §4.3 step
// 1. Keys of conferenceBridges no longer present in the source are ignored
// for this computation — they contribute no version opinion, though they
// still participate as opaque conference bridges in strategy filtering.
func (s *Selector) resolvePinnedVersion(conferenceBridges strategy.ConferenceBridges, versionHint *string) (version string, ok bool) {
	common := ""
	haveCommon := false
	for id := range conferenceBridges {
		b, found := s.source.Get(id)
		if !found {
			continue
		}
		v := b.Snapshot(s.now()).Version
		if !haveCommon {
			common = v
			haveCommon = true
			continue
		}
		if v != common {
			return "", false
		}
	}

	if versionHint != nil {
		if haveCommon && common != *versionHint {
			return "", false
		}
		return *versionHint, true
	}
	return common, true
}

func filter(candidates []bridge.Snapshot, pred func(bridge.Snapshot) bool) []bridge.Snapshot {
	out := make([]bridge.Snapshot, 0, len(candidates))
	for _, c := range candidates {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

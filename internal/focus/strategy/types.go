// Package strategy implements the four bridge-selection policies (§4.4):
// Single, Split, RegionBased and Visitor. Each is a pure function of its
// inputs — safe to invoke concurrently for independent selections — and
// returns the chosen bridge id, or false if no candidate is eligible.
package strategy

import "github.com/sebas/focusbridge/internal/focus/bridge"

// ConferenceBridgeProperties is the caller-supplied, per-conference record
// for a bridge already hosting (or considered for) this conference.
type ConferenceBridgeProperties struct {
	ParticipantCount int
	Visitor          bool
}

// ParticipantProperties describes the participant being placed.
type ParticipantProperties struct {
	// Region is the participant's advertised region, if any.
	Region string
	// HasRegion distinguishes an absent region from the empty string.
	HasRegion bool
	Visitor   bool
}

// ConferenceBridges maps a candidate bridge id to its per-conference
// record. Only bridges that are keys here are considered "already hosting
// this conference" by the strategies.
type ConferenceBridges map[bridge.Id]ConferenceBridgeProperties

// Strategy selects one bridge from candidates for participant, given the
// conference's existing bridge allocations. Candidates have already been
// filtered by the selector facade (version pinning, drain, shutdown).
type Strategy interface {
	Select(candidates []bridge.Snapshot, conferenceBridges ConferenceBridges, participant ParticipantProperties) (bridge.Id, bool)
}

// leastLoaded returns the snapshot with the lowest CorrectedStress among
// candidates, ties broken by candidate-list order (first wins). Returns
// false if candidates is empty.
func leastLoaded(candidates []bridge.Snapshot) (bridge.Snapshot, bool) {
	var best bridge.Snapshot
	found := false
	for _, c := range candidates {
		if !found || c.CorrectedStress < best.CorrectedStress {
			best = c
			found = true
		}
	}
	return best, found
}

// filterFunc keeps candidates for which pred returns true, preserving order.
func filterFunc(candidates []bridge.Snapshot, pred func(bridge.Snapshot) bool) []bridge.Snapshot {
	out := make([]bridge.Snapshot, 0, len(candidates))
	for _, c := range candidates {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// isConferenceBridge reports whether id is a key of conferenceBridges.
func isConferenceBridge(cb ConferenceBridges, id bridge.Id) bool {
	_, ok := cb[id]
	return ok
}

// underCap reports whether id, as a conference bridge, is still below the
// per-bridge participant cap. Bridges that are not yet conference bridges
// are always considered under cap (they have zero participants so far).
func underCap(cb ConferenceBridges, id bridge.Id, maxBP int) bool {
	props, ok := cb[id]
	if !ok {
		return true
	}
	return props.ParticipantCount < maxBP
}

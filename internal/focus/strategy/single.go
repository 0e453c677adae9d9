package strategy

import "github.com/sebas/focusbridge/internal/focus/bridge"

// Single returns the least-loaded operational bridge, preferring to keep
// the whole conference on one bridge (§4.4.1).
type Single struct {
	MaxParticipantsPerBridge int
}

func (s Single) Select(candidates []bridge.Snapshot, conferenceBridges ConferenceBridges, _ ParticipantProperties) (bridge.Id, bool) {
	if len(conferenceBridges) > 0 {
		onConference := filterFunc(candidates, func(c bridge.Snapshot) bool {
			return isConferenceBridge(conferenceBridges, c.Id) && underCap(conferenceBridges, c.Id, s.MaxParticipantsPerBridge)
		})
		if best, ok := leastLoaded(onConference); ok {
			return best.Id, true
		}
	}

	best, ok := leastLoaded(candidates)
	if !ok {
		return "", false
	}
	return best.Id, true
}

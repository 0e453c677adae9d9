package strategy

import "github.com/sebas/focusbridge/internal/focus/bridge"

// Split prefers spreading a conference across distinct bridges, ignoring
// region (§4.4.2).
type Split struct{}

func (Split) Select(candidates []bridge.Snapshot, conferenceBridges ConferenceBridges, _ ParticipantProperties) (bridge.Id, bool) {
	notOnConference := filterFunc(candidates, func(c bridge.Snapshot) bool {
		return !isConferenceBridge(conferenceBridges, c.Id)
	})
	if best, ok := leastLoaded(notOnConference); ok {
		return best.Id, true
	}

	onConference := filterFunc(candidates, func(c bridge.Snapshot) bool {
		return isConferenceBridge(conferenceBridges, c.Id)
	})
	if best, ok := leastLoaded(onConference); ok {
		return best.Id, true
	}

	return "", false
}

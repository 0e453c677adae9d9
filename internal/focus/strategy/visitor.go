package strategy

import "github.com/sebas/focusbridge/internal/focus/bridge"

// Visitor decorates two inner strategies, segregating visitor and
// regular participants onto distinct bridges when possible and falling
// back to mixing them when segregation fails (§4.4.4).
type Visitor struct {
	ParticipantStrategy Strategy
	VisitorStrategy     Strategy
}

func (s Visitor) Select(candidates []bridge.Snapshot, conferenceBridges ConferenceBridges, participant ParticipantProperties) (bridge.Id, bool) {
	inner := s.ParticipantStrategy
	if participant.Visitor {
		inner = s.VisitorStrategy
	}

	partition := make(ConferenceBridges, len(conferenceBridges))
	for id, props := range conferenceBridges {
		if props.Visitor == participant.Visitor {
			partition[id] = props
		}
	}

	segregated := filterFunc(candidates, func(c bridge.Snapshot) bool {
		props, ok := conferenceBridges[c.Id]
		return !ok || props.Visitor == participant.Visitor
	})

	if id, ok := inner.Select(segregated, partition, participant); ok {
		return id, true
	}

	return inner.Select(candidates, conferenceBridges, participant)
}

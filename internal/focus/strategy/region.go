package strategy

import "github.com/sebas/focusbridge/internal/focus/bridge"

// RegionGroups maps each region to the full set of regions considered
// "nearby" for it (always including the region itself). A region absent
// from every configured group maps to a singleton containing only itself.
type RegionGroups struct {
	groupOf map[string]map[string]struct{}
}

// NewRegionGroups builds a RegionGroups from a list of region groups. A
// region listed in more than one group is ambiguous; the first group that
// claims it wins and later claims are ignored (callers are expected to
// have already logged the conflict at config load time).
func NewRegionGroups(groups [][]string) RegionGroups {
	rg := RegionGroups{groupOf: make(map[string]map[string]struct{})}
	for _, g := range groups {
		set := make(map[string]struct{}, len(g))
		for _, r := range g {
			if _, exists := rg.groupOf[r]; exists {
				continue
			}
			set[r] = struct{}{}
		}
		for r := range set {
			rg.groupOf[r] = set
		}
	}
	return rg
}

// Group returns the nearby-region set for region.
func (rg RegionGroups) Group(region string) map[string]struct{} {
	if set, ok := rg.groupOf[region]; ok {
		return set
	}
	return map[string]struct{}{region: {}}
}

// Contains reports whether candidate is within region's group.
func (rg RegionGroups) Contains(region, candidate string) bool {
	_, ok := rg.Group(region)[candidate]
	return ok
}

// RegionBased co-locates participants with bridges in or near their
// region, falling back through eight tiers before ever returning null
// (§4.4.3).
type RegionBased struct {
	LocalRegion              string
	HasLocalRegion           bool
	RegionGroups             RegionGroups
	MaxParticipantsPerBridge int
}

func (s RegionBased) Select(candidates []bridge.Snapshot, conferenceBridges ConferenceBridges, participant ParticipantProperties) (bridge.Id, bool) {
	r := ""
	if participant.HasRegion {
		r = participant.Region
	} else if s.HasLocalRegion {
		r = s.LocalRegion
	}

	// Coalesce the first participants of a conference onto the local
	// region when the participant's own region is in the same group.
	if s.HasLocalRegion && len(conferenceBridges) == 0 && r != s.LocalRegion && s.RegionGroups.Contains(r, s.LocalRegion) {
		r = s.LocalRegion
	}

	group := s.RegionGroups.Group(r)
	if !anyRegionMatch(candidates, group) && s.HasLocalRegion {
		r = s.LocalRegion
		group = s.RegionGroups.Group(r)
	}

	tiers := []func(bridge.Snapshot) bool{
		func(c bridge.Snapshot) bool {
			return !c.IsOverloaded() && isConferenceBridge(conferenceBridges, c.Id) && c.Region == r
		},
		func(c bridge.Snapshot) bool {
			_, near := group[c.Region]
			return !c.IsOverloaded() && isConferenceBridge(conferenceBridges, c.Id) && near
		},
		func(c bridge.Snapshot) bool {
			return !c.IsOverloaded() && c.Region == r
		},
		func(c bridge.Snapshot) bool {
			_, near := group[c.Region]
			return !c.IsOverloaded() && near
		},
		func(c bridge.Snapshot) bool {
			return !c.IsOverloaded() && isConferenceBridge(conferenceBridges, c.Id)
		},
		func(c bridge.Snapshot) bool {
			return !c.IsOverloaded()
		},
	}

	for _, pred := range tiers {
		if best, ok := leastLoaded(filterFunc(candidates, pred)); ok {
			return best.Id, true
		}
	}

	onConferenceUnderCap := filterFunc(candidates, func(c bridge.Snapshot) bool {
		return isConferenceBridge(conferenceBridges, c.Id) && underCap(conferenceBridges, c.Id, s.MaxParticipantsPerBridge)
	})
	if best, ok := leastLoaded(onConferenceUnderCap); ok {
		return best.Id, true
	}

	best, ok := leastLoaded(candidates)
	if !ok {
		return "", false
	}
	return best.Id, true
}

func anyRegionMatch(candidates []bridge.Snapshot, group map[string]struct{}) bool {
	for _, c := range candidates {
		if _, ok := group[c.Region]; ok {
			return true
		}
	}
	return false
}

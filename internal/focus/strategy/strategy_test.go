package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sebas/focusbridge/internal/focus/bridge"
)

func snap(id bridge.Id, region string, stress float64) bridge.Snapshot {
	return bridge.Snapshot{Id: id, Region: region, Operational: true, CorrectedStress: stress}
}

func TestSingleStrategyPrefersLeastLoaded(t *testing.T) {
	candidates := []bridge.Snapshot{snap("a", "", 0.3), snap("b", "", 0.1), snap("c", "", 0.2)}
	s := Single{MaxParticipantsPerBridge: 80}

	id, ok := s.Select(candidates, ConferenceBridges{}, ParticipantProperties{})
	require.True(t, ok)
	require.Equal(t, bridge.Id("b"), id)
}

func TestSingleStrategyCapFallthrough(t *testing.T) {
	candidates := []bridge.Snapshot{snap("a", "", 0.1), snap("b", "", 0.2)}
	cb := ConferenceBridges{
		"a": {ParticipantCount: 80},
		"b": {ParticipantCount: 80},
	}
	s := Single{MaxParticipantsPerBridge: 80}

	id, ok := s.Select(candidates, cb, ParticipantProperties{})
	require.True(t, ok)
	require.Equal(t, bridge.Id("a"), id, "all at cap: falls through to least loaded overall")
}

func TestSingleStrategyStaysOnConferenceBridgeUnderCap(t *testing.T) {
	candidates := []bridge.Snapshot{snap("a", "", 0.1), snap("c", "", 0.05)}
	cb := ConferenceBridges{"a": {ParticipantCount: 1}}
	s := Single{MaxParticipantsPerBridge: 80}

	id, ok := s.Select(candidates, cb, ParticipantProperties{})
	require.True(t, ok)
	require.Equal(t, bridge.Id("a"), id)
}

func TestSplitStrategyPrefersDistinctBridge(t *testing.T) {
	candidates := []bridge.Snapshot{snap("a", "", 0.5), snap("b", "", 0.1)}
	cb := ConferenceBridges{"a": {ParticipantCount: 3}}
	s := Split{}

	id, ok := s.Select(candidates, cb, ParticipantProperties{})
	require.True(t, ok)
	require.Equal(t, bridge.Id("b"), id)
}

func TestSplitStrategyFallsBackWhenAllShared(t *testing.T) {
	candidates := []bridge.Snapshot{snap("a", "", 0.5), snap("b", "", 0.1)}
	cb := ConferenceBridges{"a": {}, "b": {}}
	s := Split{}

	id, ok := s.Select(candidates, cb, ParticipantProperties{})
	require.True(t, ok)
	require.Equal(t, bridge.Id("b"), id)
}

// TestRegionScenario reproduces §8 scenario 2.
func TestRegionScenario(t *testing.T) {
	groups := NewRegionGroups([][]string{
		{"us-east", "us-west"},
		{"eu-central", "eu-west"},
	})
	s := RegionBased{
		LocalRegion:              "us-east",
		HasLocalRegion:           true,
		RegionGroups:             groups,
		MaxParticipantsPerBridge: 80,
	}

	candidates := []bridge.Snapshot{
		snap("us-east-b", "us-east", 0),
		snap("us-west-b", "us-west", 0),
		snap("eu-central-b", "eu-central", 0),
		snap("eu-west-b", "eu-west", 0),
	}

	id, ok := s.Select(candidates, ConferenceBridges{}, ParticipantProperties{Region: "eu-west", HasRegion: true})
	require.True(t, ok)
	require.Equal(t, bridge.Id("eu-west-b"), id)

	withoutEuWest := candidates[:3]
	id, ok = s.Select(withoutEuWest, ConferenceBridges{}, ParticipantProperties{Region: "eu-west", HasRegion: true})
	require.True(t, ok)
	require.Equal(t, bridge.Id("eu-central-b"), id)

	id, ok = s.Select(candidates, ConferenceBridges{}, ParticipantProperties{Region: "us-west", HasRegion: true})
	require.True(t, ok)
	require.Equal(t, bridge.Id("us-east-b"), id, "local-region coalescing for the first participant")
}

func TestVisitorStrategySegregatesThenMixes(t *testing.T) {
	inner := Single{MaxParticipantsPerBridge: 80}
	s := Visitor{ParticipantStrategy: inner, VisitorStrategy: inner}

	candidates := []bridge.Snapshot{snap("a", "", 0.1), snap("b", "", 0.2)}
	cb := ConferenceBridges{"a": {Visitor: true, ParticipantCount: 1}}

	// A regular participant avoids the visitor-only bridge "a" when another
	// candidate exists.
	id, ok := s.Select(candidates, cb, ParticipantProperties{Visitor: false})
	require.True(t, ok)
	require.Equal(t, bridge.Id("b"), id)

	// When segregation leaves nothing, fall back to mixing.
	onlyVisitorBridge := []bridge.Snapshot{snap("a", "", 0.1)}
	id, ok = s.Select(onlyVisitorBridge, cb, ParticipantProperties{Visitor: false})
	require.True(t, ok)
	require.Equal(t, bridge.Id("a"), id)
}

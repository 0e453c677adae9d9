package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sebas/focusbridge/internal/focus/strategy"
)

func TestNormalizeRegionGroupsFirstGroupWins(t *testing.T) {
	groups := [][]string{
		{"us-east", "us-west"},
		{"us-east", "eu-west"}, // us-east already claimed by group 0
	}
	got := normalizeRegionGroups(groups)
	require.Equal(t, [][]string{{"us-east", "us-west"}, {"eu-west"}}, got)
}

func TestValidateVisitorRequiresInnerStrategies(t *testing.T) {
	cfg := &Config{SelectionStrategy: "Visitor"}
	require.Error(t, cfg.validate())

	cfg.ParticipantSelectionStrategy = "Single"
	cfg.VisitorSelectionStrategy = "Split"
	require.NoError(t, cfg.validate())
}

func TestBuildStrategyVisitorComposesInnerStrategies(t *testing.T) {
	cfg := &Config{
		SelectionStrategy:            "Visitor",
		ParticipantSelectionStrategy: "Single",
		VisitorSelectionStrategy:     "Split",
		MaxBridgeParticipants:        80,
	}
	s, err := cfg.BuildStrategy()
	require.NoError(t, err)

	v, ok := s.(strategy.Visitor)
	require.True(t, ok)
	_, ok = v.ParticipantStrategy.(strategy.Single)
	require.True(t, ok)
	_, ok = v.VisitorStrategy.(strategy.Split)
	require.True(t, ok)
}

func TestBuildStrategyUnknownNameErrors(t *testing.T) {
	cfg := &Config{SelectionStrategy: "Bogus"}
	_, err := cfg.BuildStrategy()
	require.Error(t, err)
}

package config

import (
	"fmt"

	"github.com/sebas/focusbridge/internal/focus/strategy"
)

// BuildStrategy constructs the strategy.Strategy named by cfg's
// selection-strategy options. Visitor composes two named inner strategies
// recursively, per §4.4.4 / §9 "Strategy composition" (a tagged variant,
// not a class hierarchy).
func (c *Config) BuildStrategy() (strategy.Strategy, error) {
	return c.buildNamed(c.SelectionStrategy, c.ParticipantSelectionStrategy, c.VisitorSelectionStrategy)
}

func (c *Config) buildNamed(name, participantInner, visitorInner string) (strategy.Strategy, error) {
	switch name {
	case "Single":
		return strategy.Single{MaxParticipantsPerBridge: c.MaxBridgeParticipants}, nil
	case "Split":
		return strategy.Split{}, nil
	case "RegionBased":
		return strategy.RegionBased{
			LocalRegion:              c.LocalRegion,
			HasLocalRegion:           c.HasLocalRegion,
			RegionGroups:             strategy.NewRegionGroups(c.RegionGroups),
			MaxParticipantsPerBridge: c.MaxBridgeParticipants,
		}, nil
	case "Visitor":
		if participantInner == "" || visitorInner == "" {
			return nil, fmt.Errorf("config: Visitor strategy requires both inner strategies")
		}
		p, err := c.buildNamed(participantInner, "", "")
		if err != nil {
			return nil, fmt.Errorf("config: participant inner strategy: %w", err)
		}
		v, err := c.buildNamed(visitorInner, "", "")
		if err != nil {
			return nil, fmt.Errorf("config: visitor inner strategy: %w", err)
		}
		return strategy.Visitor{ParticipantStrategy: p, VisitorStrategy: v}, nil
	default:
		return nil, fmt.Errorf("config: unknown strategy %q", name)
	}
}

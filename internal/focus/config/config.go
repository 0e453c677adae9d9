// Package config loads the operator-facing configuration (§6): scalars
// from flags with environment-variable overrides, in the teacher's own
// two-tier style (internal/signaling/config, internal/ui/config), plus a
// YAML document for regionGroups, the one option that doesn't fit a flag.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every option recognized by the core (§6), plus the
// expansions needed to run it as a standalone process: HealthChecksMaxConcurrent
// and RegionGroupsFile.
type Config struct {
	MaxBridgeParticipants int

	SelectionStrategy            string
	ParticipantSelectionStrategy string
	VisitorSelectionStrategy     string

	LocalRegion      string
	HasLocalRegion   bool
	RegionGroupsFile string
	RegionGroups     [][]string

	FailureResetThreshold     time.Duration
	ParticipantRampupInterval time.Duration
	AverageParticipantStress  float64

	HealthChecksInterval      time.Duration
	HealthChecksRetryDelay    time.Duration
	HealthChecksMaxConcurrent int
	PresenceHealthTimeout     time.Duration
	UsePresenceForHealth      bool

	LogLevel string
}

// Load parses flags and applies environment-variable overrides, mirroring
// the teacher's flag.XxxVar + os.Getenv pattern. Call after flag.Parse()
// has not yet run elsewhere in the process.
func Load() (*Config, error) {
	cfg := &Config{
		MaxBridgeParticipants:     80,
		SelectionStrategy:         "Single",
		FailureResetThreshold:     30 * time.Second,
		ParticipantRampupInterval: time.Minute,
		AverageParticipantStress:  0.01,
		HealthChecksInterval:      30 * time.Second,
		HealthChecksRetryDelay:    5 * time.Second,
		HealthChecksMaxConcurrent: 8,
		PresenceHealthTimeout:     90 * time.Second,
		LogLevel:                  "info",
	}

	flag.IntVar(&cfg.MaxBridgeParticipants, "max-bridge-participants", cfg.MaxBridgeParticipants, "per-bridge participant cap (MAX_BP)")
	flag.StringVar(&cfg.SelectionStrategy, "selection-strategy", cfg.SelectionStrategy, "Single, Split, RegionBased or Visitor")
	flag.StringVar(&cfg.ParticipantSelectionStrategy, "participant-selection-strategy", "", "inner strategy for regular participants (Visitor only)")
	flag.StringVar(&cfg.VisitorSelectionStrategy, "visitor-selection-strategy", "", "inner strategy for visitor participants (Visitor only)")
	flag.StringVar(&cfg.LocalRegion, "local-region", "", "this instance's region, if any")
	flag.StringVar(&cfg.RegionGroupsFile, "region-groups-file", "", "path to a YAML document listing region groups")
	flag.DurationVar(&cfg.FailureResetThreshold, "failure-reset-threshold", cfg.FailureResetThreshold, "sticky hold time for operational=false")
	flag.DurationVar(&cfg.ParticipantRampupInterval, "participant-rampup-interval", cfg.ParticipantRampupInterval, "recent-allocation correction window")
	flag.Float64Var(&cfg.AverageParticipantStress, "average-participant-stress", cfg.AverageParticipantStress, "assumed stress contribution per just-allocated participant")
	flag.DurationVar(&cfg.HealthChecksInterval, "health-checks-interval", cfg.HealthChecksInterval, "liveness probe interval")
	flag.DurationVar(&cfg.HealthChecksRetryDelay, "health-checks-retry-delay", cfg.HealthChecksRetryDelay, "delay before the single retry after a probe timeout")
	flag.IntVar(&cfg.HealthChecksMaxConcurrent, "health-checks-max-concurrent", cfg.HealthChecksMaxConcurrent, "bound on in-flight probes")
	flag.DurationVar(&cfg.PresenceHealthTimeout, "presence-health-timeout", cfg.PresenceHealthTimeout, "staleness threshold for presence-based health")
	flag.BoolVar(&cfg.UsePresenceForHealth, "use-presence-for-health", false, "use presence-derived health instead of an active probe")
	flag.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "log level (debug, info, warn, error)")

	flag.Parse()

	applyEnvOverrides(cfg)

	cfg.HasLocalRegion = cfg.LocalRegion != ""

	if cfg.RegionGroupsFile != "" {
		groups, err := loadRegionGroupsFile(cfg.RegionGroupsFile)
		if err != nil {
			return nil, fmt.Errorf("config: loading region groups: %w", err)
		}
		cfg.RegionGroups = groups
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAX_BRIDGE_PARTICIPANTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxBridgeParticipants = n
		}
	}
	if v := os.Getenv("SELECTION_STRATEGY"); v != "" {
		cfg.SelectionStrategy = v
	}
	if v := os.Getenv("PARTICIPANT_SELECTION_STRATEGY"); v != "" {
		cfg.ParticipantSelectionStrategy = v
	}
	if v := os.Getenv("VISITOR_SELECTION_STRATEGY"); v != "" {
		cfg.VisitorSelectionStrategy = v
	}
	if v := os.Getenv("LOCAL_REGION"); v != "" {
		cfg.LocalRegion = v
	}
	if v := os.Getenv("REGION_GROUPS_FILE"); v != "" {
		cfg.RegionGroupsFile = v
	}
	if v := os.Getenv("FAILURE_RESET_THRESHOLD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FailureResetThreshold = d
		}
	}
	if v := os.Getenv("PARTICIPANT_RAMPUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ParticipantRampupInterval = d
		}
	}
	if v := os.Getenv("AVERAGE_PARTICIPANT_STRESS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AverageParticipantStress = f
		}
	}
	if v := os.Getenv("HEALTH_CHECKS_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HealthChecksInterval = d
		}
	}
	if v := os.Getenv("HEALTH_CHECKS_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HealthChecksRetryDelay = d
		}
	}
	if v := os.Getenv("HEALTH_CHECKS_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HealthChecksMaxConcurrent = n
		}
	}
	if v := os.Getenv("PRESENCE_HEALTH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PresenceHealthTimeout = d
		}
	}
	if v := os.Getenv("USE_PRESENCE_FOR_HEALTH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UsePresenceForHealth = b
		}
	}
	if v := os.Getenv("LOGLEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func (c *Config) validate() error {
	switch c.SelectionStrategy {
	case "Single", "Split", "RegionBased":
	case "Visitor":
		if c.ParticipantSelectionStrategy == "" || c.VisitorSelectionStrategy == "" {
			return fmt.Errorf("config: selectionStrategy=Visitor requires both participantSelectionStrategy and visitorSelectionStrategy")
		}
	default:
		return fmt.Errorf("config: unknown selectionStrategy %q", c.SelectionStrategy)
	}
	return nil
}

// regionGroupsDocument is the YAML shape for -region-groups-file: a list
// of groups, each a list of region names.
type regionGroupsDocument struct {
	RegionGroups [][]string `yaml:"regionGroups"`
}

func loadRegionGroupsFile(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc regionGroupsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return normalizeRegionGroups(doc.RegionGroups), nil
}

// normalizeRegionGroups validates that each region appears in at most one
// group; a region claimed by more than one group is ambiguous, so the
// first group to claim it wins and the conflict is logged (§9 Region-group
// normalisation design note).
func normalizeRegionGroups(groups [][]string) [][]string {
	claimed := make(map[string]int) // region -> index of owning group
	out := make([][]string, 0, len(groups))

	for i, group := range groups {
		kept := make([]string, 0, len(group))
		for _, region := range group {
			region = strings.TrimSpace(region)
			if region == "" {
				continue
			}
			if owner, ok := claimed[region]; ok {
				slog.Error("[Config] region claimed by more than one group, keeping first",
					"region", region, "kept_group_index", owner, "dropped_group_index", i)
				continue
			}
			claimed[region] = i
			kept = append(kept, region)
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

package bridge

import (
	"sync"
	"time"
)

// Config carries the tunables bridge state needs that come from the
// operator-facing configuration (see internal/focus/config).
type Config struct {
	FailureResetThreshold   time.Duration
	ParticipantRampupInterval time.Duration
	AverageParticipantStress  float64
}

// Bridge holds the mutable, mutex-guarded attributes of one media
// mixer node. Id is immutable; everything else may change concurrently.
// All reads/writes go through the single mutex: the sticky operational
// flag and its timestamp must always be observed together (see the
// "sticky flag vs lock-free reads" design note), and serializing the rest
// of the fields alongside it costs nothing a reader can observe as
// incorrect — the comparator already tolerates slightly-stale reads.
type Bridge struct {
	id Id

	mu sync.Mutex

	version          string
	region           string
	relayId          string
	stress           float64
	drain            bool
	gracefulShutdown bool
	operational      bool
	pendingTrue      bool // a set-true arrived while the sticky hold was active
	lastFailureAt    time.Time
	lastPresenceAt   time.Time

	cfg    Config
	rampup *rampupCounter
}

// New creates a bridge in the operational, non-draining state.
func New(id Id, cfg Config) *Bridge {
	if cfg.ParticipantRampupInterval <= 0 {
		cfg.ParticipantRampupInterval = time.Minute
	}
	return &Bridge{
		id:          id,
		operational: true,
		cfg:         cfg,
		rampup:      newRampupCounter(cfg.ParticipantRampupInterval),
	}
}

func (b *Bridge) Id() Id { return b.id }

// Snapshot is an immutable, consistent view of a bridge's attributes at
// one instant, used by strategies so they never observe a field changing
// mid-comparison.
type Snapshot struct {
	Id               Id
	Version          string
	Region           string
	RelayId          string
	Stress           float64
	CorrectedStress  float64
	Drain            bool
	GracefulShutdown bool
	Operational      bool
	LastPresenceAt   time.Time
}

// Snapshot returns a coherent copy of the bridge's current attributes,
// including the corrected stress and the resolved (possibly still-false)
// operational flag.
func (b *Bridge) Snapshot(now time.Time) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	op := b.resolveOperationalLocked(now)
	return Snapshot{
		Id:               b.id,
		Version:          b.version,
		Region:           b.region,
		RelayId:          b.relayId,
		Stress:           b.stress,
		CorrectedStress:  b.correctedStressLocked(now),
		Drain:            b.drain,
		GracefulShutdown: b.gracefulShutdown,
		Operational:      op,
		LastPresenceAt:   b.lastPresenceAt,
	}
}

// resolveOperationalLocked applies the sticky false->true hold: a
// false->true transition happens only after a set-true has been requested,
// and becomes visible once failure-reset-threshold has elapsed since the
// last recorded failure.
func (b *Bridge) resolveOperationalLocked(now time.Time) bool {
	if b.operational {
		return true
	}
	if !b.pendingTrue {
		return false
	}
	if now.Sub(b.lastFailureAt) >= b.cfg.FailureResetThreshold {
		b.operational = true
		b.pendingTrue = false
		return true
	}
	return false
}

// SetOperational records a caller's attempt to flip the operational flag.
// A false is applied immediately, resets the sticky clock and discards any
// pending true. A true is applied immediately only once
// failure-reset-threshold has elapsed since the last recorded false;
// otherwise the request is recorded and the first read after the threshold
// passes returns true.
func (b *Bridge) SetOperational(operational bool, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !operational {
		b.operational = false
		b.pendingTrue = false
		b.lastFailureAt = now
		return
	}
	b.pendingTrue = true
	b.resolveOperationalLocked(now)
}

// ApplyPresence applies a presence update (§6 presence payload, already
// decoded). Returns true if gracefulShutdown transitioned false->true,
// signaling the registry should emit bridgeIsShuttingDown.
func (b *Bridge) ApplyPresence(p PresenceUpdate, now time.Time) (shutdownStarted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.Version != nil {
		b.version = *p.Version
	}
	if p.Region != nil {
		b.region = *p.Region
	}
	if p.RelayId != nil {
		b.relayId = *p.RelayId
	}
	if p.Stress != nil {
		b.stress = *p.Stress
	}
	if p.Drain != nil {
		b.drain = *p.Drain
	}
	if p.ShutdownInProgress != nil {
		wasShuttingDown := b.gracefulShutdown
		b.gracefulShutdown = *p.ShutdownInProgress
		shutdownStarted = !wasShuttingDown && b.gracefulShutdown
	}
	b.lastPresenceAt = now
	return shutdownStarted
}

// PresenceUpdate is the decoded form of the wire presence payload (§6);
// nil fields mean "not present in this update, leave unchanged".
type PresenceUpdate struct {
	Stress             *float64
	Region             *string
	RelayId            *string
	Version            *string
	Drain              *bool
	ShutdownInProgress *bool
}

// RecordAllocation marks that the selector just assigned a participant to
// this bridge, inflating its corrected stress for up to
// participant-rampup-interval.
func (b *Bridge) RecordAllocation(now time.Time) {
	b.rampup.recordAllocation(now)
}

func (b *Bridge) correctedStressLocked(now time.Time) float64 {
	recent := b.rampup.sum(now, b.cfg.ParticipantRampupInterval)
	corrected := b.stress + float64(recent)*b.cfg.AverageParticipantStress
	if corrected < b.stress {
		return b.stress
	}
	return corrected
}

// LastPresenceAt returns the timestamp of the most recent presence update.
func (b *Bridge) LastPresenceAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastPresenceAt
}

// Compare implements the bridge desirability order (§4.2): operational
// before non-operational, not-draining-shutdown before shutting-down,
// lower corrected stress before higher. It returns <0 if a is more
// desirable than b, >0 if less, 0 if equal under this order.
func Compare(a, b Snapshot) int {
	if a.Operational != b.Operational {
		if a.Operational {
			return -1
		}
		return 1
	}
	if a.GracefulShutdown != b.GracefulShutdown {
		if !a.GracefulShutdown {
			return -1
		}
		return 1
	}
	switch {
	case a.CorrectedStress < b.CorrectedStress:
		return -1
	case a.CorrectedStress > b.CorrectedStress:
		return 1
	default:
		return 0
	}
}

// IsOverloaded reports whether a snapshot's corrected stress is at or
// above the overload threshold.
func (s Snapshot) IsOverloaded() bool {
	return s.CorrectedStress >= 1.0
}

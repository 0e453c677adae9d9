package registry

import "github.com/sebas/focusbridge/internal/focus/bridge"

// EventType enumerates the four notifications a subscriber can receive
// (§4.1, §6). For a given bridge, events always arrive in the order
// Added -> (FailedHealthCheck | ShuttingDown)* -> Removed.
type EventType int

const (
	BridgeAdded EventType = iota
	BridgeRemoved
	BridgeIsShuttingDown
	BridgeFailedHealthCheck
)

func (t EventType) String() string {
	switch t {
	case BridgeAdded:
		return "bridgeAdded"
	case BridgeRemoved:
		return "bridgeRemoved"
	case BridgeIsShuttingDown:
		return "bridgeIsShuttingDown"
	case BridgeFailedHealthCheck:
		return "bridgeFailedHealthCheck"
	default:
		return "unknown"
	}
}

// Event is a single notification delivered to a subscriber.
type Event struct {
	Type EventType
	Id   bridge.Id
}

// Handler receives registry events. Implementations must not block for
// long — a slow handler only delays its own queue, never other
// subscribers', but a handler that never returns lets its bounded queue
// fill, after which further events for that subscriber are dropped.
type Handler func(Event)

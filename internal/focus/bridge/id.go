// Package bridge models a single media-mixer node known to the selector:
// its identity and the mutable attributes (load, region, drain state,
// liveness) that the registry and selection strategies read and write.
package bridge

// Id is the opaque, immutable identifier advertised by a bridge (a
// JID-like string in production; the core treats it as an opaque key).
type Id string

func (id Id) String() string { return string(id) }

package cascade

import "errors"

// ErrPrecondFail is returned for operations whose preconditions the
// caller violated (duplicate link insertion, querying non-adjacent
// nodes, referencing an unknown anchor or mesh).
var ErrPrecondFail = errors.New("cascade: precondition failed")

// ErrInvalidTopology is returned by Validate when the graph violates one
// of the three structural invariants (§4.6): link symmetry, mesh
// completeness, or connectivity.
var ErrInvalidTopology = errors.New("cascade: invalid topology")

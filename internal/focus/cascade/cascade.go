// Package cascade models the mesh-of-meshes graph of bridges relaying a
// single conference (§4.6): octo-style links between bridges, grouped into
// cliques ("meshes"), with reachability queries and a repair hook for
// reconnecting the graph after a cut-vertex removal. A Cascade is scoped
// to one conference and is not safe for concurrent use — callers
// serialise access, per §5.
package cascade

import "fmt"

// NodeID is a bridge's relay identity within a cascade (the GLOSSARY's
// "relay id"). The cascade owns nodes; callers hold only this weak
// identity and re-look-up as needed (§9 design note on cyclic references).
type NodeID string

// MeshID names one clique within the cascade.
type MeshID string

type node struct {
	id    NodeID
	links map[NodeID]MeshID // neighbor -> the mesh this link belongs to
}

// Cascade is the mesh-of-meshes graph for one conference.
type Cascade struct {
	nodes        map[NodeID]*node
	meshMembers  map[MeshID]map[NodeID]struct{}
	linksRemoved int
}

// New creates an empty cascade.
func New() *Cascade {
	return &Cascade{
		nodes:       make(map[NodeID]*node),
		meshMembers: make(map[MeshID]map[NodeID]struct{}),
	}
}

// LinksRemoved returns the cumulative count of edges torn down by
// RemoveLinkTo and RemoveNode, for test observability (§8).
func (c *Cascade) LinksRemoved() int { return c.linksRemoved }

func (c *Cascade) ensureNode(id NodeID) *node {
	n, ok := c.nodes[id]
	if !ok {
		n = &node{id: id, links: make(map[NodeID]MeshID)}
		c.nodes[id] = n
	}
	return n
}

func (c *Cascade) link(a, b NodeID, mesh MeshID) {
	c.ensureNode(a).links[b] = mesh
	c.ensureNode(b).links[a] = mesh
}

// AddNodeToMesh inserts node as a peer of every current member of meshID,
// creating full pairwise links (§4.6). If meshID has no members yet,
// anchor (if non-nil) must already be present in the cascade and a single
// link is created between node and anchor in the new mesh; with a nil
// anchor the mesh starts as a singleton. Fails with ErrPrecondFail if node
// already has a link to a current member of this mesh.
func (c *Cascade) AddNodeToMesh(nodeID NodeID, meshID MeshID, anchor *NodeID) error {
	members := c.meshMembers[meshID]

	if len(members) == 0 {
		c.ensureNode(nodeID)
		if anchor == nil {
			c.meshMembers[meshID] = map[NodeID]struct{}{nodeID: {}}
			return nil
		}
		anchorNode, ok := c.nodes[*anchor]
		if !ok {
			return fmt.Errorf("cascade: anchor %q not present: %w", *anchor, ErrPrecondFail)
		}
		if _, linked := anchorNode.links[nodeID]; linked {
			return fmt.Errorf("cascade: %q already linked to anchor %q: %w", nodeID, *anchor, ErrPrecondFail)
		}
		c.link(nodeID, *anchor, meshID)
		c.meshMembers[meshID] = map[NodeID]struct{}{nodeID: {}, *anchor: {}}
		return nil
	}

	n := c.ensureNode(nodeID)
	for member := range members {
		if member == nodeID {
			continue
		}
		if _, linked := n.links[member]; linked {
			return fmt.Errorf("cascade: %q already linked within mesh %q: %w", nodeID, meshID, ErrPrecondFail)
		}
	}
	for member := range members {
		if member == nodeID {
			continue
		}
		c.link(nodeID, member, meshID)
	}
	members[nodeID] = struct{}{}
	return nil
}

// RemoveLinkTo drops a's directed link to b, incrementing linksRemoved.
// It is directional; callers invoke it twice for symmetric removal. A
// no-op (no count) if the link does not exist.
func (c *Cascade) RemoveLinkTo(a, b NodeID) {
	na, ok := c.nodes[a]
	if !ok {
		return
	}
	if _, linked := na.links[b]; !linked {
		return
	}
	delete(na.links, b)
	c.linksRemoved++
}

// RepairDirective reconnects two nodes under a mesh after a disconnecting
// removal, per the repair callback's return contract (§4.6).
type RepairDirective struct {
	From, To NodeID
	Mesh     MeshID
}

// RepairFunc is invoked by RemoveNode when removing a node disconnects
// the cascade. components lists each resulting connected component's
// member nodes.
type RepairFunc func(c *Cascade, components [][]NodeID) []RepairDirective

// RemoveNode removes id and every incident link. If id was a cut vertex,
// repair (when non-nil) is invoked with the resulting components and its
// directives are applied and validated. With a nil repair, or when the
// removal did not disconnect the graph, RemoveNode returns nil even if
// the graph is left invalid — callers can inspect with Validate or follow
// up with Repair.
//
// Unlike two explicit RemoveLinkTo calls (which each count), clearing a
// node's incident links here counts once per incident edge: the reverse
// half of each link is cleaned up directly, not through RemoveLinkTo.
func (c *Cascade) RemoveNode(id NodeID, repair RepairFunc) error {
	target, ok := c.nodes[id]
	if !ok {
		return nil
	}

	for neighborID := range target.links {
		if neighbor, ok := c.nodes[neighborID]; ok {
			delete(neighbor.links, id)
		}
		c.linksRemoved++
	}
	delete(c.nodes, id)

	for mesh, members := range c.meshMembers {
		delete(members, id)
		if len(members) == 0 {
			delete(c.meshMembers, mesh)
		}
	}

	components := c.components()
	if len(components) <= 1 || repair == nil {
		return nil
	}

	directives := repair(c, components)
	return c.Repair(directives)
}

// Repair applies externally-computed repair directives and validates the
// result. Exposed so a caller that removed a node with a nil repair
// function can reconnect the cascade in a follow-up step.
func (c *Cascade) Repair(directives []RepairDirective) error {
	for _, d := range directives {
		c.link(d.From, d.To, d.Mesh)
		members, ok := c.meshMembers[d.Mesh]
		if !ok {
			members = make(map[NodeID]struct{})
			c.meshMembers[d.Mesh] = members
		}
		members[d.From] = struct{}{}
		members[d.To] = struct{}{}
	}
	return c.Validate()
}

// Validate fails with ErrInvalidTopology unless every link is symmetric,
// every mesh is a complete subgraph over its members, and the underlying
// undirected graph is connected (§4.6).
func (c *Cascade) Validate() error {
	for id, n := range c.nodes {
		for to, mesh := range n.links {
			other, ok := c.nodes[to]
			if !ok {
				return fmt.Errorf("cascade: link to unknown node %q: %w", to, ErrInvalidTopology)
			}
			revMesh, linked := other.links[id]
			if !linked || revMesh != mesh {
				return fmt.Errorf("cascade: asymmetric link %q->%q: %w", id, to, ErrInvalidTopology)
			}
		}
	}

	for meshID, members := range c.meshMembers {
		for a := range members {
			na, ok := c.nodes[a]
			if !ok {
				return fmt.Errorf("cascade: mesh %q member %q missing: %w", meshID, a, ErrInvalidTopology)
			}
			for b := range members {
				if a == b {
					continue
				}
				mesh, linked := na.links[b]
				if !linked || mesh != meshID {
					return fmt.Errorf("cascade: mesh %q incomplete between %q and %q: %w", meshID, a, b, ErrInvalidTopology)
				}
			}
		}
	}

	if len(c.nodes) > 0 && len(c.components()) != 1 {
		return fmt.Errorf("cascade: graph is disconnected: %w", ErrInvalidTopology)
	}
	return nil
}

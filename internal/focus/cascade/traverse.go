package cascade

import "fmt"

// neighbors returns id's adjacent nodes, unioning outgoing links with any
// inbound link recorded by a neighbor (defensive against a transient
// asymmetry left by a lone RemoveLinkTo call).
func (c *Cascade) neighbors(id NodeID) map[NodeID]struct{} {
	out := make(map[NodeID]struct{})
	if n, ok := c.nodes[id]; ok {
		for to := range n.links {
			out[to] = struct{}{}
		}
	}
	for other, n := range c.nodes {
		if other == id {
			continue
		}
		if _, ok := n.links[id]; ok {
			out[other] = struct{}{}
		}
	}
	return out
}

// bfsFrom returns every node reachable from start without visiting avoid,
// in visitation order (start first).
func (c *Cascade) bfsFrom(start NodeID, avoid *NodeID) []NodeID {
	visited := map[NodeID]bool{start: true}
	queue := []NodeID{start}
	order := []NodeID{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for neighbor := range c.neighbors(cur) {
			if avoid != nil && neighbor == *avoid {
				continue
			}
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			queue = append(queue, neighbor)
			order = append(order, neighbor)
		}
	}
	return order
}

// components returns the connected components of the full graph.
func (c *Cascade) components() [][]NodeID {
	seen := make(map[NodeID]bool, len(c.nodes))
	var comps [][]NodeID
	for id := range c.nodes {
		if seen[id] {
			continue
		}
		comp := c.bfsFrom(id, nil)
		for _, n := range comp {
			seen[n] = true
		}
		comps = append(comps, comp)
	}
	return comps
}

// GetNodesBehind returns the nodes reachable from neighbor without ever
// passing through node, and without crossing any other link that belongs
// to the same mesh as the node-neighbor link itself — mesh-mates of
// neighbor are "beside" it, not "behind" it, so a fully-meshed clique with
// no other mesh attached yields just {neighbor} (§8 scenario 4), while a
// cut-vertex spanning two meshes yields the far mesh's full membership
// (§8 scenario 5). Defined only when node and neighbor are adjacent.
func (c *Cascade) GetNodesBehind(node, neighbor NodeID) (map[NodeID]struct{}, error) {
	nd, ok := c.nodes[node]
	if !ok {
		return nil, fmt.Errorf("cascade: unknown node %q: %w", node, ErrPrecondFail)
	}
	originMesh, linked := nd.links[neighbor]
	if !linked {
		return nil, fmt.Errorf("cascade: %q and %q are not adjacent: %w", node, neighbor, ErrPrecondFail)
	}

	visited := map[NodeID]bool{neighbor: true}
	queue := []NodeID{neighbor}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curNode, ok := c.nodes[cur]
		if !ok {
			continue
		}
		for to, mesh := range curNode.links {
			if to == node || mesh == originMesh || visited[to] {
				continue
			}
			visited[to] = true
			queue = append(queue, to)
		}
	}

	behind := make(map[NodeID]struct{}, len(visited))
	for id := range visited {
		behind[id] = struct{}{}
	}
	return behind, nil
}

// GetNodesBehindMesh returns the union of GetNodesBehind(node, m) for
// every member m of meshID other than node.
func (c *Cascade) GetNodesBehindMesh(meshID MeshID, node NodeID) (map[NodeID]struct{}, error) {
	members, ok := c.meshMembers[meshID]
	if !ok {
		return nil, fmt.Errorf("cascade: unknown mesh %q: %w", meshID, ErrPrecondFail)
	}

	out := make(map[NodeID]struct{})
	for member := range members {
		if member == node {
			continue
		}
		behind, err := c.GetNodesBehind(node, member)
		if err != nil {
			return nil, err
		}
		for id := range behind {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// PathVisitor is called once per node reachable from the root passed to
// GetPathsFrom. parent is nil for the root itself; otherwise it is
// visited's predecessor in the BFS tree rooted at root (the node one hop
// before visited on a shortest path from root, which is root itself when
// visited is adjacent to it).
type PathVisitor func(c *Cascade, visited NodeID, parent *NodeID)

// GetPathsFrom visits every node in the cascade exactly once via BFS
// rooted at node, invoking visitor with each node's shortest-path parent.
func (c *Cascade) GetPathsFrom(node NodeID, visitor PathVisitor) {
	parent := make(map[NodeID]NodeID)
	visited := map[NodeID]bool{node: true}
	queue := []NodeID{node}
	order := []NodeID{node}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for neighbor := range c.neighbors(cur) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			parent[neighbor] = cur
			queue = append(queue, neighbor)
			order = append(order, neighbor)
		}
	}

	for _, id := range order {
		if id == node {
			visitor(c, id, nil)
			continue
		}
		p := parent[id]
		visitor(c, id, &p)
	}
}

// GetDistanceFrom returns the minimum hop count from node to the nearest
// node satisfying pred, or ok=false if no such node is reachable.
func (c *Cascade) GetDistanceFrom(node NodeID, pred func(NodeID) bool) (dist int, ok bool) {
	if pred(node) {
		return 0, true
	}

	visited := map[NodeID]bool{node: true}
	queue := []NodeID{node}
	distance := map[NodeID]int{node: 0}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for neighbor := range c.neighbors(cur) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			distance[neighbor] = distance[cur] + 1
			if pred(neighbor) {
				return distance[neighbor], true
			}
			queue = append(queue, neighbor)
		}
	}
	return 0, false
}

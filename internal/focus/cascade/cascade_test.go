package cascade

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSingleMesh(t *testing.T) *Cascade {
	t.Helper()
	c := New()
	require.NoError(t, c.AddNodeToMesh("n0", "A", nil))
	for i := 1; i <= 4; i++ {
		id := NodeID(fmt.Sprintf("n%d", i))
		require.NoError(t, c.AddNodeToMesh(id, "A", nil))
	}
	require.NoError(t, c.Validate())
	return c
}

func TestSingleMeshNodesBehindIsJustTheNeighbor(t *testing.T) {
	c := buildSingleMesh(t)

	for i := 1; i <= 4; i++ {
		ni := NodeID(fmt.Sprintf("n%d", i))
		behind, err := c.GetNodesBehind("n0", ni)
		require.NoError(t, err)
		require.Equal(t, map[NodeID]struct{}{ni: {}}, behind)
	}
}

func TestSingleMeshRemovalNeverNeedsRepair(t *testing.T) {
	c := buildSingleMesh(t)

	called := false
	repair := func(*Cascade, [][]NodeID) []RepairDirective {
		called = true
		return nil
	}

	for i := 0; i <= 4; i++ {
		require.NoError(t, c.RemoveNode(NodeID(fmt.Sprintf("n%d", i)), repair))
	}
	require.False(t, called)
	require.Equal(t, 4+3+2+1, c.LinksRemoved())
}

func buildTwoMeshes(t *testing.T) *Cascade {
	t.Helper()
	c := New()
	require.NoError(t, c.AddNodeToMesh("n0", "A", nil))
	require.NoError(t, c.AddNodeToMesh("n1", "A", nil))
	require.NoError(t, c.AddNodeToMesh("n2", "A", nil))

	n0 := NodeID("n0")
	require.NoError(t, c.AddNodeToMesh("n3", "B", &n0))
	require.NoError(t, c.AddNodeToMesh("n4", "B", nil))

	require.NoError(t, c.Validate())
	return c
}

func TestTwoMeshesNodesBehindCutVertex(t *testing.T) {
	c := buildTwoMeshes(t)

	behind, err := c.GetNodesBehind("n1", "n0")
	require.NoError(t, err)
	require.Equal(t, map[NodeID]struct{}{"n0": {}, "n3": {}, "n4": {}}, behind)
}

func TestTwoMeshesRemoveCutVertexInvalidWithoutRepair(t *testing.T) {
	c := buildTwoMeshes(t)

	require.NoError(t, c.RemoveNode("n0", nil))
	require.ErrorIs(t, c.Validate(), ErrInvalidTopology)
}

func TestTwoMeshesRepairAcrossMeshesRevalidates(t *testing.T) {
	c := buildTwoMeshes(t)
	require.NoError(t, c.RemoveNode("n0", nil))

	err := c.Repair([]RepairDirective{{From: "n1", To: "n3", Mesh: "C"}})
	require.NoError(t, err)
}

func TestTwoMeshesRepairWithinOldMeshDoesNotValidate(t *testing.T) {
	c := buildTwoMeshes(t)
	require.NoError(t, c.RemoveNode("n0", nil))

	err := c.Repair([]RepairDirective{{From: "n1", To: "n3", Mesh: "A"}})
	require.ErrorIs(t, err, ErrInvalidTopology, "mesh A's completeness invariant is now broken")
}

func TestTwoMeshesRemoveCutVertexAutoRepair(t *testing.T) {
	c := buildTwoMeshes(t)

	err := c.RemoveNode("n0", func(_ *Cascade, components [][]NodeID) []RepairDirective {
		require.Len(t, components, 2)
		return []RepairDirective{{From: "n1", To: "n3", Mesh: "C"}}
	})
	require.NoError(t, err)
	require.NoError(t, c.Validate())
}

func TestAddNodeToMeshPrecondFailOnDuplicateLink(t *testing.T) {
	c := New()
	require.NoError(t, c.AddNodeToMesh("a", "A", nil))
	require.NoError(t, c.AddNodeToMesh("b", "A", nil))

	// Re-adding "b" to the same mesh, where it is already linked to "a",
	// must fail rather than silently re-link.
	err := c.AddNodeToMesh("b", "A", nil)
	require.ErrorIs(t, err, ErrPrecondFail)
}

func TestAddNodeToMeshUnknownAnchorFails(t *testing.T) {
	c := New()
	anchor := NodeID("ghost")
	err := c.AddNodeToMesh("a", "A", &anchor)
	require.ErrorIs(t, err, ErrPrecondFail)
}

func TestGetPathsFromAssignsParents(t *testing.T) {
	c := buildTwoMeshes(t)

	parents := make(map[NodeID]*NodeID)
	c.GetPathsFrom("n0", func(_ *Cascade, visited NodeID, parent *NodeID) {
		parents[visited] = parent
	})

	require.Nil(t, parents["n0"])
	require.NotNil(t, parents["n1"])
	require.Equal(t, NodeID("n0"), *parents["n1"])
	require.NotNil(t, parents["n3"])
	require.Equal(t, NodeID("n0"), *parents["n3"])
}

func TestGetDistanceFromFindsNearestMatch(t *testing.T) {
	c := buildTwoMeshes(t)

	dist, ok := c.GetDistanceFrom("n2", func(id NodeID) bool { return id == "n4" })
	require.True(t, ok)
	require.Equal(t, 2, dist) // n2 -> n0 -> n4
}

func TestGetDistanceFromNoMatch(t *testing.T) {
	c := buildTwoMeshes(t)

	_, ok := c.GetDistanceFrom("n2", func(id NodeID) bool { return id == "nonexistent" })
	require.False(t, ok)
}

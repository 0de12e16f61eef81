package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNode struct {
	prim  *Primitive
	world Transform
	scale mgl32.Vec3
	reads int
}

func (n *mockNode) Primitive() *Primitive { return n.prim }
func (n *mockNode) WorldTransform() Transform {
	n.reads++
	return n.world
}
func (n *mockNode) LocalScale() mgl32.Vec3 { return n.scale }

type mockTree struct {
	nodes []*mockNode
	dirty bool
	scans int
}

func (t *mockTree) TakeDirty() bool {
	d := t.dirty
	t.dirty = false
	return d
}

func (t *mockTree) AppendPrimitiveNodes(dst []PrimitiveNode) []PrimitiveNode {
	t.scans++
	for _, n := range t.nodes {
		dst = append(dst, n)
	}
	return dst
}

func newMockNode(g GeometryKind, op OperationKind, x float32) *mockNode {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{x, 0, 0}
	return &mockNode{prim: NewPrimitive(g, op), world: tr, scale: tr.Scale}
}

func TestCollectorPreservesOrder(t *testing.T) {
	tree := &mockTree{nodes: []*mockNode{
		newMockNode(GeometrySphere, OperationUnion, 1),
		newMockNode(GeometryBox, OperationSubtraction, 2),
		newMockNode(GeometryCylinder, OperationIntersection, 3),
	}}
	c := NewCollector()

	recs, err := c.Collect(tree, nil)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, want := range []GeometryKind{GeometrySphere, GeometryBox, GeometryCylinder} {
		assert.Equal(t, int32(want), recs[i].Geometry)
		assert.Equal(t, float32(i+1), recs[i].Position[0])
	}
}

func TestCollectorReadsTransformsEveryCall(t *testing.T) {
	node := newMockNode(GeometrySphere, OperationUnion, 0)
	tree := &mockTree{nodes: []*mockNode{node}}
	c := NewCollector()

	_, err := c.Collect(tree, nil)
	require.NoError(t, err)

	node.world.Position = mgl32.Vec3{7, 8, 9}
	node.prim.Blend = 0.5
	recs, err := c.Collect(tree, nil)
	require.NoError(t, err)

	assert.Equal(t, [3]float32{7, 8, 9}, recs[0].Position)
	assert.Equal(t, float32(0.5), recs[0].Blend)
	assert.Equal(t, 2, node.reads)
	assert.Equal(t, 1, tree.scans, "field edits alone must not trigger a rescan")
}

func TestCollectorRescansWhenDirty(t *testing.T) {
	tree := &mockTree{nodes: []*mockNode{newMockNode(GeometrySphere, OperationUnion, 0)}}
	c := NewCollector()

	recs, err := c.Collect(tree, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	tree.nodes = append(tree.nodes, newMockNode(GeometryBox, OperationUnion, 1))
	recs, err = c.Collect(tree, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 1, "no rescan without the dirty flag")

	tree.dirty = true
	recs, err = c.Collect(tree, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, 2, c.Rescans())

	tree.nodes = tree.nodes[:1]
	c.Invalidate()
	recs, err = c.Collect(tree, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestCollectorEmptyScene(t *testing.T) {
	c := NewCollector()
	recs, err := c.Collect(&mockTree{}, nil)
	assert.ErrorIs(t, err, ErrNoBoundary)
	assert.Empty(t, recs)
}

func TestCollectorPacksLocalScale(t *testing.T) {
	node := newMockNode(GeometryBox, OperationUnion, 3)
	node.world.Scale = mgl32.Vec3{1, 1, 1}
	node.world.Rotation = QuatFromEuler(mgl32.Vec3{0, 0.5, 0})
	node.scale = mgl32.Vec3{0.5, 0.25, 2}
	tree := &mockTree{nodes: []*mockNode{node}}

	recs, err := NewCollector().Collect(tree, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, [3]float32{0.5, 0.25, 2}, recs[0].Scale)
	assert.Equal(t, [3]float32{3, 0, 0}, recs[0].Position)
	assert.InDelta(t, 0.5, recs[0].Rotation[1], 1e-5)
}

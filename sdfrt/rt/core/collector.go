package core

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoBoundary is returned when the scene has no primitive that can serve
// as the boundary record.
var ErrNoBoundary = errors.New("sdf scene has no primitives: a boundary primitive is required")

// PrimitiveNode is a hierarchy node carrying a primitive.
type PrimitiveNode interface {
	Primitive() *Primitive
	// WorldTransform is evaluated at call time, never cached.
	WorldTransform() Transform
	// LocalScale is the node's own scale; ancestor scale does not apply to
	// the packed shape size.
	LocalScale() mgl32.Vec3
}

// PrimitiveTree is the scene graph as seen by the Collector.
type PrimitiveTree interface {
	// TakeDirty reports whether nodes were added, removed, reparented or
	// (de)activated since the previous call, and clears the flag.
	TakeDirty() bool
	// AppendPrimitiveNodes appends active primitive nodes in traversal order.
	// The last one appended is the boundary.
	AppendPrimitiveNodes(dst []PrimitiveNode) []PrimitiveNode
}

// Collector turns a PrimitiveTree into ordered shape records.
type Collector struct {
	nodes   []PrimitiveNode
	scanned bool
	rescans int
}

func NewCollector() *Collector {
	return &Collector{}
}

// Invalidate drops the cached node list; the next Collect rescans.
func (c *Collector) Invalidate() {
	c.scanned = false
}

func (c *Collector) Rescans() int { return c.rescans }

// Nodes returns the cached node list from the last scan.
func (c *Collector) Nodes() []PrimitiveNode { return c.nodes }

// Collect appends one record per primitive node to dst, in traversal order,
// with the boundary last. Records carry world position and rotation with the
// node's local scale.
func (c *Collector) Collect(tree PrimitiveTree, dst []ShapeRecord) ([]ShapeRecord, error) {
	dirty := tree.TakeDirty()
	if dirty || !c.scanned {
		clear(c.nodes)
		c.nodes = tree.AppendPrimitiveNodes(c.nodes[:0])
		c.scanned = true
		c.rescans++
	}

	if len(c.nodes) == 0 {
		return dst, ErrNoBoundary
	}

	start := len(dst)
	for _, node := range c.nodes {
		p := node.Primitive()
		if p == nil {
			continue
		}
		shape := node.WorldTransform()
		shape.Scale = node.LocalScale()
		dst = append(dst, PackPrimitive(p, shape))
	}
	if len(dst) == start {
		return dst, ErrNoBoundary
	}
	return dst, nil
}

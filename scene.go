package sdfsandbox

import (
	"errors"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var (
	ErrNodeCycle   = errors.New("node cannot be parented under itself or a descendant")
	ErrForeignNode = errors.New("node belongs to another scene")
)

// Node is one element of the scene hierarchy. A node carries a local
// transform and, optionally, a primitive descriptor.
type Node struct {
	ID    uuid.UUID
	Name  string
	Local core.Transform

	shape    *core.Primitive
	active   bool
	parent   *Node
	children []*Node
	scene    *Scene
}

func (n *Node) Primitive() *core.Primitive { return n.shape }
func (n *Node) Parent() *Node              { return n.parent }
func (n *Node) Children() []*Node          { return n.children }
func (n *Node) Active() bool               { return n.active }

// SetPrimitive attaches p, or detaches the descriptor when p is nil.
func (n *Node) SetPrimitive(p *core.Primitive) {
	if n.shape == p {
		return
	}
	n.shape = p
	n.markDirty()
}

func (n *Node) SetActive(active bool) {
	if n.active == active {
		return
	}
	n.active = active
	n.markDirty()
}

// WorldTransform composes the local transforms from the root down.
func (n *Node) WorldTransform() core.Transform {
	world := n.Local
	for p := n.parent; p != nil; p = p.parent {
		world = world.Compose(p.Local)
	}
	return world
}

// LocalScale returns the node's own scale, ignoring its ancestors.
func (n *Node) LocalScale() mgl32.Vec3 { return n.Local.Scale }

// AddChild reparents child under n.
func (n *Node) AddChild(child *Node) error {
	if child.scene != n.scene {
		return ErrForeignNode
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrNodeCycle
		}
	}
	if child.parent == n {
		return nil
	}
	child.detach()
	child.parent = n
	n.children = append(n.children, child)
	n.markDirty()
	return nil
}

// Remove detaches n and its subtree from the hierarchy.
func (n *Node) Remove() {
	if n.parent == nil {
		return
	}
	n.detach()
	n.markDirty()
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
	p.markDirty()
}

func (n *Node) markDirty() {
	if n.scene != nil {
		n.scene.dirty = true
	}
}

// Scene is the primitive hierarchy plus a separate viewer node whose world
// scale is handed to the kernel.
type Scene struct {
	root   *Node
	Viewer *Node
	dirty  bool
}

func NewScene() *Scene {
	s := &Scene{dirty: true}
	s.root = s.NewNode("root")
	s.Viewer = s.NewNode("viewer")
	return s
}

func (s *Scene) Root() *Node { return s.root }

// NewNode creates an active, detached node owned by s.
func (s *Scene) NewNode(name string) *Node {
	return &Node{
		ID:     uuid.New(),
		Name:   name,
		Local:  core.NewTransform(),
		active: true,
		scene:  s,
	}
}

// Add creates a node under parent, or under the root when parent is nil.
func (s *Scene) Add(parent *Node, name string, p *core.Primitive) (*Node, error) {
	if parent == nil {
		parent = s.root
	}
	n := s.NewNode(name)
	n.shape = p
	if err := parent.AddChild(n); err != nil {
		return nil, err
	}
	return n, nil
}

// NewDemoScene builds a small scene: a colored sphere, a box carved out of
// it, and a clipping box as the boundary.
func NewDemoScene() *Scene {
	s := NewScene()

	sphere := core.NewPrimitive(core.GeometrySphere, core.OperationUnion)
	sphere.Color = [4]float32{0.9, 0.4, 0.2, 1}
	sphere.UseColor = true
	sphere.Blend = 0.1
	n, _ := s.Add(nil, "sphere", sphere)
	n.Local.Scale = mgl32.Vec3{0.6, 0.6, 0.6}

	hole := core.NewPrimitive(core.GeometryBox, core.OperationSubtraction)
	hole.Blend = 0.05
	n, _ = s.Add(nil, "hole", hole)
	n.Local.Position = mgl32.Vec3{0.2, 0.2, 0}
	n.Local.Rotation = core.QuatFromEulerDegrees(mgl32.Vec3{0, 45, 0})
	n.Local.Scale = mgl32.Vec3{0.3, 0.3, 0.3}

	boundary := core.NewPrimitive(core.GeometryBox, core.OperationIntersection)
	boundary.Blend = 0
	n, _ = s.Add(nil, "boundary", boundary)
	n.Local.Scale = mgl32.Vec3{0.95, 0.95, 0.95}
	return s
}

// TakeDirty reports and clears the structural change flag.
func (s *Scene) TakeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}

// MarkDirty forces the next collection to rescan.
func (s *Scene) MarkDirty() { s.dirty = true }

// AppendPrimitiveNodes appends every node carrying a primitive in pre-order,
// skipping inactive subtrees.
func (s *Scene) AppendPrimitiveNodes(dst []core.PrimitiveNode) []core.PrimitiveNode {
	s.Walk(func(n *Node) {
		if n.shape != nil {
			dst = append(dst, n)
		}
	})
	return dst
}

// Walk visits active nodes in pre-order, excluding the root itself.
func (s *Scene) Walk(fn func(n *Node)) {
	var visit func(n *Node)
	visit = func(n *Node) {
		for _, c := range n.children {
			if !c.active {
				continue
			}
			fn(c)
			visit(c)
		}
	}
	visit(s.root)
}

func (s *Scene) Find(id uuid.UUID) *Node {
	return s.find(func(n *Node) bool { return n.ID == id })
}

func (s *Scene) FindByName(name string) *Node {
	return s.find(func(n *Node) bool { return n.Name == name })
}

// find searches inactive nodes too.
func (s *Scene) find(match func(n *Node) bool) *Node {
	stack := []*Node{s.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if match(n) {
			return n
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return nil
}

// Replace moves the content of other into s. Nodes keep their ids, and the
// scene is marked dirty. other must not be used afterwards.
func (s *Scene) Replace(other *Scene) {
	for _, c := range s.root.children {
		c.parent = nil
	}
	s.root.children = nil

	var adopt func(n *Node)
	adopt = func(n *Node) {
		n.scene = s
		for _, c := range n.children {
			adopt(c)
		}
	}
	for _, c := range other.root.children {
		adopt(c)
		c.parent = s.root
		s.root.children = append(s.root.children, c)
	}
	other.root.children = nil
	s.Viewer.Local = other.Viewer.Local
	s.dirty = true
}

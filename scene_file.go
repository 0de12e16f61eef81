package sdfsandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// TransformData is a transform as stored on disk. Rotation is Euler degrees
// applied Z, then X, then Y.
type TransformData struct {
	Position [3]float32  `yaml:"position" json:"position"`
	Rotation [3]float32  `yaml:"rotation" json:"rotation"`
	Scale    *[3]float32 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

type ShapeData struct {
	Geometry   core.GeometryKind  `yaml:"geometry" json:"geometry"`
	Operation  core.OperationKind `yaml:"operation" json:"operation"`
	Color      *[4]float32        `yaml:"color,omitempty" json:"color,omitempty"`
	UseColor   bool               `yaml:"use_color,omitempty" json:"use_color,omitempty"`
	Blend      *float32           `yaml:"blend,omitempty" json:"blend,omitempty"`
	ColorBlend *float32           `yaml:"color_blend,omitempty" json:"color_blend,omitempty"`
}

type NodeData struct {
	ID            string `yaml:"id,omitempty" json:"id,omitempty"`
	Name          string `yaml:"name" json:"name"`
	Inactive      bool   `yaml:"inactive,omitempty" json:"inactive,omitempty"`
	TransformData `yaml:",inline"`
	Shape         *ShapeData `yaml:"shape,omitempty" json:"shape,omitempty"`
	Children      []NodeData `yaml:"children,omitempty" json:"children,omitempty"`
}

type SceneData struct {
	Viewer *TransformData `yaml:"viewer,omitempty" json:"viewer,omitempty"`
	Nodes  []NodeData     `yaml:"nodes" json:"nodes"`
}

func (d TransformData) transform() core.Transform {
	t := core.NewTransform()
	t.Position = mgl32.Vec3(d.Position)
	t.Rotation = core.QuatFromEulerDegrees(mgl32.Vec3(d.Rotation))
	if d.Scale != nil {
		t.Scale = mgl32.Vec3(*d.Scale)
	}
	return t
}

func transformData(t core.Transform) TransformData {
	e := t.EulerRadians()
	scale := [3]float32(t.Scale)
	return TransformData{
		Position: [3]float32(t.Position),
		Rotation: [3]float32{mgl32.RadToDeg(e[0]), mgl32.RadToDeg(e[1]), mgl32.RadToDeg(e[2])},
		Scale:    &scale,
	}
}

func (d *ShapeData) primitive() (*core.Primitive, error) {
	if !d.Geometry.Valid() {
		return nil, fmt.Errorf("unknown geometry %d", d.Geometry)
	}
	if !d.Operation.Valid() {
		return nil, fmt.Errorf("unknown operation %d", d.Operation)
	}
	p := core.NewPrimitive(d.Geometry, d.Operation)
	if d.Color != nil {
		p.Color = *d.Color
	}
	p.UseColor = d.UseColor
	if d.Blend != nil {
		p.Blend = *d.Blend
	}
	if d.ColorBlend != nil {
		p.ColorBlend = *d.ColorBlend
	}
	return p, nil
}

func shapeData(p *core.Primitive) *ShapeData {
	color := p.Color
	blend, colorBlend := p.Blend, p.ColorBlend
	return &ShapeData{
		Geometry:   p.Geometry,
		Operation:  p.Operation,
		Color:      &color,
		UseColor:   p.UseColor,
		Blend:      &blend,
		ColorBlend: &colorBlend,
	}
}

// BuildScene turns a document into a new scene.
func BuildScene(data *SceneData) (*Scene, error) {
	s := NewScene()
	if data.Viewer != nil {
		s.Viewer.Local = data.Viewer.transform()
	}
	var build func(parent *Node, nd NodeData) error
	build = func(parent *Node, nd NodeData) error {
		n := s.NewNode(nd.Name)
		if nd.ID != "" {
			id, err := uuid.Parse(nd.ID)
			if err != nil {
				return fmt.Errorf("node %q: %w", nd.Name, err)
			}
			n.ID = id
		}
		n.Local = nd.transform()
		n.active = !nd.Inactive
		if nd.Shape != nil {
			p, err := nd.Shape.primitive()
			if err != nil {
				return fmt.Errorf("node %q: %w", nd.Name, err)
			}
			n.shape = p
		}
		if err := parent.AddChild(n); err != nil {
			return err
		}
		for _, c := range nd.Children {
			if err := build(n, c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, nd := range data.Nodes {
		if err := build(s.root, nd); err != nil {
			return nil, err
		}
	}
	s.dirty = true
	return s, nil
}

// Snapshot captures s as a document, inactive nodes included.
func (s *Scene) Snapshot() *SceneData {
	viewer := transformData(s.Viewer.Local)
	data := &SceneData{Viewer: &viewer}
	var snap func(n *Node) NodeData
	snap = func(n *Node) NodeData {
		nd := NodeData{
			ID:            n.ID.String(),
			Name:          n.Name,
			Inactive:      !n.active,
			TransformData: transformData(n.Local),
		}
		if n.shape != nil {
			nd.Shape = shapeData(n.shape)
		}
		for _, c := range n.children {
			nd.Children = append(nd.Children, snap(c))
		}
		return nd
	}
	for _, c := range s.root.children {
		data.Nodes = append(data.Nodes, snap(c))
	}
	return data
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadSceneFile reads a YAML or JSON (by extension) scene document.
func LoadSceneFile(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data SceneData
	if isJSON(path) {
		err = json.Unmarshal(raw, &data)
	} else {
		err = yaml.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	s, err := BuildScene(&data)
	if err != nil {
		return nil, fmt.Errorf("build scene %s: %w", path, err)
	}
	return s, nil
}

func SaveSceneFile(s *Scene, path string) error {
	data := s.Snapshot()
	var (
		raw []byte
		err error
	)
	if isJSON(path) {
		raw, err = json.MarshalIndent(data, "", "  ")
	} else {
		raw, err = yaml.Marshal(data)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

package core

import (
	"fmt"
	"strings"
)

// GeometryKind selects the implicit shape a primitive evaluates. The values
// are the geometry codes written to the shapes buffer.
type GeometryKind int32

const (
	GeometrySphere GeometryKind = iota
	GeometryBox
	GeometryCylinder
)

var geometryNames = [...]string{"sphere", "box", "cylinder"}

func (g GeometryKind) String() string {
	if g < 0 || int(g) >= len(geometryNames) {
		return fmt.Sprintf("GeometryKind(%d)", int32(g))
	}
	return geometryNames[g]
}

func (g GeometryKind) Valid() bool { return g >= 0 && int(g) < len(geometryNames) }

func (g GeometryKind) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("unknown geometry kind %d", int32(g))
	}
	return []byte(geometryNames[g]), nil
}

func (g *GeometryKind) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range geometryNames {
		if n == name {
			*g = GeometryKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown geometry kind %q", text)
}

// OperationKind is how a shape folds into the field accumulated so far.
type OperationKind int32

const (
	OperationUnion OperationKind = iota
	OperationSubtraction
	OperationIntersection
)

var operationNames = [...]string{"union", "subtraction", "intersection"}

func (o OperationKind) String() string {
	if o < 0 || int(o) >= len(operationNames) {
		return fmt.Sprintf("OperationKind(%d)", int32(o))
	}
	return operationNames[o]
}

func (o OperationKind) Valid() bool { return o >= 0 && int(o) < len(operationNames) }

func (o OperationKind) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("unknown operation kind %d", int32(o))
	}
	return []byte(operationNames[o]), nil
}

func (o *OperationKind) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range operationNames {
		if n == name {
			*o = OperationKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown operation kind %q", text)
}

// Primitive is the authoring-side description of one implicit shape.
// Its transform lives on the owning node; everything else is edited here
// and picked up on the next pack.
type Primitive struct {
	Geometry   GeometryKind
	Operation  OperationKind
	Color      [4]float32 // RGBA, alpha ignored by the packer
	UseColor   bool
	Blend      float32 // smoothing radius of the combine operation
	ColorBlend float32
}

func NewPrimitive(geometry GeometryKind, op OperationKind) *Primitive {
	return &Primitive{
		Geometry:   geometry,
		Operation:  op,
		Color:      [4]float32{1, 1, 1, 1},
		UseColor:   false,
		Blend:      0.01,
		ColorBlend: 0.01,
	}
}

package core

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// ShapeRecord is the GPU-facing form of one shape. The field order and the
// 4-byte scalar members match the Shape struct in sdf_volume.wgsl; any
// change must be made in ShapeLayout, the kernel and here together.
type ShapeRecord struct {
	Color      [3]float32
	UseColor   int32
	Position   [3]float32
	Rotation   [3]float32 // Euler radians
	Scale      [3]float32
	Blend      float32
	BlendColor float32
	Geometry   int32
	Operation  int32
}

// ShapeRecordSize is the stride of one record in the shapes buffer.
const ShapeRecordSize = 68

// Both directions, so a record that grows or shrinks fails to compile.
var (
	_ [ShapeRecordSize - unsafe.Sizeof(ShapeRecord{})]struct{}
	_ [unsafe.Sizeof(ShapeRecord{}) - ShapeRecordSize]struct{}
)

type FieldKind int

const (
	FieldFloat32 FieldKind = iota
	FieldInt32
)

type LayoutField struct {
	Name       string
	Offset     int
	Components int
	Kind       FieldKind
}

func (f LayoutField) Size() int { return f.Components * 4 }

// ShapeLayout describes ShapeRecord byte for byte, in upload order.
var ShapeLayout = [...]LayoutField{
	{Name: "color", Offset: 0, Components: 3, Kind: FieldFloat32},
	{Name: "use_color", Offset: 12, Components: 1, Kind: FieldInt32},
	{Name: "position", Offset: 16, Components: 3, Kind: FieldFloat32},
	{Name: "rotation", Offset: 28, Components: 3, Kind: FieldFloat32},
	{Name: "scale", Offset: 40, Components: 3, Kind: FieldFloat32},
	{Name: "blend", Offset: 52, Components: 1, Kind: FieldFloat32},
	{Name: "blend_color", Offset: 56, Components: 1, Kind: FieldFloat32},
	{Name: "geometry", Offset: 60, Components: 1, Kind: FieldInt32},
	{Name: "operation", Offset: 64, Components: 1, Kind: FieldInt32},
}

// words flattens the record into its 17 scalars in ShapeLayout order.
func (r *ShapeRecord) words() [ShapeRecordSize / 4]uint32 {
	f := math.Float32bits
	return [ShapeRecordSize / 4]uint32{
		f(r.Color[0]), f(r.Color[1]), f(r.Color[2]),
		uint32(r.UseColor),
		f(r.Position[0]), f(r.Position[1]), f(r.Position[2]),
		f(r.Rotation[0]), f(r.Rotation[1]), f(r.Rotation[2]),
		f(r.Scale[0]), f(r.Scale[1]), f(r.Scale[2]),
		f(r.Blend),
		f(r.BlendColor),
		uint32(r.Geometry),
		uint32(r.Operation),
	}
}

// AppendBytes appends the little-endian encoding of r to b.
func (r *ShapeRecord) AppendBytes(b []byte) []byte {
	words := r.words()
	base := len(b)
	b = append(b, make([]byte, ShapeRecordSize)...)
	word := 0
	for _, field := range ShapeLayout {
		for c := 0; c < field.Components; c++ {
			binary.LittleEndian.PutUint32(b[base+field.Offset+c*4:], words[word])
			word++
		}
	}
	return b
}

// EncodeShapes appends the encoding of every record to dst and returns it.
func EncodeShapes(dst []byte, records []ShapeRecord) []byte {
	if need := len(dst) + len(records)*ShapeRecordSize; cap(dst) < need {
		grown := make([]byte, len(dst), need)
		copy(grown, dst)
		dst = grown
	}
	for i := range records {
		dst = records[i].AppendBytes(dst)
	}
	return dst
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// PackPrimitive converts a descriptor and the placement of its node into a
// record.
func PackPrimitive(p *Primitive, world Transform) ShapeRecord {
	rot := world.EulerRadians()
	return ShapeRecord{
		Color:      [3]float32{p.Color[0], p.Color[1], p.Color[2]},
		UseColor:   boolToInt32(p.UseColor),
		Position:   [3]float32{world.Position.X(), world.Position.Y(), world.Position.Z()},
		Rotation:   [3]float32{rot.X(), rot.Y(), rot.Z()},
		Scale:      [3]float32{world.Scale.X(), world.Scale.Y(), world.Scale.Z()},
		Blend:      p.Blend,
		BlendColor: p.ColorBlend,
		Geometry:   int32(p.Geometry),
		Operation:  int32(p.Operation),
	}
}

package core

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeLayoutMatchesStruct(t *testing.T) {
	var r ShapeRecord
	offsets := map[string]uintptr{
		"color":       unsafe.Offsetof(r.Color),
		"use_color":   unsafe.Offsetof(r.UseColor),
		"position":    unsafe.Offsetof(r.Position),
		"rotation":    unsafe.Offsetof(r.Rotation),
		"scale":       unsafe.Offsetof(r.Scale),
		"blend":       unsafe.Offsetof(r.Blend),
		"blend_color": unsafe.Offsetof(r.BlendColor),
		"geometry":    unsafe.Offsetof(r.Geometry),
		"operation":   unsafe.Offsetof(r.Operation),
	}

	next := 0
	for _, field := range ShapeLayout {
		off, ok := offsets[field.Name]
		require.True(t, ok, "layout field %q has no struct member", field.Name)
		assert.Equal(t, int(off), field.Offset, "offset of %s", field.Name)
		assert.Equal(t, next, field.Offset, "%s is not packed tightly", field.Name)
		next = field.Offset + field.Size()
	}
	assert.Equal(t, ShapeRecordSize, next)
	assert.Equal(t, uintptr(ShapeRecordSize), unsafe.Sizeof(ShapeRecord{}))
}

func TestShapeRecordEncoding(t *testing.T) {
	r := ShapeRecord{
		Color:      [3]float32{0.25, 0.5, 0.75},
		UseColor:   1,
		Position:   [3]float32{1, 2, 3},
		Rotation:   [3]float32{0, math.Pi / 2, 0},
		Scale:      [3]float32{2, 2, 2},
		Blend:      0.1,
		BlendColor: 0.2,
		Geometry:   int32(GeometryCylinder),
		Operation:  int32(OperationIntersection),
	}
	b := r.AppendBytes(nil)
	require.Len(t, b, ShapeRecordSize)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	i32 := func(off int) int32 { return int32(binary.LittleEndian.Uint32(b[off:])) }

	assert.Equal(t, float32(0.75), f32(8))
	assert.Equal(t, int32(1), i32(12))
	assert.Equal(t, float32(3), f32(24))
	assert.Equal(t, float32(math.Pi/2), f32(32))
	assert.Equal(t, float32(2), f32(48))
	assert.Equal(t, float32(0.1), f32(52))
	assert.Equal(t, float32(0.2), f32(56))
	assert.Equal(t, int32(2), i32(60))
	assert.Equal(t, int32(2), i32(64))
}

func TestEncodeShapesAppends(t *testing.T) {
	recs := []ShapeRecord{{Geometry: 1}, {Geometry: 2}, {Operation: 1}}
	prefix := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	out := EncodeShapes(prefix, recs)
	require.Len(t, out, 4+3*ShapeRecordSize)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, out[:4])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(out[4+ShapeRecordSize+60:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(out[4+2*ShapeRecordSize+64:]))
}

func TestPackPrimitive(t *testing.T) {
	p := NewPrimitive(GeometryBox, OperationSubtraction)
	p.Color = [4]float32{1, 0, 0, 0.5}
	p.UseColor = true
	p.Blend = 0.3
	p.ColorBlend = 0.4

	world := NewTransform()
	world.Position = mgl32.Vec3{4, 5, 6}
	world.Scale = mgl32.Vec3{1, 2, 3}
	world.Rotation = QuatFromEuler(mgl32.Vec3{0, math.Pi / 2, 0})

	r := PackPrimitive(p, world)
	assert.Equal(t, [3]float32{1, 0, 0}, r.Color)
	assert.Equal(t, int32(1), r.UseColor)
	assert.Equal(t, [3]float32{4, 5, 6}, r.Position)
	assert.Equal(t, [3]float32{1, 2, 3}, r.Scale)
	assert.InDelta(t, math.Pi/2, r.Rotation[1], 1e-5)
	assert.Equal(t, float32(0.3), r.Blend)
	assert.Equal(t, float32(0.4), r.BlendColor)
	assert.Equal(t, int32(GeometryBox), r.Geometry)
	assert.Equal(t, int32(OperationSubtraction), r.Operation)

	p.UseColor = false
	assert.Equal(t, int32(0), PackPrimitive(p, world).UseColor)
}

func TestKindText(t *testing.T) {
	var g GeometryKind
	require.NoError(t, g.UnmarshalText([]byte("Cylinder")))
	assert.Equal(t, GeometryCylinder, g)
	assert.Error(t, g.UnmarshalText([]byte("torus")))

	var o OperationKind
	require.NoError(t, o.UnmarshalText([]byte("intersection")))
	assert.Equal(t, OperationIntersection, o)
	text, err := OperationSubtraction.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "subtraction", string(text))

	_, err = GeometryKind(9).MarshalText()
	assert.Error(t, err)
}

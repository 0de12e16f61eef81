package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// GroupExtent is the workgroup size of the kernel along each axis.
const GroupExtent = 8

// ParamsSize is the byte size of the Params uniform block.
const ParamsSize = 32

// ThreadGroups returns the workgroup counts covering a volume of the given
// edge length. Edges that are not a multiple of GroupExtent are rejected,
// since the cells past the last full group would never be written.
func ThreadGroups(edge int) ([3]uint32, error) {
	if edge <= 0 || edge%GroupExtent != 0 {
		return [3]uint32{}, fmt.Errorf("%w: got %d", ErrEdgeLength, edge)
	}
	n := uint32(edge / GroupExtent)
	return [3]uint32{n, n, n}, nil
}

// Params is the scalar block handed to the kernel.
type Params struct {
	ViewerScale mgl32.Vec3
	TextureSize uint32
	ShapesCount uint32
	SRGB        bool
}

// AppendBytes encodes p with WGSL uniform layout:
//
//	struct Params {
//	  viewer_scale: vec3<f32>, // 0
//	  texture_size: u32,       // 12
//	  shapes_count: u32,       // 16
//	  srgb: u32,               // 20
//	} // 32 bytes
func (p Params) AppendBytes(b []byte) []byte {
	base := len(b)
	b = append(b, make([]byte, ParamsSize)...)
	buf := b[base:]
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(p.ViewerScale.X()))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(p.ViewerScale.Y()))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(p.ViewerScale.Z()))
	binary.LittleEndian.PutUint32(buf[12:], p.TextureSize)
	binary.LittleEndian.PutUint32(buf[16:], p.ShapesCount)
	srgb := uint32(0)
	if p.SRGB {
		srgb = 1
	}
	binary.LittleEndian.PutUint32(buf[20:], srgb)
	return b
}

// Frame is everything one dispatch needs.
type Frame struct {
	Volume      Texture
	Shapes      Buffer
	ShapeCount  int
	ViewerScale mgl32.Vec3
}

var errNoVolume = errors.New("no volume texture bound")

// FieldDispatcher uploads shape records and submits the volume compute pass.
type FieldDispatcher struct {
	backend  Backend
	material Material
	slot     string

	payload []byte
	params  []byte
	groups  [3]uint32
}

func NewFieldDispatcher(backend Backend, material Material, slot string) *FieldDispatcher {
	return &FieldDispatcher{
		backend:  backend,
		material: material,
		slot:     slot,
	}
}

func (d *FieldDispatcher) SetSlot(slot string) { d.slot = slot }
func (d *FieldDispatcher) Slot() string       { return d.slot }

// LastGroups is the workgroup count of the last successful dispatch.
func (d *FieldDispatcher) LastGroups() [3]uint32 { return d.groups }

// Upload writes records into buf through the shared record layout.
func (d *FieldDispatcher) Upload(buf Buffer, records []core.ShapeRecord) error {
	if len(records) == 0 {
		return core.ErrNoBoundary
	}
	if buf == nil {
		return errors.New("no shapes buffer allocated")
	}
	need := uint64(len(records) * core.ShapeRecordSize)
	if buf.Size() < need {
		return fmt.Errorf("shapes buffer holds %d bytes, frame needs %d", buf.Size(), need)
	}
	d.payload = core.EncodeShapes(d.payload[:0], records)
	if err := d.backend.WriteShapes(buf, d.payload); err != nil {
		return fmt.Errorf("upload %d shapes: %w", len(records), err)
	}
	return nil
}

// Dispatch submits one compute pass over the whole volume. It returns once
// the work is queued.
func (d *FieldDispatcher) Dispatch(f Frame) error {
	if f.Volume == nil {
		return errNoVolume
	}
	if f.Shapes == nil || f.ShapeCount <= 0 {
		return core.ErrNoBoundary
	}
	desc := f.Volume.Descriptor()
	groups, err := ThreadGroups(desc.EdgeLength)
	if err != nil {
		return err
	}

	p := Params{
		ViewerScale: f.ViewerScale,
		TextureSize: uint32(desc.EdgeLength),
		ShapesCount: uint32(f.ShapeCount),
		SRGB:        desc.ColorSpace == ColorSpaceSRGB,
	}
	d.params = p.AppendBytes(d.params[:0])

	err = d.backend.Dispatch(DispatchCall{
		Volume: f.Volume,
		Shapes: f.Shapes,
		Params: d.params,
		Groups: groups,
	})
	if err != nil {
		return fmt.Errorf("dispatch %v workgroups: %w", groups, err)
	}
	d.groups = groups
	return nil
}

// Present hands the volume to the display material.
func (d *FieldDispatcher) Present(volume Texture) {
	if d.material == nil || volume == nil {
		return
	}
	d.material.SetVolume(d.slot, volume)
}

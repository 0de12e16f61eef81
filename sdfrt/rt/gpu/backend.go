package gpu

import (
	"errors"
	"fmt"
	"strings"
)

// Binding names of the compute stage. The WGSL kernel declares them at
// group 0, bindings 0, 1 and 2 in this order.
const (
	VolumeBindingName = "Texture"
	ShapesBindingName = "ShapesBuffer"
	ParamsBindingName = "Params"
)

// MaxEdgeLength is the WebGPU default limit for 3D texture dimensions.
const MaxEdgeLength = 2048

var ErrEdgeLength = errors.New("volume edge length must be a positive multiple of 8")

type TextureFormat int

const (
	FormatRGBA16Float TextureFormat = iota
	FormatRGBA8Unorm
)

var formatNames = [...]string{"rgba16float", "rgba8unorm"}

func (f TextureFormat) Valid() bool { return f >= 0 && int(f) < len(formatNames) }

// WGSL returns the storage texel format name used in shader source.
func (f TextureFormat) WGSL() string { return f.String() }

func (f TextureFormat) String() string {
	if !f.Valid() {
		return fmt.Sprintf("TextureFormat(%d)", int(f))
	}
	return formatNames[f]
}

func (f TextureFormat) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown texture format %d", int(f))
	}
	return []byte(formatNames[f]), nil
}

func (f *TextureFormat) UnmarshalText(text []byte) error {
	v, err := parseName(formatNames[:], text)
	if err != nil {
		return fmt.Errorf("unknown texture format %q", text)
	}
	*f = TextureFormat(v)
	return nil
}

// ColorSpace selects how color is encoded when written to the volume.
type ColorSpace int

const (
	ColorSpaceLinear ColorSpace = iota
	ColorSpaceSRGB
)

var colorSpaceNames = [...]string{"linear", "srgb"}

func (c ColorSpace) Valid() bool { return c >= 0 && int(c) < len(colorSpaceNames) }

func (c ColorSpace) String() string {
	if !c.Valid() {
		return fmt.Sprintf("ColorSpace(%d)", int(c))
	}
	return colorSpaceNames[c]
}

func (c ColorSpace) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown color space %d", int(c))
	}
	return []byte(colorSpaceNames[c]), nil
}

func (c *ColorSpace) UnmarshalText(text []byte) error {
	v, err := parseName(colorSpaceNames[:], text)
	if err != nil {
		return fmt.Errorf("unknown color space %q", text)
	}
	*c = ColorSpace(v)
	return nil
}

func parseName(names []string, text []byte) (int, error) {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, errors.New("unknown name")
}

type AddressMode int

const (
	AddressClampToEdge AddressMode = iota
)

type FilterMode int

const (
	FilterBilinear FilterMode = iota
)

// VolumeDescriptor describes the 3D volume texture. EdgeLength, Format and
// ColorSpace are the texture-affecting parameters; the rest are fixed.
type VolumeDescriptor struct {
	Label       string
	EdgeLength  int
	Format      TextureFormat
	ColorSpace  ColorSpace
	RandomWrite bool
	Address     AddressMode
	Filter      FilterMode
}

func NewVolumeDescriptor(edge int, format TextureFormat, space ColorSpace) VolumeDescriptor {
	return VolumeDescriptor{
		Label:       "SDF Volume",
		EdgeLength:  edge,
		Format:      format,
		ColorSpace:  space,
		RandomWrite: true,
		Address:     AddressClampToEdge,
		Filter:      FilterBilinear,
	}
}

// SameTexture reports whether d and o produce interchangeable textures.
func (d VolumeDescriptor) SameTexture(o VolumeDescriptor) bool {
	return d.EdgeLength == o.EdgeLength && d.Format == o.Format && d.ColorSpace == o.ColorSpace
}

func (d VolumeDescriptor) Validate() error {
	if d.EdgeLength <= 0 || d.EdgeLength%GroupExtent != 0 {
		return fmt.Errorf("%w: got %d", ErrEdgeLength, d.EdgeLength)
	}
	if d.EdgeLength > MaxEdgeLength {
		return fmt.Errorf("volume edge length %d exceeds %d", d.EdgeLength, MaxEdgeLength)
	}
	if !d.Format.Valid() {
		return fmt.Errorf("unknown texture format %d", int(d.Format))
	}
	if !d.ColorSpace.Valid() {
		return fmt.Errorf("unknown color space %d", int(d.ColorSpace))
	}
	return nil
}

// Texture is a backend-owned volume texture.
type Texture interface {
	Descriptor() VolumeDescriptor
	Release()
}

// Buffer is a backend-owned storage buffer.
type Buffer interface {
	Size() uint64
	Release()
}

// DispatchCall is one compute submission covering the whole volume.
type DispatchCall struct {
	Volume Texture
	Shapes Buffer
	Params []byte
	Groups [3]uint32
}

// Backend is the GPU surface driven by VolumeManager and FieldDispatcher.
// Implementations may return errors but must not block on GPU completion.
type Backend interface {
	CreateVolume(desc VolumeDescriptor) (Texture, error)
	CreateShapeBuffer(label string, size uint64) (Buffer, error)
	WriteShapes(buf Buffer, data []byte) error
	Dispatch(call DispatchCall) error
}

// Material is the display stage; it samples the volume bound under slot.
type Material interface {
	SetVolume(slot string, volume Texture)
}

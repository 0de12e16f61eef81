package gpu

import (
	"errors"
	"testing"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeLazyCreation(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)
	assert.Nil(t, m.Current())
	assert.Empty(t, rb.Volumes)

	v1, err := m.Volume()
	require.NoError(t, err)
	v2, err := m.Volume()
	require.NoError(t, err)
	assert.Same(t, v1, v2)
	assert.Len(t, rb.Volumes, 1)
	assert.Equal(t, 1, m.Generation())

	desc := v1.Descriptor()
	assert.Equal(t, 64, desc.EdgeLength)
	assert.True(t, desc.RandomWrite)
	assert.Equal(t, AddressClampToEdge, desc.Address)
	assert.Equal(t, FilterBilinear, desc.Filter)
}

func TestVolumeEdgeChangeReallocates(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)
	_, err := m.Volume()
	require.NoError(t, err)

	// Same texture parameters do not invalidate.
	same := NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear)
	same.Label = "renamed"
	assert.False(t, m.Configure(same))

	assert.True(t, m.Configure(NewVolumeDescriptor(128, FormatRGBA16Float, ColorSpaceLinear)))
	v, err := m.Volume()
	require.NoError(t, err)
	require.Len(t, rb.Volumes, 2)
	assert.False(t, rb.Volumes[0].Released, "old texture is held until the new one is presented")
	assert.Same(t, rb.Volumes[0], m.Retired())

	m.Presented()
	assert.True(t, rb.Volumes[0].Released)
	assert.False(t, rb.Volumes[1].Released)
	assert.Nil(t, m.Retired())
	assert.Equal(t, 128, v.Descriptor().EdgeLength)
	assert.Equal(t, 2, m.Generation())
}

func TestVolumeUnpresentedReplacementIsReleased(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)
	_, err := m.Volume()
	require.NoError(t, err)
	m.Presented()

	// Two rebuilds without a present in between: the first rebuild was
	// never displayed and goes, the displayed one stays.
	m.Configure(NewVolumeDescriptor(128, FormatRGBA16Float, ColorSpaceLinear))
	_, err = m.Volume()
	require.NoError(t, err)
	m.Configure(NewVolumeDescriptor(256, FormatRGBA16Float, ColorSpaceLinear))
	_, err = m.Volume()
	require.NoError(t, err)

	require.Len(t, rb.Volumes, 3)
	assert.False(t, rb.Volumes[0].Released)
	assert.True(t, rb.Volumes[1].Released)
	assert.Same(t, rb.Volumes[0], m.Retired())

	m.Presented()
	assert.True(t, rb.Volumes[0].Released)
	assert.False(t, rb.Volumes[2].Released)
}

func TestVolumeCreationFailureKeepsOld(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)
	old, err := m.Volume()
	require.NoError(t, err)

	m.Configure(NewVolumeDescriptor(256, FormatRGBA16Float, ColorSpaceLinear))
	rb.FailVolume = 1
	_, err = m.Volume()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInjected))
	assert.Same(t, old, m.Current())
	assert.False(t, rb.Volumes[0].Released)

	v, err := m.Volume()
	require.NoError(t, err)
	assert.Equal(t, 256, v.Descriptor().EdgeLength)
	assert.False(t, rb.Volumes[0].Released)
	m.Presented()
	assert.True(t, rb.Volumes[0].Released)
}

func TestVolumeRejectsBadEdge(t *testing.T) {
	for _, edge := range []int{0, -8, 60, 4096} {
		m := NewVolumeManager(NewRecordingBackend(), NewVolumeDescriptor(edge, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)
		_, err := m.Volume()
		assert.Error(t, err, "edge %d", edge)
	}
	m := NewVolumeManager(NewRecordingBackend(), NewVolumeDescriptor(60, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)
	_, err := m.Volume()
	assert.ErrorIs(t, err, ErrEdgeLength)
}

func TestShapeBufferExactPolicy(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)

	for i, count := range []int{2, 6, 6, 3} {
		buf, err := m.ShapeBuffer(count)
		require.NoError(t, err)
		assert.Equal(t, uint64(count*core.ShapeRecordSize), buf.Size())
		assert.Len(t, rb.Buffers, i+1)
		assert.Equal(t, 1, rb.LiveBuffers())
	}
	for _, b := range rb.Buffers[:3] {
		assert.True(t, b.Released)
	}
}

func TestShapeBufferGrowPolicy(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyGrow)

	b1, err := m.ShapeBuffer(4)
	require.NoError(t, err)
	b2, err := m.ShapeBuffer(3)
	require.NoError(t, err)
	assert.Same(t, b1, b2)
	assert.Equal(t, 3, m.Used())
	assert.Equal(t, 4, m.Capacity())

	b3, err := m.ShapeBuffer(5)
	require.NoError(t, err)
	assert.NotSame(t, b1, b3)
	assert.Equal(t, 8, m.Capacity())
	assert.Equal(t, uint64(8*core.ShapeRecordSize), b3.Size())
	assert.Equal(t, 1, rb.LiveBuffers())
}

func TestShapeBufferErrors(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)

	_, err := m.ShapeBuffer(0)
	assert.ErrorIs(t, err, core.ErrNoBoundary)

	rb.FailBuffer = 1
	_, err = m.ShapeBuffer(2)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, m.Capacity())

	_, err = m.ShapeBuffer(2)
	assert.NoError(t, err)
}

func TestVolumeManagerRelease(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)
	_, _ = m.Volume()
	_, _ = m.ShapeBuffer(2)
	m.Release()
	assert.True(t, rb.Volumes[0].Released)
	assert.Equal(t, 0, rb.LiveBuffers())
	assert.Nil(t, m.Current())
}

func TestVolumeManagerReleaseFreesRetired(t *testing.T) {
	rb := NewRecordingBackend()
	m := NewVolumeManager(rb, NewVolumeDescriptor(64, FormatRGBA16Float, ColorSpaceLinear), BufferPolicyExact)
	_, _ = m.Volume()
	m.Presented()
	m.Configure(NewVolumeDescriptor(32, FormatRGBA16Float, ColorSpaceLinear))
	_, err := m.Volume()
	require.NoError(t, err)
	require.Same(t, rb.Volumes[0], m.Retired())

	m.Release()
	assert.True(t, rb.Volumes[0].Released)
	assert.True(t, rb.Volumes[1].Released)
	assert.Nil(t, m.Retired())
}

func TestDescriptorTextNames(t *testing.T) {
	var f TextureFormat
	require.NoError(t, f.UnmarshalText([]byte("rgba8unorm")))
	assert.Equal(t, FormatRGBA8Unorm, f)
	assert.Error(t, f.UnmarshalText([]byte("rgba32float")))

	var c ColorSpace
	require.NoError(t, c.UnmarshalText([]byte("srgb")))
	assert.Equal(t, ColorSpaceSRGB, c)

	var p BufferPolicy
	require.NoError(t, p.UnmarshalText([]byte("grow")))
	assert.Equal(t, BufferPolicyGrow, p)
	assert.Equal(t, "exact", BufferPolicyExact.String())
}

package gpu

import (
	"fmt"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
)

type BufferPolicy int

const (
	// BufferPolicyExact releases the shapes buffer and allocates one of the
	// exact frame size, every frame.
	BufferPolicyExact BufferPolicy = iota
	// BufferPolicyGrow keeps the buffer while it is large enough.
	BufferPolicyGrow
)

var bufferPolicyNames = [...]string{"exact", "grow"}

func (p BufferPolicy) Valid() bool { return p >= 0 && int(p) < len(bufferPolicyNames) }

func (p BufferPolicy) String() string {
	if !p.Valid() {
		return fmt.Sprintf("BufferPolicy(%d)", int(p))
	}
	return bufferPolicyNames[p]
}

func (p BufferPolicy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown buffer policy %d", int(p))
	}
	return []byte(bufferPolicyNames[p]), nil
}

func (p *BufferPolicy) UnmarshalText(text []byte) error {
	v, err := parseName(bufferPolicyNames[:], text)
	if err != nil {
		return fmt.Errorf("unknown buffer policy %q", text)
	}
	*p = BufferPolicy(v)
	return nil
}

// VolumeManager owns the volume texture and the per-frame shapes buffer.
type VolumeManager struct {
	backend Backend
	desc    VolumeDescriptor
	Policy  BufferPolicy

	volume  Texture
	retired Texture // last presented texture, held until its replacement is presented
	stale   bool

	shapes   Buffer
	capacity int // in records
	used     int

	generation int
}

func NewVolumeManager(backend Backend, desc VolumeDescriptor, policy BufferPolicy) *VolumeManager {
	return &VolumeManager{
		backend: backend,
		desc:    desc,
		Policy:  policy,
	}
}

func (m *VolumeManager) Descriptor() VolumeDescriptor { return m.desc }

// Configure installs desc and invalidates the texture when a
// texture-affecting parameter changed. It reports whether it invalidated.
func (m *VolumeManager) Configure(desc VolumeDescriptor) bool {
	changed := !m.desc.SameTexture(desc)
	m.desc = desc
	if changed {
		m.Invalidate()
	}
	return changed
}

// Invalidate marks the texture for recreation on the next Volume call.
// The current texture stays valid until its replacement is presented.
func (m *VolumeManager) Invalidate() {
	m.stale = true
}

// Generation counts successful texture creations.
func (m *VolumeManager) Generation() int { return m.generation }

func (m *VolumeManager) Used() int     { return m.used }
func (m *VolumeManager) Capacity() int { return m.capacity }

// Current returns the last created texture without creating one.
func (m *VolumeManager) Current() Texture { return m.volume }

// Volume returns the volume texture, creating it on first use or after
// invalidation. On failure the previous texture, if any, is kept. A replaced
// texture is not released until Presented is called, since the display may
// still sample it if the rest of the frame fails.
func (m *VolumeManager) Volume() (Texture, error) {
	if m.volume != nil && !m.stale {
		return m.volume, nil
	}
	if err := m.desc.Validate(); err != nil {
		return nil, err
	}

	tex, err := m.backend.CreateVolume(m.desc)
	if err != nil {
		return nil, fmt.Errorf("create volume texture %dx%dx%d %s: %w",
			m.desc.EdgeLength, m.desc.EdgeLength, m.desc.EdgeLength, m.desc.Format, err)
	}

	if m.retired == nil {
		m.retired = m.volume
	} else if m.volume != nil {
		// Created after the last present and never shown.
		m.volume.Release()
	}
	m.volume = tex
	m.stale = false
	m.generation++
	return tex, nil
}

// Presented reports that the current texture is bound for display and
// releases the texture it replaced.
func (m *VolumeManager) Presented() {
	if m.retired != nil {
		m.retired.Release()
		m.retired = nil
	}
}

// Retired returns the replaced texture still held for display, if any.
func (m *VolumeManager) Retired() Texture { return m.retired }

// ShapeBuffer returns a buffer holding at least count records.
func (m *VolumeManager) ShapeBuffer(count int) (Buffer, error) {
	if count <= 0 {
		return nil, core.ErrNoBoundary
	}

	if m.Policy == BufferPolicyGrow && m.shapes != nil && m.capacity >= count {
		m.used = count
		return m.shapes, nil
	}

	capacity := count
	if m.Policy == BufferPolicyGrow && 2*m.capacity > capacity {
		capacity = 2 * m.capacity
	}

	if m.shapes != nil {
		m.shapes.Release()
		m.shapes = nil
		m.capacity = 0
		m.used = 0
	}

	buf, err := m.backend.CreateShapeBuffer("ShapesBuffer", uint64(capacity*core.ShapeRecordSize))
	if err != nil {
		return nil, fmt.Errorf("allocate shapes buffer for %d records: %w", capacity, err)
	}
	m.shapes = buf
	m.capacity = capacity
	m.used = count
	return buf, nil
}

// Release frees the texture and the shapes buffer.
func (m *VolumeManager) Release() {
	m.Presented()
	if m.volume != nil {
		m.volume.Release()
		m.volume = nil
	}
	if m.shapes != nil {
		m.shapes.Release()
		m.shapes = nil
	}
	m.capacity = 0
	m.used = 0
	m.stale = false
}

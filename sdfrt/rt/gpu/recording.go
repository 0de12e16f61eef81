package gpu

import (
	"errors"
	"fmt"
)

var ErrInjected = errors.New("injected backend failure")

// RecordingBackend is an in-memory Backend. It keeps every resource and
// call so that headless runs and tests can inspect what a real device
// would have received.
type RecordingBackend struct {
	Volumes    []*RecordedVolume
	Buffers    []*RecordedBuffer
	Dispatches []DispatchCall

	// FailVolume and FailBuffer make the next N creations fail.
	FailVolume int
	FailBuffer int
	FailWrite  int
}

type RecordedVolume struct {
	Desc     VolumeDescriptor
	Released bool
}

func (v *RecordedVolume) Descriptor() VolumeDescriptor { return v.Desc }
func (v *RecordedVolume) Release()                     { v.Released = true }

type RecordedBuffer struct {
	Label    string
	Capacity uint64
	Data     []byte
	Released bool
}

func (b *RecordedBuffer) Size() uint64 { return b.Capacity }
func (b *RecordedBuffer) Release()     { b.Released = true }

func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{}
}

func (r *RecordingBackend) CreateVolume(desc VolumeDescriptor) (Texture, error) {
	if r.FailVolume > 0 {
		r.FailVolume--
		return nil, ErrInjected
	}
	v := &RecordedVolume{Desc: desc}
	r.Volumes = append(r.Volumes, v)
	return v, nil
}

func (r *RecordingBackend) CreateShapeBuffer(label string, size uint64) (Buffer, error) {
	if r.FailBuffer > 0 {
		r.FailBuffer--
		return nil, ErrInjected
	}
	b := &RecordedBuffer{Label: label, Capacity: size}
	r.Buffers = append(r.Buffers, b)
	return b, nil
}

func (r *RecordingBackend) WriteShapes(buf Buffer, data []byte) error {
	if r.FailWrite > 0 {
		r.FailWrite--
		return ErrInjected
	}
	rb, ok := buf.(*RecordedBuffer)
	if !ok {
		return fmt.Errorf("buffer %T was not created by this backend", buf)
	}
	if rb.Released {
		return errors.New("write to released buffer")
	}
	rb.Data = append(rb.Data[:0], data...)
	return nil
}

func (r *RecordingBackend) Dispatch(call DispatchCall) error {
	if v, ok := call.Volume.(*RecordedVolume); ok && v.Released {
		return errors.New("dispatch into released volume")
	}
	if b, ok := call.Shapes.(*RecordedBuffer); ok && b.Released {
		return errors.New("dispatch with released shapes buffer")
	}
	call.Params = append([]byte(nil), call.Params...)
	r.Dispatches = append(r.Dispatches, call)
	return nil
}

// LiveBuffers counts buffers not yet released.
func (r *RecordingBackend) LiveBuffers() int {
	n := 0
	for _, b := range r.Buffers {
		if !b.Released {
			n++
		}
	}
	return n
}

// LastDispatch returns the most recent dispatch, if any.
func (r *RecordingBackend) LastDispatch() (DispatchCall, bool) {
	if len(r.Dispatches) == 0 {
		return DispatchCall{}, false
	}
	return r.Dispatches[len(r.Dispatches)-1], true
}

// RecordingMaterial remembers what was bound to each slot.
type RecordingMaterial struct {
	Bound map[string]Texture
	Binds int
}

func NewRecordingMaterial() *RecordingMaterial {
	return &RecordingMaterial{Bound: make(map[string]Texture)}
}

func (m *RecordingMaterial) SetVolume(slot string, volume Texture) {
	m.Bound[slot] = volume
	m.Binds++
}

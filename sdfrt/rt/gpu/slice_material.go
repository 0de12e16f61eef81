package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

// SliceMaterial draws one depth slice of a bound volume on a fullscreen
// triangle. It owns a single texture slot.
type SliceMaterial struct {
	device   *wgpu.Device
	queue    *wgpu.Queue
	pipeline *wgpu.RenderPipeline
	params   *wgpu.Buffer

	slot      string
	volume    *WgpuVolume
	bindGroup *wgpu.BindGroup

	Depth float32
	Iso   float32
}

func NewSliceMaterial(device *wgpu.Device, target wgpu.TextureFormat, slot string) (*SliceMaterial, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Slice View VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SliceViewWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create slice shader module: %w", err)
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Slice View Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    target,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create slice pipeline: %w", err)
	}

	params, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Slice Params",
		Size:  16,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		pipeline.Release()
		return nil, err
	}

	return &SliceMaterial{
		device:   device,
		queue:    device.GetQueue(),
		pipeline: pipeline,
		params:   params,
		slot:     slot,
		Depth:    0.5,
		Iso:      0.5,
	}, nil
}

// SetVolume binds volume to slot. Other slots and non-wgpu textures are
// ignored.
func (m *SliceMaterial) SetVolume(slot string, volume Texture) {
	if slot != m.slot {
		return
	}
	v, ok := volume.(*WgpuVolume)
	if !ok || v == m.volume {
		return
	}
	m.volume = v
	if m.bindGroup != nil {
		m.bindGroup.Release()
		m.bindGroup = nil
	}
}

func (m *SliceMaterial) SetSlot(slot string) { m.slot = slot }

// SetDepth moves the slice, clamped to [0, 1].
func (m *SliceMaterial) SetDepth(d float32) {
	m.Depth = min(max(d, 0), 1)
}

func (m *SliceMaterial) ensureBindGroup() error {
	if m.bindGroup != nil {
		return nil
	}
	bg, err := m.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Slice View BG",
		Layout: m.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: m.volume.SampledView},
			{Binding: 1, Sampler: m.volume.Sampler},
			{Binding: 2, Buffer: m.params, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	m.bindGroup = bg
	return nil
}

// Draw records the slice into pass. It draws nothing until a volume is bound.
func (m *SliceMaterial) Draw(pass *wgpu.RenderPassEncoder) error {
	if m.volume == nil || m.volume.SampledView == nil {
		return nil
	}
	if err := m.ensureBindGroup(); err != nil {
		return err
	}

	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(m.Depth))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(m.Iso))
	if err := m.queue.WriteBuffer(m.params, 0, buf[:]); err != nil {
		return err
	}

	pass.SetPipeline(m.pipeline)
	pass.SetBindGroup(0, m.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	return nil
}

func (m *SliceMaterial) Release() {
	if m.bindGroup != nil {
		m.bindGroup.Release()
		m.bindGroup = nil
	}
	if m.params != nil {
		m.params.Release()
		m.params = nil
	}
	if m.pipeline != nil {
		m.pipeline.Release()
		m.pipeline = nil
	}
	m.volume = nil
}

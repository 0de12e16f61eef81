package gpu

import (
	"errors"
	"fmt"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

// WgpuBackend drives the volume kernel on a WebGPU device.
type WgpuBackend struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	pipelines map[TextureFormat]*wgpu.ComputePipeline
	paramsBuf *wgpu.Buffer
}

// WgpuVolume is a volume texture with the views needed to write it from the
// kernel and sample it from a material.
type WgpuVolume struct {
	desc        VolumeDescriptor
	Texture     *wgpu.Texture
	StorageView *wgpu.TextureView
	SampledView *wgpu.TextureView
	Sampler     *wgpu.Sampler
}

func (v *WgpuVolume) Descriptor() VolumeDescriptor { return v.desc }

func (v *WgpuVolume) Release() {
	if v.Sampler != nil {
		v.Sampler.Release()
		v.Sampler = nil
	}
	if v.SampledView != nil {
		v.SampledView.Release()
		v.SampledView = nil
	}
	if v.StorageView != nil {
		v.StorageView.Release()
		v.StorageView = nil
	}
	if v.Texture != nil {
		v.Texture.Release()
		v.Texture = nil
	}
}

type wgpuBuffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *wgpuBuffer) Size() uint64 { return b.size }

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

func NewWgpuBackend(device *wgpu.Device) (*WgpuBackend, error) {
	paramsBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: ParamsBindingName,
		Size:  ParamsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params buffer: %w", err)
	}
	return &WgpuBackend{
		Device:    device,
		Queue:     device.GetQueue(),
		pipelines: make(map[TextureFormat]*wgpu.ComputePipeline),
		paramsBuf: paramsBuf,
	}, nil
}

func textureFormat(f TextureFormat) (wgpu.TextureFormat, error) {
	switch f {
	case FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float, nil
	case FormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	}
	return 0, fmt.Errorf("unsupported texture format %s", f)
}

// pipeline returns the kernel compiled for the storage format, building it
// on first use.
func (b *WgpuBackend) pipeline(format TextureFormat) (*wgpu.ComputePipeline, error) {
	if p, ok := b.pipelines[format]; ok {
		return p, nil
	}

	module, err := b.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "SDF Volume CS " + format.String(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.VolumeWGSL(format.WGSL())},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create volume shader module: %w", err)
	}
	defer module.Release()

	p, err := b.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "SDF Volume Pipeline " + format.String(),
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create volume pipeline: %w", err)
	}
	b.pipelines[format] = p
	return p, nil
}

func (b *WgpuBackend) CreateVolume(desc VolumeDescriptor) (Texture, error) {
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	if _, err := b.pipeline(desc.Format); err != nil {
		return nil, err
	}

	n := uint32(desc.EdgeLength)
	v := &WgpuVolume{desc: desc}
	v.Texture, err = b.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          wgpu.Extent3D{Width: n, Height: n, DepthOrArrayLayers: n},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension3D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding,
	})
	if err != nil {
		return nil, err
	}

	viewDesc := &wgpu.TextureViewDescriptor{
		Format:          format,
		Dimension:       wgpu.TextureViewDimension3D,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspectAll,
	}
	viewDesc.Label = desc.Label + " Storage"
	if v.StorageView, err = v.Texture.CreateView(viewDesc); err != nil {
		v.Release()
		return nil, err
	}
	viewDesc.Label = desc.Label + " Sampled"
	if v.SampledView, err = v.Texture.CreateView(viewDesc); err != nil {
		v.Release()
		return nil, err
	}

	v.Sampler, err = b.Device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label + " Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		v.Release()
		return nil, err
	}
	return v, nil
}

func (b *WgpuBackend) CreateShapeBuffer(label string, size uint64) (Buffer, error) {
	if size%4 != 0 {
		size += 4 - size%4
	}
	buf, err := b.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buf: buf, size: size}, nil
}

func (b *WgpuBackend) WriteShapes(buf Buffer, data []byte) error {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb.buf == nil {
		return fmt.Errorf("buffer %T is not a live wgpu buffer", buf)
	}
	return b.Queue.WriteBuffer(wb.buf, 0, data)
}

func (b *WgpuBackend) Dispatch(call DispatchCall) error {
	vol, ok := call.Volume.(*WgpuVolume)
	if !ok || vol.StorageView == nil {
		return errors.New("volume is not a live wgpu texture")
	}
	shapes, ok := call.Shapes.(*wgpuBuffer)
	if !ok || shapes.buf == nil {
		return errors.New("shapes buffer is not a live wgpu buffer")
	}
	pipeline, err := b.pipeline(vol.desc.Format)
	if err != nil {
		return err
	}

	if err := b.Queue.WriteBuffer(b.paramsBuf, 0, call.Params); err != nil {
		return fmt.Errorf("failed to write params: %w", err)
	}

	// The shapes buffer is replaced every frame, so the bind group is too.
	bindGroup, err := b.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "SDF Volume BG",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: vol.StorageView},
			{Binding: 1, Buffer: shapes.buf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: b.paramsBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create volume bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := b.Device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(call.Groups[0], call.Groups[1], call.Groups[2])
	if err := pass.End(); err != nil {
		return fmt.Errorf("volume pass End failed: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder Finish failed: %w", err)
	}
	b.Queue.Submit(cmd)
	cmd.Release()
	return nil
}

func (b *WgpuBackend) Release() {
	for f, p := range b.pipelines {
		p.Release()
		delete(b.pipelines, f)
	}
	if b.paramsBuf != nil {
		b.paramsBuf.Release()
		b.paramsBuf = nil
	}
}

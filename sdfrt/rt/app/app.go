package app

import (
	"fmt"

	sdfsandbox "github.com/gekko3d/sdfsandbox"
	"github.com/gekko3d/sdfsandbox/sdfrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// EdgePresets are the volume sizes selectable with the number keys.
var EdgePresets = [...]int{32, 64, 128, 256}

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Backend  *gpu.WgpuBackend
	Material *gpu.SliceMaterial
	Sandbox  *sdfsandbox.Sandbox

	builder *sdfsandbox.SandboxBuilder
	logger  sdfsandbox.Logger

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
}

// NewApp wraps window. The builder is completed with the WebGPU backend and
// the slice material in Init.
func NewApp(window *glfw.Window, builder *sdfsandbox.SandboxBuilder, logger sdfsandbox.Logger) *App {
	if logger == nil {
		logger = sdfsandbox.NewNopLogger()
	}
	return &App{
		Window:  window,
		builder: builder,
		logger:  logger,
	}
}

func (a *App) Init(cfg sdfsandbox.Config) error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return err
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	a.Backend, err = gpu.NewWgpuBackend(a.Device)
	if err != nil {
		return err
	}
	a.Material, err = gpu.NewSliceMaterial(a.Device, format, cfg.MaterialSlot)
	if err != nil {
		return err
	}

	a.Sandbox, err = a.builder.
		UseConfig(cfg).
		UseBackend(a.Backend).
		UseMaterial(a.Material).
		UseLogger(a.logger).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build sandbox: %w", err)
	}
	a.logger.Infof("sandbox ready: %dx%d surface, volume %d^3", width, height, cfg.EdgeLength)
	return nil
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

// ScrollSlice moves the displayed slice by delta, in volume units.
func (a *App) ScrollSlice(delta float32) {
	a.Material.SetDepth(a.Material.Depth + delta)
}

// SelectEdge switches to EdgePresets[i]; the volume is rebuilt next frame.
func (a *App) SelectEdge(i int) {
	if i < 0 || i >= len(EdgePresets) {
		return
	}
	if err := a.Sandbox.SetEdgeLength(EdgePresets[i]); err != nil {
		a.logger.Warnf("edge length %d rejected: %v", EdgePresets[i], err)
	}
}

// ToggleEmitters pauses or resumes every particle emitter.
func (a *App) ToggleEmitters() {
	for _, e := range a.Sandbox.Emitters() {
		e.Enabled = !e.Enabled
	}
}

// Update runs one sandbox frame. A skipped frame keeps the last presented
// volume bound and alive, and the sandbox has already logged it.
func (a *App) Update() {
	if err := a.Sandbox.AdvanceFrame(); err != nil && !sdfsandbox.IsSkippedFrame(err) {
		a.logger.Errorf("frame failed: %v", err)
	}
}

func (a *App) Render() {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	defer encoder.Release()

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0.05, G: 0.05, B: 0.05, A: 1},
		}},
	})
	if err := a.Material.Draw(rPass); err != nil {
		a.logger.Errorf("slice draw failed: %v", err)
	}
	if err := rPass.End(); err != nil {
		a.logger.Errorf("render pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.logger.Errorf("encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	cmd.Release()
	a.Surface.Present()

	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			stats := a.Sandbox.Stats()
			a.logger.Debugf("%.1f fps, %d shapes, %d skipped frames", a.FPS, stats.Records, a.Sandbox.Skipped())
		}
	}
	a.LastRenderTime = now
}

func (a *App) Release() {
	if a.Sandbox != nil {
		if err := a.Sandbox.Close(); err != nil {
			a.logger.Warnf("sandbox close: %v", err)
		}
	}
	if a.Material != nil {
		a.Material.Release()
	}
	if a.Backend != nil {
		a.Backend.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}

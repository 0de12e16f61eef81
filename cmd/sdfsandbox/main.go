package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	sdfsandbox "github.com/gekko3d/sdfsandbox"
	"github.com/gekko3d/sdfsandbox/sdfrt/rt/app"
	"github.com/gekko3d/sdfsandbox/sdfrt/rt/gpu"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML or TOML config file")
	scenePath := flag.String("scene", "", "scene document, overrides the config")
	watch := flag.Bool("watch", false, "reload the scene file when it changes")
	edge := flag.Int("edge", 0, "volume edge length, overrides the config")
	debug := flag.Bool("debug", false, "enable debug logging")
	headless := flag.Bool("headless", false, "run without a window on the recording backend")
	frames := flag.Int("frames", 60, "frames to run in headless mode")
	particles := flag.Bool("particles", true, "attach a particle emitter")
	flag.Parse()

	cfg := sdfsandbox.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = sdfsandbox.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *scenePath != "" {
		cfg.Scene.Path = *scenePath
	}
	if *watch {
		cfg.Scene.Watch = true
	}
	if *edge != 0 {
		cfg.EdgeLength = *edge
	}
	if *debug {
		cfg.Log.Debug = true
	}
	logger := cfg.Logger()

	builder := sdfsandbox.NewSandboxBuilder()
	if cfg.Scene.Path == "" {
		builder.UseScene(sdfsandbox.NewDemoScene())
	}
	if *particles {
		settings := sdfsandbox.DefaultEmitterSettings()
		e := sdfsandbox.NewParticleEmitter(settings, 1)
		e.Origin.Position = mgl32.Vec3{0, -0.4, 0}
		e.StartSpeedRange = [2]float32{0.2, 0.4}
		builder.UseEmitter(e)
	}

	var err error
	if *headless {
		err = runHeadless(cfg, builder, logger, *frames)
	} else {
		err = runWindow(cfg, builder, logger)
	}
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func runHeadless(cfg sdfsandbox.Config, builder *sdfsandbox.SandboxBuilder, logger sdfsandbox.Logger, frames int) error {
	backend := gpu.NewRecordingBackend()
	sb, err := builder.UseConfig(cfg).UseBackend(backend).UseMaterial(gpu.NewRecordingMaterial()).UseLogger(logger).Build()
	if err != nil {
		return err
	}
	defer sb.Close()

	for i := 0; i < frames; i++ {
		if err := sb.AdvanceFrame(); err != nil && !sdfsandbox.IsSkippedFrame(err) {
			return err
		}
	}
	stats := sb.Stats()
	logger.Infof("%d frames, %d skipped, %d dispatches, last frame %d shapes (%d particles), groups %v",
		sb.Frames(), sb.Skipped(), len(backend.Dispatches), stats.Records, stats.Particles, stats.Groups)
	return nil
}

func runWindow(cfg sdfsandbox.Config, builder *sdfsandbox.SandboxBuilder, logger sdfsandbox.Logger) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1024, 1024, "SDF Sandbox", nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	application := app.NewApp(window, builder, logger)
	defer application.Release()
	if err := application.Init(cfg); err != nil {
		return err
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		application.ScrollSlice(float32(yoff) / 32)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press && action != glfw.Repeat {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyUp:
			application.ScrollSlice(1.0 / 64)
		case glfw.KeyDown:
			application.ScrollSlice(-1.0 / 64)
		case glfw.KeySpace:
			application.ToggleEmitters()
		case glfw.Key1, glfw.Key2, glfw.Key3, glfw.Key4:
			application.SelectEdge(int(key - glfw.Key1))
		case glfw.KeyR:
			if err := application.Sandbox.ReloadScene(); err != nil {
				logger.Warnf("reload: %v", err)
			}
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
	return nil
}

package sdfsandbox

import (
	"errors"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
	"github.com/gekko3d/sdfsandbox/sdfrt/rt/gpu"
)

type SandboxBuilder struct {
	cfg      Config
	backend  gpu.Backend
	material gpu.Material
	logger   Logger
	scene    *Scene
	source   core.ParticleSource
	emitters []*ParticleEmitter
	watch    *bool
}

func NewSandboxBuilder() *SandboxBuilder {
	return &SandboxBuilder{cfg: DefaultConfig()}
}

func (b *SandboxBuilder) UseConfig(cfg Config) *SandboxBuilder {
	b.cfg = cfg
	return b
}

func (b *SandboxBuilder) UseBackend(backend gpu.Backend) *SandboxBuilder {
	b.backend = backend
	return b
}

func (b *SandboxBuilder) UseMaterial(material gpu.Material) *SandboxBuilder {
	b.material = material
	return b
}

func (b *SandboxBuilder) UseLogger(logger Logger) *SandboxBuilder {
	b.logger = logger
	return b
}

// UseScene installs an existing scene. Without one, the configured scene
// file is loaded, or an empty scene is created.
func (b *SandboxBuilder) UseScene(scene *Scene) *SandboxBuilder {
	b.scene = scene
	return b
}

// UseParticles installs an external particle source. Emitters added with
// UseEmitter are merged after it.
func (b *SandboxBuilder) UseParticles(source core.ParticleSource) *SandboxBuilder {
	b.source = source
	return b
}

func (b *SandboxBuilder) UseEmitter(emitters ...*ParticleEmitter) *SandboxBuilder {
	b.emitters = append(b.emitters, emitters...)
	return b
}

// UseWatch overrides cfg.Scene.Watch.
func (b *SandboxBuilder) UseWatch(watch bool) *SandboxBuilder {
	b.watch = &watch
	return b
}

func (b *SandboxBuilder) Build() (*Sandbox, error) {
	cfg := b.cfg
	if b.watch != nil {
		cfg.Scene.Watch = *b.watch
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.backend == nil {
		return nil, errors.New("sandbox needs a gpu backend")
	}

	logger := b.logger
	if logger == nil {
		logger = cfg.Logger()
	}

	scene := b.scene
	if scene == nil && cfg.Scene.Path != "" {
		loaded, err := LoadSceneFile(cfg.Scene.Path)
		if err != nil {
			return nil, err
		}
		scene = loaded
		logger.Infof("scene loaded from %s", cfg.Scene.Path)
	}
	if scene == nil {
		scene = NewScene()
	}

	s := &Sandbox{
		cfg:        cfg,
		Scene:      scene,
		Time:       NewTime(),
		logger:     logger,
		collector:  core.NewCollector(),
		bridge:     core.NewParticleBridge(b.source, cfg.ParticlePolicy()),
		volumes:    gpu.NewVolumeManager(b.backend, cfg.TextureDescriptor(), cfg.BufferPolicy),
		dispatcher: gpu.NewFieldDispatcher(b.backend, b.material, cfg.MaterialSlot),
	}
	for _, e := range b.emitters {
		s.AddEmitter(e)
	}

	if cfg.Scene.Watch {
		if cfg.Scene.Path == "" {
			return nil, errors.New("scene watch needs a scene path")
		}
		w, err := WatchScene(cfg.Scene.Path, subLogger(logger, "watch"))
		if err != nil {
			return nil, err
		}
		s.watcher = w
		logger.Infof("watching %s", w.Path())
	}
	return s, nil
}

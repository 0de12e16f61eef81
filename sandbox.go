package sdfsandbox

import (
	"errors"
	"fmt"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
	"github.com/gekko3d/sdfsandbox/sdfrt/rt/gpu"
)

type FrameStage int

const (
	StageIdle FrameStage = iota
	StageCollect
	StageResize
	StageUpload
	StageDispatch
	StagePresent
)

var stageNames = [...]string{"idle", "collect", "resize", "upload", "dispatch", "present"}

func (s FrameStage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("FrameStage(%d)", int(s))
	}
	return stageNames[s]
}

// FrameError reports a skipped frame and the stage that failed.
type FrameError struct {
	Frame int
	Stage FrameStage
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d skipped at %s: %v", e.Frame, e.Stage, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// IsSkippedFrame reports whether err from AdvanceFrame is a skipped frame,
// which the sandbox has already logged and recovers from on its own.
func IsSkippedFrame(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// FrameStats describes the last frame.
type FrameStats struct {
	Frame       int
	Interior    int
	Particles   int
	Records     int
	Groups      [3]uint32
	Reallocated bool
	Skipped     bool
}

// Sandbox compiles the scene into shape records and drives the volume
// pass, one AdvanceFrame call per frame.
type Sandbox struct {
	cfg    Config
	Scene  *Scene
	Time   *Time
	logger Logger

	collector  *core.Collector
	bridge     *core.ParticleBridge
	volumes    *gpu.VolumeManager
	dispatcher *gpu.FieldDispatcher
	watcher    *SceneWatcher
	emitters   []*ParticleEmitter

	records []core.ShapeRecord
	stage   FrameStage
	frames  int
	skipped int
	stats   FrameStats
}

func (s *Sandbox) Config() Config                  { return s.cfg }
func (s *Sandbox) Logger() Logger                  { return s.logger }
func (s *Sandbox) Stage() FrameStage               { return s.stage }
func (s *Sandbox) Stats() FrameStats               { return s.stats }
func (s *Sandbox) Frames() int                     { return s.frames }
func (s *Sandbox) Skipped() int                    { return s.skipped }
func (s *Sandbox) Volumes() *gpu.VolumeManager     { return s.volumes }
func (s *Sandbox) Dispatcher() *gpu.FieldDispatcher { return s.dispatcher }
func (s *Sandbox) Collector() *core.Collector      { return s.collector }
func (s *Sandbox) Emitters() []*ParticleEmitter    { return s.emitters }

// Records returns the records of the last frame that reached upload. The
// slice is reused by the next frame.
func (s *Sandbox) Records() []core.ShapeRecord { return s.records }

// AddEmitter registers an emitter stepped by AdvanceFrame and feeding the
// particle bridge.
func (s *Sandbox) AddEmitter(e *ParticleEmitter) {
	s.emitters = append(s.emitters, e)
	s.bridge.Source = s.particleSource(s.bridge.Source, e)
}

func (s *Sandbox) particleSource(cur core.ParticleSource, add core.ParticleSource) core.ParticleSource {
	switch g := cur.(type) {
	case nil:
		return add
	case ParticleGroup:
		return append(g, add)
	default:
		return ParticleGroup{cur, add}
	}
}

// SetConfig applies cfg. The volume is recreated on the next frame when a
// texture-affecting field changed.
func (s *Sandbox) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if s.volumes.Configure(cfg.TextureDescriptor()) {
		s.logger.Infof("volume invalidated: %d^3 %s %s", cfg.EdgeLength, cfg.Format, cfg.ColorSpace)
	}
	s.volumes.Policy = cfg.BufferPolicy
	s.bridge.Policy = cfg.ParticlePolicy()
	s.dispatcher.SetSlot(cfg.MaterialSlot)
	s.logger.SetDebug(cfg.Log.Debug)
	s.cfg = cfg
	return nil
}

// SetEdgeLength is SetConfig with only the edge length changed.
func (s *Sandbox) SetEdgeLength(edge int) error {
	cfg := s.cfg
	cfg.EdgeLength = edge
	return s.SetConfig(cfg)
}

// ReloadScene replaces the scene content with the configured scene file.
// On failure the current scene is kept.
func (s *Sandbox) ReloadScene() error {
	if s.cfg.Scene.Path == "" {
		return errors.New("no scene path configured")
	}
	loaded, err := LoadSceneFile(s.cfg.Scene.Path)
	if err != nil {
		return err
	}
	s.Scene.Replace(loaded)
	s.collector.Invalidate()
	s.logger.Infof("scene reloaded from %s", s.cfg.Scene.Path)
	return nil
}

func (s *Sandbox) fail(stage FrameStage, err error) error {
	s.stage = StageIdle
	s.skipped++
	s.stats.Skipped = true
	fe := &FrameError{Frame: s.frames, Stage: stage, Err: err}
	s.logger.Warnf("%v", fe)
	return fe
}

// AdvanceFrame runs one frame: collect, resize, upload, dispatch, present.
// A failing stage skips the rest of the frame and returns a *FrameError;
// the next frame starts clean.
func (s *Sandbox) AdvanceFrame() error {
	s.frames++
	s.stats = FrameStats{Frame: s.frames}

	if s.watcher != nil && s.watcher.Pending() {
		if err := s.ReloadScene(); err != nil {
			s.logger.Warnf("scene reload failed, keeping current scene: %v", err)
		}
	}

	dt := s.Time.Tick()
	for _, e := range s.emitters {
		e.Update(float32(dt.Seconds()))
	}

	s.stage = StageCollect
	records, err := s.collector.Collect(s.Scene, s.records[:0])
	if err != nil {
		return s.fail(StageCollect, err)
	}
	interior := len(records) - 1
	records, err = s.bridge.Insert(records)
	if err != nil {
		return s.fail(StageCollect, err)
	}
	s.records = records
	s.stats.Interior = interior
	s.stats.Particles = s.bridge.LastCount()
	s.stats.Records = len(records)

	s.stage = StageResize
	generation := s.volumes.Generation()
	volume, err := s.volumes.Volume()
	if err != nil {
		return s.fail(StageResize, err)
	}
	if s.volumes.Generation() != generation {
		d := volume.Descriptor()
		s.stats.Reallocated = true
		s.logger.Infof("volume texture created: %d^3 %s %s", d.EdgeLength, d.Format, d.ColorSpace)
	}
	shapes, err := s.volumes.ShapeBuffer(len(records))
	if err != nil {
		return s.fail(StageResize, err)
	}

	s.stage = StageUpload
	if err := s.dispatcher.Upload(shapes, records); err != nil {
		return s.fail(StageUpload, err)
	}

	s.stage = StageDispatch
	err = s.dispatcher.Dispatch(gpu.Frame{
		Volume:      volume,
		Shapes:      shapes,
		ShapeCount:  len(records),
		ViewerScale: s.Scene.Viewer.WorldTransform().Scale,
	})
	if err != nil {
		return s.fail(StageDispatch, err)
	}
	s.stats.Groups = s.dispatcher.LastGroups()

	s.stage = StagePresent
	s.dispatcher.Present(volume)
	s.volumes.Presented()

	s.logger.Debugf("frame %d: %d interior + %d particles + boundary = %d shapes",
		s.frames, interior, s.stats.Particles, len(records))
	s.stage = StageIdle
	return nil
}

// Close stops the scene watcher and releases GPU resources.
func (s *Sandbox) Close() error {
	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
		s.watcher = nil
	}
	s.volumes.Release()
	return err
}

package sdfsandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
	"github.com/gekko3d/sdfsandbox/sdfrt/rt/gpu"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid sandbox config")

type ParticleConfig struct {
	ScaleFactor float32 `yaml:"scale_factor" toml:"scale_factor"`
	Blend       float32 `yaml:"blend" toml:"blend"`
	ColorBlend  float32 `yaml:"color_blend" toml:"color_blend"`
}

type LogConfig struct {
	Prefix string `yaml:"prefix" toml:"prefix"`
	Debug  bool   `yaml:"debug" toml:"debug"`
}

type SceneConfig struct {
	Path  string `yaml:"path" toml:"path"`
	Watch bool   `yaml:"watch" toml:"watch"`
}

type Config struct {
	EdgeLength   int               `yaml:"edge_length" toml:"edge_length"`
	Format       gpu.TextureFormat `yaml:"format" toml:"format"`
	ColorSpace   gpu.ColorSpace    `yaml:"color_space" toml:"color_space"`
	BufferPolicy gpu.BufferPolicy  `yaml:"buffer_policy" toml:"buffer_policy"`
	MaterialSlot string            `yaml:"material_slot" toml:"material_slot"`

	Particles ParticleConfig `yaml:"particles" toml:"particles"`
	Log       LogConfig      `yaml:"log" toml:"log"`
	Scene     SceneConfig    `yaml:"scene" toml:"scene"`
}

func DefaultConfig() Config {
	p := core.DefaultParticlePolicy()
	return Config{
		EdgeLength:   64,
		Format:       gpu.FormatRGBA16Float,
		ColorSpace:   gpu.ColorSpaceLinear,
		BufferPolicy: gpu.BufferPolicyExact,
		MaterialSlot: "main_tex",
		Particles: ParticleConfig{
			ScaleFactor: p.ScaleFactor,
			Blend:       p.Blend,
			ColorBlend:  p.ColorBlend,
		},
		Log: LogConfig{Prefix: "sdf"},
	}
}

// LoadConfig overlays a YAML or TOML file on DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	default:
		return cfg, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.EdgeLength < gpu.GroupExtent || c.EdgeLength > gpu.MaxEdgeLength || c.EdgeLength%gpu.GroupExtent != 0 {
		return fmt.Errorf("%w: edge_length %d must be a multiple of %d in [%d, %d]",
			ErrInvalidConfig, c.EdgeLength, gpu.GroupExtent, gpu.GroupExtent, gpu.MaxEdgeLength)
	}
	if !c.Format.Valid() {
		return fmt.Errorf("%w: format %d", ErrInvalidConfig, int(c.Format))
	}
	if !c.ColorSpace.Valid() {
		return fmt.Errorf("%w: color_space %d", ErrInvalidConfig, int(c.ColorSpace))
	}
	if !c.BufferPolicy.Valid() {
		return fmt.Errorf("%w: buffer_policy %d", ErrInvalidConfig, int(c.BufferPolicy))
	}
	if c.MaterialSlot == "" {
		return fmt.Errorf("%w: material_slot is empty", ErrInvalidConfig)
	}
	if c.Particles.ScaleFactor < 0 || c.Particles.Blend < 0 || c.Particles.ColorBlend < 0 {
		return fmt.Errorf("%w: particle constants must be non-negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) TextureDescriptor() gpu.VolumeDescriptor {
	return gpu.NewVolumeDescriptor(c.EdgeLength, c.Format, c.ColorSpace)
}

func (c Config) ParticlePolicy() core.ParticlePolicy {
	return core.ParticlePolicy{
		ScaleFactor: c.Particles.ScaleFactor,
		Blend:       c.Particles.Blend,
		ColorBlend:  c.Particles.ColorBlend,
	}
}

func (c Config) Logger() Logger {
	return NewDefaultLogger(c.Log.Prefix, c.Log.Debug)
}

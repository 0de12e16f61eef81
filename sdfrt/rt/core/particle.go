package core

import "github.com/go-gl/mathgl/mgl32"

// Particle is one live particle as sampled from a ParticleSource.
type Particle struct {
	Position mgl32.Vec3
	Size     mgl32.Vec3 // current size, per axis
}

// ParticleSource is a live particle population. Both calls are made once
// per frame, in order, so the count never goes stale within a frame.
type ParticleSource interface {
	ParticleCount() int
	// Particles appends up to ParticleCount particles to dst.
	Particles(dst []Particle) []Particle
}

// ParticlePolicy holds the constants used for particle-spawned shapes.
type ParticlePolicy struct {
	ScaleFactor float32
	Blend       float32
	ColorBlend  float32
}

func DefaultParticlePolicy() ParticlePolicy {
	return ParticlePolicy{
		ScaleFactor: 0.01,
		Blend:       0.01,
		ColorBlend:  0.001,
	}
}

// PackParticle builds the record of a particle: a white, colored, unrotated
// sphere unioned into the field.
func (p ParticlePolicy) PackParticle(pt Particle) ShapeRecord {
	scale := pt.Size.Mul(p.ScaleFactor)
	return ShapeRecord{
		Color:      [3]float32{1, 1, 1},
		UseColor:   1,
		Position:   [3]float32{pt.Position.X(), pt.Position.Y(), pt.Position.Z()},
		Rotation:   [3]float32{0, 0, 0},
		Scale:      [3]float32{scale.X(), scale.Y(), scale.Z()},
		Blend:      p.Blend,
		BlendColor: p.ColorBlend,
		Geometry:   int32(GeometrySphere),
		Operation:  int32(OperationUnion),
	}
}

// ParticleBridge splices particle shapes into a collected record list.
type ParticleBridge struct {
	Source ParticleSource
	Policy ParticlePolicy

	scratch []Particle
	last    int
}

func NewParticleBridge(source ParticleSource, policy ParticlePolicy) *ParticleBridge {
	return &ParticleBridge{Source: source, Policy: policy}
}

// LastCount is the number of particle records inserted by the last Insert.
func (b *ParticleBridge) LastCount() int { return b.last }

// Insert places one record per live particle after the interior records
// and before the boundary, which must be the last element of records.
func (b *ParticleBridge) Insert(records []ShapeRecord) ([]ShapeRecord, error) {
	b.last = 0
	if len(records) == 0 {
		return records, ErrNoBoundary
	}
	if b.Source == nil {
		return records, nil
	}

	count := b.Source.ParticleCount()
	if count <= 0 {
		return records, nil
	}
	b.scratch = b.Source.Particles(b.scratch[:0])
	if len(b.scratch) > count {
		b.scratch = b.scratch[:count]
	}

	boundary := records[len(records)-1]
	records = records[:len(records)-1]
	for _, pt := range b.scratch {
		records = append(records, b.Policy.PackParticle(pt))
	}
	records = append(records, boundary)
	b.last = len(b.scratch)
	return records, nil
}

package sdfsandbox

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/gekko3d/sdfsandbox/sdfrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// EmitterSettings controls a CPU-simulated particle emitter.
type EmitterSettings struct {
	MaxParticles int

	SpawnRate        float32    // particles per second
	LifetimeRange    [2]float32 // seconds (min,max)
	StartSpeedRange  [2]float32 // units/sec (min,max)
	StartSizeRange   [2]float32 // world units (min,max)
	EndSizeScale     float32    // size multiplier reached at end of life
	Gravity          float32    // positive acceleration downward
	Drag             float32    // per-second linear drag
	ConeAngleDegrees float32    // 0 = along emitter up axis
}

func DefaultEmitterSettings() EmitterSettings {
	return EmitterSettings{
		MaxParticles:     64,
		SpawnRate:        20,
		LifetimeRange:    [2]float32{1, 2},
		StartSpeedRange:  [2]float32{1, 2},
		StartSizeRange:   [2]float32{20, 40},
		EndSizeScale:     0.25,
		Gravity:          0.5,
		Drag:             0.1,
		ConeAngleDegrees: 25,
	}
}

// SoA pool, swap-remove on death.
type particlePool struct {
	pos  []mgl32.Vec3
	vel  []mgl32.Vec3
	age  []float32
	life []float32
	size []float32

	alive    int
	spawnAcc float32
	capacity int
}

func (p *particlePool) ensure(capacity int) {
	if capacity <= 0 {
		capacity = 1
	}
	if p.capacity == capacity && p.pos != nil {
		return
	}
	p.capacity = capacity
	p.pos = make([]mgl32.Vec3, capacity)
	p.vel = make([]mgl32.Vec3, capacity)
	p.age = make([]float32, capacity)
	p.life = make([]float32, capacity)
	p.size = make([]float32, capacity)
	p.alive = 0
	p.spawnAcc = 0
}

func (p *particlePool) killAt(i int) {
	last := p.alive - 1
	p.pos[i] = p.pos[last]
	p.vel[i] = p.vel[last]
	p.age[i] = p.age[last]
	p.life[i] = p.life[last]
	p.size[i] = p.size[last]
	p.alive--
}

// ParticleEmitter simulates particles on the CPU and exposes them as a
// particle source. When Follow is set the emitter spawns from that node's
// world transform, otherwise from Origin.
type ParticleEmitter struct {
	EmitterSettings
	Enabled bool
	Origin  core.Transform
	Follow  *Node

	rng  *rand.Rand
	pool particlePool
}

func NewParticleEmitter(settings EmitterSettings, seed int64) *ParticleEmitter {
	return &ParticleEmitter{
		EmitterSettings: settings,
		Enabled:         true,
		Origin:          core.NewTransform(),
		rng:             rand.New(rand.NewSource(seed)),
	}
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// sampleDirection draws uniformly from a cone around the emitter up axis.
func (e *ParticleEmitter) sampleDirection(rot mgl32.Quat) mgl32.Vec3 {
	axis := mgl32.Vec3{0, 1, 0}
	if e.ConeAngleDegrees <= 0 {
		return rot.Rotate(axis).Normalize()
	}
	thetaMax := math32.Pi * (e.ConeAngleDegrees / 180)
	cosTheta := lerp(math32.Cos(thetaMax), 1, e.rng.Float32())
	sinTheta := math32.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math32.Pi * e.rng.Float32()
	local := mgl32.Vec3{math32.Cos(phi) * sinTheta, cosTheta, math32.Sin(phi) * sinTheta}
	return rot.Rotate(local).Normalize()
}

func (e *ParticleEmitter) origin() core.Transform {
	if e.Follow != nil {
		return e.Follow.WorldTransform()
	}
	return e.Origin
}

// Update spawns, integrates and retires particles over dt seconds.
func (e *ParticleEmitter) Update(dt float32) {
	if !e.Enabled || e.MaxParticles <= 0 {
		return
	}
	if dt <= 0 {
		dt = 1.0 / 60.0
	}
	pl := &e.pool
	pl.ensure(e.MaxParticles)

	pl.spawnAcc += e.SpawnRate * dt
	spawnCount := int(pl.spawnAcc)
	if spawnCount > 0 {
		pl.spawnAcc -= float32(spawnCount)
	}
	if spawnCount > e.MaxParticles-pl.alive {
		spawnCount = e.MaxParticles - pl.alive
	}

	tr := e.origin()
	for i := 0; i < spawnCount; i++ {
		idx := pl.alive
		pl.alive++

		pl.pos[idx] = tr.Position
		speed := lerp(e.StartSpeedRange[0], e.StartSpeedRange[1], e.rng.Float32())
		pl.vel[idx] = e.sampleDirection(tr.Rotation).Mul(speed)
		pl.age[idx] = 0
		pl.life[idx] = lerp(e.LifetimeRange[0], e.LifetimeRange[1], e.rng.Float32())
		pl.size[idx] = lerp(e.StartSizeRange[0], e.StartSizeRange[1], e.rng.Float32())
	}

	drag := max(0, 1-e.Drag*dt)
	i := 0
	for i < pl.alive {
		age := pl.age[i] + dt
		if age >= pl.life[i] {
			pl.killAt(i)
			continue
		}
		v := pl.vel[i].Add(mgl32.Vec3{0, -e.Gravity * dt, 0}).Mul(drag)
		pl.vel[i] = v
		pl.pos[i] = pl.pos[i].Add(v.Mul(dt))
		pl.age[i] = age
		i++
	}
}

// Reset kills all particles.
func (e *ParticleEmitter) Reset() {
	e.pool.alive = 0
	e.pool.spawnAcc = 0
}

func (e *ParticleEmitter) ParticleCount() int { return e.pool.alive }

func (e *ParticleEmitter) Particles(dst []core.Particle) []core.Particle {
	pl := &e.pool
	for i := 0; i < pl.alive; i++ {
		t := float32(0)
		if pl.life[i] > 0 {
			t = pl.age[i] / pl.life[i]
		}
		s := pl.size[i] * lerp(1, e.EndSizeScale, t)
		dst = append(dst, core.Particle{
			Position: pl.pos[i],
			Size:     mgl32.Vec3{s, s, s},
		})
	}
	return dst
}

// ParticleGroup merges several sources, in order.
type ParticleGroup []core.ParticleSource

func (g ParticleGroup) ParticleCount() int {
	n := 0
	for _, s := range g {
		n += s.ParticleCount()
	}
	return n
}

func (g ParticleGroup) Particles(dst []core.Particle) []core.Particle {
	for _, s := range g {
		dst = s.Particles(dst)
	}
	return dst
}

package field

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/lao-tseu-is-alive/go-node-field/pkg/geometry"
)

// Drift perturbs a particle's velocity once per tick so the field stays alive without input.
type Drift interface {
	Perturb(p *Particle, elapsed time.Duration)
}

// UniformDrift adds an independent uniform kick in [-Amplitude/2, Amplitude/2] to each axis.
type UniformDrift struct {
	Amplitude float64
	rng       *rand.Rand
}

// NewUniformDrift returns the default drift source.
func NewUniformDrift(amplitude float64, rng *rand.Rand) *UniformDrift {
	return &UniformDrift{Amplitude: amplitude, rng: rng}
}

func (d *UniformDrift) Perturb(p *Particle, _ time.Duration) {
	p.Vel.X += (d.rng.Float64() - 0.5) * d.Amplitude
	p.Vel.Y += (d.rng.Float64() - 0.5) * d.Amplitude
}

// NoiseDrift steers particles along a slowly evolving Perlin flow field.
// Neighbouring particles receive correlated kicks, which reads as currents rather than jitter.
type NoiseDrift struct {
	Amplitude float64
	Scale     float64 // noise frequency per pixel
	Speed     float64 // noise frequency per second
	noise     *perlin.Perlin
}

// NewNoiseDrift builds a flow field from a seeded Perlin generator.
func NewNoiseDrift(amplitude float64, seed int64) *NoiseDrift {
	return &NoiseDrift{
		Amplitude: amplitude,
		Scale:     0.0019,
		Speed:     0.9,
		noise:     perlin.NewPerlin(2, 2, 3, seed),
	}
}

func (d *NoiseDrift) Perturb(p *Particle, elapsed time.Duration) {
	n := d.noise.Noise3D(p.Pos.X*d.Scale, p.Pos.Y*d.Scale, elapsed.Seconds()*d.Speed)
	angle := n * 2 * math.Pi
	p.Vel.X += math.Cos(angle) * d.Amplitude
	p.Vel.Y += math.Sin(angle) * d.Amplitude
}

// MotionModel advances particle state one tick at a time.
type MotionModel struct {
	cfg     *Config
	drift   Drift
	rng     *rand.Rand
	elapsed time.Duration // logical time, excludes paused spans
}

// NewMotionModel creates a motion model. A nil drift disables stochastic drift.
func NewMotionModel(cfg *Config, drift Drift, rng *rand.Rand) *MotionModel {
	return &MotionModel{cfg: cfg, drift: drift, rng: rng}
}

// Elapsed returns the logical simulation time accumulated by Step.
func (m *MotionModel) Elapsed() time.Duration { return m.elapsed }

// Step advances every particle by dt, which the caller has already clamped.
func (m *MotionModel) Step(particles []*Particle, dt time.Duration, width, height float64, pointer PointerState) {
	m.elapsed += dt
	step := float64(dt) / float64(time.Millisecond) * m.cfg.TimeScale
	for _, p := range particles {
		m.advance(p, step, width, height, pointer)
	}
}

// advance runs, in order: integrate, wrap, pointer repulsion, drift, damping.
func (m *MotionModel) advance(p *Particle, step, width, height float64, pointer PointerState) {
	p.Pos = p.Pos.Add(p.Vel.Mul(step))
	p.Pos.X = geometry.WrapAxis(p.Pos.X, width, m.cfg.Margin)
	p.Pos.Y = geometry.WrapAxis(p.Pos.Y, height, m.cfg.Margin)

	if pointer.Active {
		m.repel(p, pointer.Pos)
	}

	if m.drift != nil {
		m.drift.Perturb(p, m.elapsed)
	}

	p.Vel = p.Vel.Mul(m.cfg.Damping)
}

// repel pushes p away from the pointer with a force fading linearly to zero at the influence radius.
func (m *MotionModel) repel(p *Particle, pointer geometry.Vector2D) {
	dir, dist := p.Pos.Away(pointer)
	if dist >= m.cfg.PointerInfluence {
		return
	}
	push := (1 - dist/m.cfg.PointerInfluence) * m.cfg.PointerForce
	p.Vel = p.Vel.Add(dir.Mul(push * m.cfg.RepulsionScale))
}

// Jitter gives every particle a larger random kick. It runs on its own slow timer, not per tick.
func (m *MotionModel) Jitter(particles []*Particle) {
	for _, p := range particles {
		p.Vel.X += (m.rng.Float64() - 0.5) * m.cfg.JitterAmplitude
		p.Vel.Y += (m.rng.Float64() - 0.5) * m.cfg.JitterAmplitude
	}
}

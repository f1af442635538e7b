package field

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/geometry"
)

// Particle is a single glowing node.
// ID is bookkeeping only; two particles are never compared by it for physics.
type Particle struct {
	ID     uint64
	Pos    geometry.Vector2D
	Vel    geometry.Vector2D
	Radius float64
	Hue    float64
}

// Population is the ordered particle list of one engine. It owns the particles;
// every other structure only borrows pointers to them.
type Population struct {
	items  []*Particle
	nextID uint64
}

// Len returns the number of live particles.
func (p *Population) Len() int { return len(p.items) }

// Items returns the live particles. The slice is reused across resizes, callers must not keep it.
func (p *Population) Items() []*Particle { return p.items }

// Resize grows the population to target by appending particles at random
// positions inside width x height, or truncates it from the end.
func (p *Population) Resize(target int, width, height float64, cfg *Config, rng *rand.Rand) {
	if target < len(p.items) {
		clear(p.items[target:])
		p.items = p.items[:target]
		return
	}
	for len(p.items) < target {
		p.items = append(p.items, p.spawn(width, height, cfg, rng))
	}
}

// Reset drops every particle and builds target fresh ones.
func (p *Population) Reset(target int, width, height float64, cfg *Config, rng *rand.Rand) {
	clear(p.items)
	p.items = p.items[:0]
	p.Resize(target, width, height, cfg, rng)
}

func (p *Population) spawn(width, height float64, cfg *Config, rng *rand.Rand) *Particle {
	p.nextID++
	return &Particle{
		ID: p.nextID,
		Pos: geometry.Vector2D{
			X: rng.Float64() * width,
			Y: rng.Float64() * height,
		},
		Vel: geometry.Vector2D{
			X: (rng.Float64() - 0.5) * cfg.InitialSpeed,
			Y: (rng.Float64() - 0.5) * cfg.InitialSpeed,
		},
		Radius: between(rng, cfg.NodeRadiusMin, cfg.NodeRadiusMax),
		Hue:    between(rng, cfg.HueMin, cfg.HueMax),
	}
}

func between(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// TargetCount converts a viewport area into a population size:
// round(area*density) clamped into [minCount, maxCount]. The clamp happens in
// float64 so a huge or infinite product saturates at maxCount instead of overflowing.
func TargetCount(area, density float64, minCount, maxCount int) int {
	desired := math.Round(area * density)
	switch {
	case math.IsNaN(desired) || desired <= float64(minCount):
		return minCount
	case desired >= float64(maxCount):
		return max(minCount, maxCount)
	}
	return int(desired)
}
